// value.go — the runtime value model.
//
// Value is a closed tagged union. Scalars (nil, bool, int, float, string) are
// copied by value; lists, maps and closures are copied by reference, so a
// mutation through one reference is visible through every other reference.
// That aliasing is intentional and load-bearing: a list stored in the Global
// environment and also held by a hook-local variable is one object.
package script

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag enumerates all runtime kinds a Value may hold.
type Tag int

const (
	TagNil     Tag = iota // no payload
	TagBool               // bool
	TagInt                // int64
	TagFloat              // float64
	TagStr                // string
	TagList               // *ListObject
	TagMap                // *MapObject (insertion-ordered)
	TagClosure            // *Proc
	TagNative             // string (registered native name)
)

var tagNames = map[Tag]string{
	TagNil:     "nil",
	TagBool:    "bool",
	TagInt:     "int",
	TagFloat:   "float",
	TagStr:     "string",
	TagList:    "list",
	TagMap:     "map",
	TagClosure: "proc",
	TagNative:  "native",
}

// TypeName returns the user-visible name of the tag ("int", "list", ...).
func (t Tag) TypeName() string { return tagNames[t] }

// Value is the universal runtime carrier. Tag determines which Go type Data
// holds (see Tag constants).
type Value struct {
	Tag  Tag
	Data interface{}
}

// Nil is the nil Value.
var Nil = Value{Tag: TagNil}

// Primitive constructors.
func Bool(b bool) Value     { return Value{Tag: TagBool, Data: b} }
func Int(n int64) Value     { return Value{Tag: TagInt, Data: n} }
func Float(f float64) Value { return Value{Tag: TagFloat, Data: f} }
func Str(s string) Value    { return Value{Tag: TagStr, Data: s} }

// ListObject is the shared backing store of a list value. All Value copies of
// one list point at the same ListObject, so in-place mutation (push, indexed
// assignment) is observable through every reference.
type ListObject struct {
	Items []Value
}

// List wraps items into a fresh list value.
func List(items ...Value) Value {
	return Value{Tag: TagList, Data: &ListObject{Items: items}}
}

// MapObject is an insertion-ordered string-keyed map. Keys records insertion
// order; order-sensitive consumers must iterate Keys, not Entries.
type MapObject struct {
	Entries map[string]Value
	Keys    []string
}

// NewMap creates an empty ordered map value.
func NewMap() Value {
	return Value{Tag: TagMap, Data: &MapObject{Entries: map[string]Value{}}}
}

// Set inserts or overwrites a key, appending to Keys on first insertion.
func (m *MapObject) Set(key string, v Value) {
	if _, ok := m.Entries[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Entries[key] = v
}

// Get retrieves a key's value and whether it is present.
func (m *MapObject) Get(key string) (Value, bool) {
	v, ok := m.Entries[key]
	return v, ok
}

// Proc is a user-defined procedure paired with the environment captured at
// its definition site. Free variables resolve through Env at call time,
// regardless of the caller's scope.
type Proc struct {
	Name   string
	Params []string
	Body   *Block
	Env    *Env
}

// ClosureVal wraps a *Proc into a Value.
func ClosureVal(p *Proc) Value { return Value{Tag: TagClosure, Data: p} }

// NativeRef is a handle to a host function registered under name.
func NativeRef(name string) Value { return Value{Tag: TagNative, Data: name} }

// Truthy reports the payload of a Bool value. Conditions in the language
// must be Bool; callers check the tag first.
func (v Value) Truthy() bool { return v.Tag == TagBool && v.Data.(bool) }

// AsInt returns the int64 payload (Tag must be TagInt).
func (v Value) AsInt() int64 { return v.Data.(int64) }

// AsFloat returns the numeric payload widened to float64 (TagInt or TagFloat).
func (v Value) AsFloat() float64 {
	if v.Tag == TagInt {
		return float64(v.Data.(int64))
	}
	return v.Data.(float64)
}

// AsStr returns the string payload (Tag must be TagStr).
func (v Value) AsStr() string { return v.Data.(string) }

// AsList returns the shared list object (Tag must be TagList).
func (v Value) AsList() *ListObject { return v.Data.(*ListObject) }

// AsMap returns the shared map object (Tag must be TagMap).
func (v Value) AsMap() *MapObject { return v.Data.(*MapObject) }

// IsNumeric reports whether the value is an Int or a Float.
func (v Value) IsNumeric() bool { return v.Tag == TagInt || v.Tag == TagFloat }

// Display renders the user-visible textual form: the representation used by
// the '&' concatenation operator and by print. Strings appear raw at the top
// level and quoted inside containers.
func (v Value) Display() string {
	if v.Tag == TagStr {
		return v.Data.(string)
	}
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

// String renders a debug form (strings always quoted). Satisfies fmt.Stringer.
func (v Value) String() string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch v.Tag {
	case TagNil:
		b.WriteString("nil")
	case TagBool:
		if v.Data.(bool) {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case TagInt:
		b.WriteString(strconv.FormatInt(v.Data.(int64), 10))
	case TagFloat:
		f := v.Data.(float64)
		s := strconv.FormatFloat(f, 'g', -1, 64)
		// Keep floats visually distinct from ints.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		b.WriteString(s)
	case TagStr:
		b.WriteString(strconv.Quote(v.Data.(string)))
	case TagList:
		b.WriteByte('[')
		for i, it := range v.AsList().Items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, it)
		}
		b.WriteByte(']')
	case TagMap:
		m := v.AsMap()
		b.WriteByte('{')
		for i, k := range m.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			writeValue(b, m.Entries[k])
		}
		b.WriteByte('}')
	case TagClosure:
		p := v.Data.(*Proc)
		fmt.Fprintf(b, "<proc %s/%d>", p.Name, len(p.Params))
	case TagNative:
		fmt.Fprintf(b, "<native %s>", v.Data.(string))
	default:
		b.WriteString("<unknown>")
	}
}

// Equal implements the language's equality policy: scalars compare by value,
// Int and Float compare numerically, and lists/maps/closures compare by
// reference identity.
func Equal(a, b Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		if a.Tag == TagInt && b.Tag == TagInt {
			return a.AsInt() == b.AsInt()
		}
		return a.AsFloat() == b.AsFloat()
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagNil:
		return true
	case TagBool:
		return a.Data.(bool) == b.Data.(bool)
	case TagStr:
		return a.AsStr() == b.AsStr()
	case TagList:
		return a.AsList() == b.AsList()
	case TagMap:
		return a.AsMap() == b.AsMap()
	case TagClosure:
		return a.Data.(*Proc) == b.Data.(*Proc)
	case TagNative:
		return a.Data.(string) == b.Data.(string)
	}
	return false
}
