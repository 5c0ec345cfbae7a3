// errors.go: the error taxonomy and caret-snippet rendering.
//
// Load-time errors (*LexError, *ParseError) abort loading of a single hook
// fragment; the hook is simply not installed and previously loaded hooks are
// unaffected. Runtime errors (*RuntimeError) unwind evaluation up to the
// hook-invocation boundary (Runtime.RunHook) and are surfaced to the host as
// ordinary Go errors; they never unwind past the interpreter boundary.
//
// WrapErrorWithSource turns any of the above into a readable snippet with a
// caret pointing at the offending column:
//
//	PARSE ERROR in update at 3:12: expected 'end', found ')'
//
//	   2 | if score > 10 then
//	   3 |   message = "hit")
//	     |                  ^
package script

import (
	"fmt"
	"strings"
)

// LexError reports an unrecoverable tokenization failure.
// Line is 1-based, Col is 0-based.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// ParseError reports an unrecoverable parse failure. No resync is attempted:
// a fragment parses wholly or not at all.
type ParseError struct {
	Line     int
	Col      int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: expected %s, found %s", e.Line, e.Col, e.Expected, e.Found)
}

// ErrKind classifies runtime errors raised during evaluation.
type ErrKind int

const (
	ErrUndefinedVariable ErrKind = iota
	ErrType
	ErrKeyNotFound
	ErrIndexOutOfRange
	ErrNotCallable
	ErrNativeArg
	ErrCancelled
)

var errKindNames = map[ErrKind]string{
	ErrUndefinedVariable: "undefined variable",
	ErrType:              "type error",
	ErrKeyNotFound:       "key not found",
	ErrIndexOutOfRange:   "index out of range",
	ErrNotCallable:       "not callable",
	ErrNativeArg:         "native argument error",
	ErrCancelled:         "cancelled",
}

// RuntimeError is an execution-time failure with a source location.
// Line is 1-based, Col is 0-based (matching token coordinates).
type RuntimeError struct {
	Kind ErrKind
	Line int
	Col  int
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("RUNTIME ERROR at %d:%d: %s: %s", e.Line, e.Col, errKindNames[e.Kind], e.Msg)
}

func undefinedErr(name string, line, col int) *RuntimeError {
	return &RuntimeError{Kind: ErrUndefinedVariable, Line: line, Col: col, Msg: name}
}

func typeErr(line, col int, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: ErrType, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

// NativeArgErrorf builds the error a native function returns to signal a
// usage error (wrong arity, wrong argument type). The evaluator fills in the
// call-site position before propagating it.
func NativeArgErrorf(fn string, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: ErrNativeArg, Msg: fn + ": " + fmt.Sprintf(format, args...)}
}

/* ===========================
   Caret-snippet rendering
   =========================== */

// sourceError is a typed error dressed with its caret-annotated snippet.
// Error() shows the snippet; Unwrap keeps the original *LexError /
// *ParseError / *RuntimeError reachable through errors.As, so a host can
// still branch on the error kind after the hook boundary.
type sourceError struct {
	cause error
	msg   string
}

func (e *sourceError) Error() string { return e.msg }
func (e *sourceError) Unwrap() error { return e.cause }

// WrapErrorWithSource returns an error augmented with a caret-annotated
// snippet of the provided source. It recognizes the three error types above
// and leaves other errors untouched.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a fragment name ("update",
// "<repl>", ...) included in the header.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		// Col is 0-based; render as 1-based.
		return &sourceError{cause: err,
			msg: snippet(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg)}
	case *ParseError:
		return &sourceError{cause: err,
			msg: snippet(src, "PARSE ERROR", srcName, e.Line, e.Col+1,
				fmt.Sprintf("expected %s, found %s", e.Expected, e.Found))}
	case *RuntimeError:
		return &sourceError{cause: err,
			msg: snippet(src, "RUNTIME ERROR", srcName, e.Line, e.Col+1,
				errKindNames[e.Kind]+": "+e.Msg)}
	default:
		return err
	}
}

// snippet builds a Python-like excerpt with a header and a caret. It shows at
// most one previous and one next line. Coordinates are 1-based and clamped.
func snippet(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad > len(lineTxt) {
		caretPad = len(lineTxt)
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
