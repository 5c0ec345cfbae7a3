package script

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	COLON    // ":"
	COMMA    // ","
	PERIOD   // "."

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	CONCAT // "&"
	ASSIGN // "="
	EQ     // "=="
	NEQ    // "!="
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ

	// Literals & identifiers
	ID
	STRING
	INTEGER
	FLOAT
	BOOLEAN
	NIL

	// Keywords
	AND
	OR
	NOT
	MOD
	VAR
	PROC
	RETURN
	IF
	THEN
	ELIF
	ELSE
	END
	WHILE
	DO
	FOR
	IN
)

// Token is a lexical token with optional literal value.
// Line is 1-based, Col is 0-based. Immutable once produced.
type Token struct {
	Type    TokenType
	Lexeme  string      // raw text slice
	Literal interface{} // parsed value for literals
	Line    int
	Col     int
}

// keywords map
var keywords = map[string]TokenType{
	"nil":    NIL,
	"false":  BOOLEAN,
	"true":   BOOLEAN,
	"and":    AND,
	"or":     OR,
	"not":    NOT,
	"mod":    MOD,
	"var":    VAR,
	"proc":   PROC,
	"return": RETURN,
	"if":     IF,
	"then":   THEN,
	"elif":   ELIF,
	"else":   ELSE,
	"end":    END,
	"while":  WHILE,
	"do":     DO,
	"for":    FOR,
	"in":     IN,
}

var tokenNames = map[TokenType]string{
	EOF:        "end of input",
	ILLEGAL:    "illegal token",
	LPAREN:     "'('",
	RPAREN:     "')'",
	LBRACKET:   "'['",
	RBRACKET:   "']'",
	LBRACE:     "'{'",
	RBRACE:     "'}'",
	COLON:      "':'",
	COMMA:      "','",
	PERIOD:     "'.'",
	PLUS:       "'+'",
	MINUS:      "'-'",
	STAR:       "'*'",
	SLASH:      "'/'",
	CONCAT:     "'&'",
	ASSIGN:     "'='",
	EQ:         "'=='",
	NEQ:        "'!='",
	LESS:       "'<'",
	LESS_EQ:    "'<='",
	GREATER:    "'>'",
	GREATER_EQ: "'>='",
	ID:         "identifier",
	STRING:     "string literal",
	INTEGER:    "integer literal",
	FLOAT:      "float literal",
	BOOLEAN:    "boolean literal",
	NIL:        "'nil'",
	AND:        "'and'",
	OR:         "'or'",
	NOT:        "'not'",
	MOD:        "'mod'",
	VAR:        "'var'",
	PROC:       "'proc'",
	RETURN:     "'return'",
	IF:         "'if'",
	THEN:       "'then'",
	ELIF:       "'elif'",
	ELSE:       "'else'",
	END:        "'end'",
	WHILE:      "'while'",
	DO:         "'do'",
	FOR:        "'for'",
	IN:         "'in'",
}

// Name returns a human-readable description of the token type,
// used in parse error messages.
func (tt TokenType) Name() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	return "unknown token"
}
