package parser

import "fmt"

// Syntax characters recognized outside quoted and opaque strings.
const (
	Terminator = ';'  // statement terminator, escapable as \;
	Pipe       = '|'  // connects a statement's output to the next one's input, escapable as \|
	Comment    = '#'  // comment leader, runs to end of line
	Escape     = '\\' // escapes the next character in a plain word
	Quote      = '"'  // quoted string, interpolated later
	Apostrophe = '\'' // opaque string, taken verbatim
)

// Kind classifies a word by how it was written.
type Kind int

const (
	Plain  Kind = iota // bare token
	Quoted             // "...", interpolated later, whitespace preserved
	Opaque             // '...', taken verbatim
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Quoted:
		return "quoted"
	case Opaque:
		return "opaque"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Word is one lexical token of a statement.
type Word struct {
	Kind  Kind
	Value string // decoded value, with \$ and \\ kept escaped for interpolation
	Token string // source text, including delimiters and escapes
	Pos   int    // byte offset of Token in the input
}

// Statement is one command invocation: a name followed by its arguments.
type Statement struct {
	Words []Word
	// Piped is true when the statement was followed by the pipe operator,
	// meaning its standard output feeds the next statement.
	Piped bool
}

// Values returns the decoded value of every word.
func (s Statement) Values() []string {
	values := make([]string, len(s.Words))
	for i, w := range s.Words {
		values[i] = w.Value
	}
	return values
}

// Line is a parsed compound command line.
type Line struct {
	Statements []Statement
}

// SyntaxError reports malformed input. Pos is a byte offset.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}
