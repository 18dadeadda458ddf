package parser

import "strings"

// Parse splits text into statements. Whitespace separates words, ';' and
// newlines separate statements and '|' chains a statement into the next.
// Empty statements are dropped, so "a;;;" and "a" parse the same.
func Parse(text string) (*Line, error) {
	s := &scanner{src: text}
	if err := s.run(); err != nil {
		return nil, err
	}
	return &Line{Statements: s.statements}, nil
}

type scanner struct {
	src        string
	pos        int
	words      []Word
	statements []Statement
	// pipeAt is the offset of a pipe operator still waiting for its
	// downstream statement, or -1.
	pipeAt int
}

func (s *scanner) run() error {
	s.pipeAt = -1
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\n':
			s.pos++
			// A pipe may be continued on the next line.
			if len(s.words) > 0 {
				s.end(false)
			}
		case isSpace(c):
			s.pos++
		case c == Comment:
			s.skipComment()
		case c == Terminator:
			if len(s.words) == 0 && s.pipeAt >= 0 {
				return &SyntaxError{Pos: s.pos, Msg: "missing command after '|'"}
			}
			s.pos++
			s.end(false)
		case c == Pipe:
			if len(s.words) == 0 {
				return &SyntaxError{Pos: s.pos, Msg: "missing command before '|'"}
			}
			s.pipeAt = s.pos
			s.pos++
			s.end(true)
		case c == Quote:
			w, err := s.quoted()
			if err != nil {
				return err
			}
			s.words = append(s.words, w)
		case c == Apostrophe:
			w, err := s.opaque()
			if err != nil {
				return err
			}
			s.words = append(s.words, w)
		default:
			w, err := s.plain()
			if err != nil {
				return err
			}
			s.words = append(s.words, w)
		}
	}
	if len(s.words) == 0 && s.pipeAt >= 0 {
		return &SyntaxError{Pos: s.pipeAt, Msg: "missing command after '|'"}
	}
	s.end(false)
	return nil
}

// end closes the statement being collected, if it has any words.
func (s *scanner) end(piped bool) {
	if len(s.words) == 0 {
		return
	}
	s.statements = append(s.statements, Statement{Words: s.words, Piped: piped})
	s.words = nil
	if !piped {
		s.pipeAt = -1
	}
}

func (s *scanner) skipComment() {
	if i := strings.IndexByte(s.src[s.pos:], '\n'); i >= 0 {
		s.pos += i
		return
	}
	s.pos = len(s.src)
}

func (s *scanner) plain() (Word, error) {
	start := s.pos
	var v value
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if isSpace(c) || c == '\n' || isDelimiter(c) {
			break
		}
		if c == Escape {
			if s.pos+1 >= len(s.src) {
				return Word{}, &SyntaxError{Pos: s.pos, Msg: "escape at end of input"}
			}
			v.escaped(s.src[s.pos+1])
			s.pos += 2
			continue
		}
		v.raw(c)
		s.pos++
	}
	return Word{Kind: Plain, Value: v.String(), Token: s.src[start:s.pos], Pos: start}, nil
}

func (s *scanner) quoted() (Word, error) {
	start := s.pos
	s.pos++
	var v value
	for {
		if s.pos >= len(s.src) {
			return Word{}, &SyntaxError{Pos: start, Msg: "unterminated quoted string"}
		}
		c := s.src[s.pos]
		if c == Quote {
			s.pos++
			break
		}
		if c == Escape && s.pos+1 < len(s.src) {
			if next := s.src[s.pos+1]; next == Quote || next == Escape || next == '$' {
				v.escaped(next)
				s.pos += 2
				continue
			}
		}
		v.raw(c)
		s.pos++
	}
	return Word{Kind: Quoted, Value: v.String(), Token: s.src[start:s.pos], Pos: start}, nil
}

// value accumulates a decoded word. Its String form keeps the escapes that
// interpolation needs: an escaped dollar is written \$, and a backslash
// followed by a backslash or dollar is doubled.
type value struct {
	buf     []byte
	literal []bool
}

func (v *value) raw(c byte) {
	v.buf = append(v.buf, c)
	v.literal = append(v.literal, false)
}

func (v *value) escaped(c byte) {
	v.buf = append(v.buf, c)
	v.literal = append(v.literal, true)
}

func (v *value) String() string {
	var b strings.Builder
	for i, c := range v.buf {
		switch {
		case c == '$' && v.literal[i]:
			b.WriteString(`\$`)
		case c == Escape && i+1 < len(v.buf) && (v.buf[i+1] == Escape || v.buf[i+1] == '$'):
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (s *scanner) opaque() (Word, error) {
	start := s.pos
	end := strings.IndexByte(s.src[start+1:], Apostrophe)
	if end < 0 {
		return Word{}, &SyntaxError{Pos: start, Msg: "unterminated opaque string"}
	}
	s.pos = start + 1 + end + 1
	return Word{Kind: Opaque, Value: s.src[start+1 : start+1+end], Token: s.src[start:s.pos], Pos: start}, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isDelimiter(c byte) bool {
	switch c {
	case Terminator, Pipe, Comment, Quote, Apostrophe:
		return true
	}
	return false
}
