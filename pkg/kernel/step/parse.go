// Package step reads ISO 10303-21 (STEP Part 21) boundary
// representation files into the kernel's flat topology model. It
// covers the analytic surfaces and curves of AP203/AP214 solids plus
// non-rational B-splines; anything else loads as a flagged face
// rather than failing the whole file.
package step

import (
	"fmt"
	"strconv"
	"strings"
)

// argKind discriminates the Part 21 parameter value forms.
type argKind int

const (
	argRef  argKind = iota // #123
	argNum                 // 1.5, -2, 1.0E-6
	argStr                 // 'text'
	argEnum                // .T., .UNSPECIFIED.
	argList                // ( ... )
	argNull                // $
	argStar                // *
)

// arg is a single parsed parameter of an entity instance.
type arg struct {
	kind argKind
	ref  int
	num  float64
	str  string
	list []arg
}

// entity is one #id=TYPE(...) instance. Complex (multi-record)
// instances are stored with typ "COMPLEX" and skipped downstream.
type entity struct {
	id   int
	typ  string
	args []arg
}

// stepFile is the parsed DATA section, preserving instance order.
type stepFile struct {
	entities map[int]*entity
	order    []int
}

type scanner struct {
	src []byte
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

// skipSpace advances past whitespace and /* */ comments.
func (s *scanner) skipSpace() {
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.pos++
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
			end := strings.Index(string(s.src[s.pos+2:]), "*/")
			if end < 0 {
				s.pos = len(s.src)
				return
			}
			s.pos += 2 + end + 2
		default:
			return
		}
	}
}

func (s *scanner) peek() byte {
	s.skipSpace()
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) expect(c byte) error {
	if got := s.peek(); got != c {
		return fmt.Errorf("offset %d: expected %q, got %q", s.pos, c, got)
	}
	s.pos++
	return nil
}

// ident reads a keyword: letters, digits, underscore.
func (s *scanner) ident() string {
	s.skipSpace()
	start := s.pos
	for !s.eof() {
		c := s.src[s.pos]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			s.pos++
			continue
		}
		break
	}
	return string(s.src[start:s.pos])
}

// integer reads an unsigned decimal integer.
func (s *scanner) integer() (int, error) {
	s.skipSpace()
	start := s.pos
	for !s.eof() && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == start {
		return 0, fmt.Errorf("offset %d: expected integer", s.pos)
	}
	return strconv.Atoi(string(s.src[start:s.pos]))
}

// quoted reads a 'string' with '' as the embedded-quote escape.
func (s *scanner) quoted() (string, error) {
	if err := s.expect('\''); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		if s.eof() {
			return "", fmt.Errorf("unterminated string")
		}
		c := s.src[s.pos]
		s.pos++
		if c == '\'' {
			if !s.eof() && s.src[s.pos] == '\'' {
				b.WriteByte('\'')
				s.pos++
				continue
			}
			return b.String(), nil
		}
		b.WriteByte(c)
	}
}

// number reads a real or integer literal.
func (s *scanner) number() (float64, error) {
	s.skipSpace()
	start := s.pos
	if !s.eof() && (s.src[s.pos] == '-' || s.src[s.pos] == '+') {
		s.pos++
	}
	for !s.eof() {
		c := s.src[s.pos]
		if c >= '0' && c <= '9' || c == '.' || c == 'E' || c == 'e' {
			s.pos++
			continue
		}
		if (c == '-' || c == '+') && s.pos > start {
			prev := s.src[s.pos-1]
			if prev == 'E' || prev == 'e' {
				s.pos++
				continue
			}
		}
		break
	}
	return strconv.ParseFloat(string(s.src[start:s.pos]), 64)
}

// value parses one parameter value.
func (s *scanner) value() (arg, error) {
	switch c := s.peek(); {
	case c == '#':
		s.pos++
		id, err := s.integer()
		if err != nil {
			return arg{}, err
		}
		return arg{kind: argRef, ref: id}, nil
	case c == '\'':
		str, err := s.quoted()
		if err != nil {
			return arg{}, err
		}
		return arg{kind: argStr, str: str}, nil
	case c == '.':
		s.pos++
		name := s.ident()
		if err := s.expect('.'); err != nil {
			return arg{}, err
		}
		return arg{kind: argEnum, str: name}, nil
	case c == '(':
		s.pos++
		var list []arg
		for s.peek() != ')' {
			v, err := s.value()
			if err != nil {
				return arg{}, err
			}
			list = append(list, v)
			if s.peek() == ',' {
				s.pos++
			}
		}
		s.pos++ // ')'
		return arg{kind: argList, list: list}, nil
	case c == '$':
		s.pos++
		return arg{kind: argNull}, nil
	case c == '*':
		s.pos++
		return arg{kind: argStar}, nil
	case c == '-' || c == '+' || c >= '0' && c <= '9':
		n, err := s.number()
		if err != nil {
			return arg{}, err
		}
		return arg{kind: argNum, num: n}, nil
	case c >= 'A' && c <= 'Z' || c == '_':
		// Typed parameter, e.g. PARAMETER_VALUE(0.5): unwrap to its
		// single argument.
		s.ident()
		if err := s.expect('('); err != nil {
			return arg{}, err
		}
		inner, err := s.value()
		if err != nil {
			return arg{}, err
		}
		if err := s.expect(')'); err != nil {
			return arg{}, err
		}
		return inner, nil
	default:
		return arg{}, fmt.Errorf("offset %d: unexpected %q", s.pos, c)
	}
}

// instance parses one #id=... record, positioned after '#'.
func (s *scanner) instance() (*entity, error) {
	id, err := s.integer()
	if err != nil {
		return nil, err
	}
	if err := s.expect('='); err != nil {
		return nil, err
	}

	e := &entity{id: id}
	if s.peek() == '(' {
		// Complex instance: consume the balanced group, keep the tag.
		e.typ = "COMPLEX"
		if err := s.skipBalanced(); err != nil {
			return nil, err
		}
	} else {
		e.typ = s.ident()
		if err := s.expect('('); err != nil {
			return nil, err
		}
		for s.peek() != ')' {
			v, err := s.value()
			if err != nil {
				return nil, fmt.Errorf("#%d %s: %w", id, e.typ, err)
			}
			e.args = append(e.args, v)
			if s.peek() == ',' {
				s.pos++
			}
		}
		s.pos++ // ')'
	}
	if err := s.expect(';'); err != nil {
		return nil, err
	}
	return e, nil
}

// skipBalanced consumes a balanced (...) group, honoring strings.
func (s *scanner) skipBalanced() error {
	if err := s.expect('('); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		if s.eof() {
			return fmt.Errorf("unbalanced parentheses")
		}
		switch s.src[s.pos] {
		case '(':
			depth++
			s.pos++
		case ')':
			depth--
			s.pos++
		case '\'':
			if _, err := s.quoted(); err != nil {
				return err
			}
		default:
			s.pos++
		}
	}
	return nil
}

// parse reads the DATA section of a Part 21 file.
func parse(src []byte) (*stepFile, error) {
	s := &scanner{src: src}

	head := s.ident()
	if head != "ISO" {
		// The magic token is "ISO-10303-21"; the ident scanner stops
		// at the hyphen.
		return nil, fmt.Errorf("not a STEP file (missing ISO-10303-21 header)")
	}
	dataAt := strings.Index(string(src), "DATA;")
	if dataAt < 0 {
		return nil, fmt.Errorf("no DATA section")
	}
	s.pos = dataAt + len("DATA;")

	f := &stepFile{entities: make(map[int]*entity)}
	for {
		switch c := s.peek(); c {
		case '#':
			s.pos++
			e, err := s.instance()
			if err != nil {
				return nil, err
			}
			f.entities[e.id] = e
			f.order = append(f.order, e.id)
		case 'E', 0:
			// ENDSEC or end of input.
			return f, nil
		default:
			return nil, fmt.Errorf("offset %d: unexpected %q in DATA section", s.pos, c)
		}
	}
}

// ref follows a reference argument to its entity, or nil.
func (f *stepFile) ref(a arg) *entity {
	if a.kind != argRef {
		return nil
	}
	return f.entities[a.ref]
}
