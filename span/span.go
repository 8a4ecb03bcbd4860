package span

import (
	"bytes"
	"strings"
)

// Span is an immutable (offset, length) view into a Buffer. The zero Span is
// empty. Spans never copy bytes; narrowing operations return new views into
// the same Buffer.
type Span struct {
	buf *Buffer
	off int
	n   int
}

// Make returns a view of buf[off:off+n]. It panics if the range is out of
// bounds; spans with a negative length are never constructed.
func Make(buf *Buffer, off, n int) Span {
	if off < 0 || n < 0 || off+n > buf.Len() {
		panic("span: view out of range")
	}
	return Span{buf: buf, off: off, n: n}
}

// FromString copies s into a fresh Owned buffer and returns a full view of it.
func FromString(s string) Span {
	b := NewOwned([]byte(s))
	return Span{buf: b, n: b.Len()}
}

// FromBytes takes ownership of data.
func FromBytes(data []byte) Span {
	b := NewOwned(data)
	return Span{buf: b, n: b.Len()}
}

// Join concatenates parts into a single Owned span.
func Join(parts []Span) Span {
	total := 0
	for _, p := range parts {
		total += p.n
	}
	data := make([]byte, 0, total)
	for _, p := range parts {
		data = append(data, p.Bytes()...)
	}
	return FromBytes(data)
}

func (s Span) Bytes() []byte {
	if s.buf == nil {
		return nil
	}
	return s.buf.data[s.off : s.off+s.n]
}

func (s Span) String() string { return string(s.Bytes()) }

func (s Span) Len() int { return s.n }

func (s Span) IsEmpty() bool { return s.n == 0 }

// IsZero reports whether the span has no backing buffer at all, as opposed to
// viewing zero bytes of one.
func (s Span) IsZero() bool { return s.buf == nil }

// Offset is the view's start within its backing buffer.
func (s Span) Offset() int { return s.off }

// Kind reports the ownership of the backing buffer.
func (s Span) Kind() Kind {
	if s.buf == nil {
		return Static
	}
	if s.off != 0 || s.n != s.buf.Len() {
		return Borrowed
	}
	return s.buf.kind
}

// Slice returns the subview [i, j) of s.
func (s Span) Slice(i, j int) Span {
	if i < 0 || j < i || j > s.n {
		panic("span: slice out of range")
	}
	return Span{buf: s.buf, off: s.off + i, n: j - i}
}

// Equal compares byte content. With fold set the comparison is ASCII
// case-insensitive.
func (s Span) Equal(o Span, fold bool) bool {
	if fold {
		return bytes.EqualFold(s.Bytes(), o.Bytes())
	}
	return bytes.Equal(s.Bytes(), o.Bytes())
}

func (s Span) EqualString(str string, fold bool) bool {
	b := s.Bytes()
	if fold {
		return len(b) == len(str) && strings.EqualFold(string(b), str)
	}
	return string(b) == str
}

func (s Span) HasPrefix(str string, fold bool) bool {
	if s.n < len(str) {
		return false
	}
	return s.Slice(0, len(str)).EqualString(str, fold)
}

// Compare orders spans by case-sensitive byte comparison.
func (s Span) Compare(o Span) int {
	return bytes.Compare(s.Bytes(), o.Bytes())
}

// TrimSpace narrows the view past leading and trailing whitespace.
func (s Span) TrimSpace() Span {
	b := s.Bytes()
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	j := len(b)
	for j > i && isSpace(b[j-1]) {
		j--
	}
	return s.Slice(i, j)
}

// Int parses a leading run of decimal digits, returning def when the span is
// empty or starts with a non-digit.
func (s Span) Int(def int) int {
	b := s.Bytes()
	i, num := 0, 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		num = num*10 + int(b[i]-'0')
		i++
	}
	if i == 0 {
		return def
	}
	return num
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\v' || b == '\f'
}
