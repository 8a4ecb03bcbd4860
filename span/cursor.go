package span

import "bytes"

// Cursor walks a Buffer with backtracking parse primitives. Every matching
// operation either consumes what it matched and reports success, or leaves the
// position untouched and reports failure, so callers can attempt a parse and
// retry a different strategy from the same spot.
type Cursor struct {
	buf *Buffer
	pos int
}

func NewCursor(buf *Buffer) *Cursor {
	return &Cursor{buf: buf}
}

func (c *Cursor) rest() []byte { return c.buf.data[c.pos:] }

func (c *Cursor) Position() int { return c.pos }

// Buffer exposes the backing buffer for out-of-order span captures.
func (c *Cursor) Buffer() *Buffer { return c.buf }

func (c *Cursor) Len() int { return c.buf.Len() }

func (c *Cursor) AtEnd() bool { return c.pos >= c.buf.Len() }

// Peek returns the byte at the current position without consuming it.
func (c *Cursor) Peek() (byte, bool) {
	if c.AtEnd() {
		return 0, false
	}
	return c.buf.data[c.pos], true
}

// MoveTo seeks to an absolute position, refusing out-of-bounds targets.
func (c *Cursor) MoveTo(pos int) bool {
	if pos < 0 || pos > c.buf.Len() {
		return false
	}
	c.pos = pos
	return true
}

// Move seeks relative to the current position.
func (c *Cursor) Move(delta int) bool {
	return c.MoveTo(c.pos + delta)
}

// Rest views everything from the current position to the end of input.
func (c *Cursor) Rest() Span {
	return Make(c.buf, c.pos, c.buf.Len()-c.pos)
}

// Mark snapshots the current position for a later Since capture.
func (c *Cursor) Mark() int { return c.pos }

// Since returns the span covering everything consumed after mark.
func (c *Cursor) Since(mark int) Span {
	return Make(c.buf, mark, c.pos-mark)
}

// Byte consumes b if it is next.
func (c *Cursor) Byte(b byte) bool {
	if c.AtEnd() || c.buf.data[c.pos] != b {
		return false
	}
	c.pos++
	return true
}

// Next consumes and returns the next byte.
func (c *Cursor) Next() (byte, bool) {
	b, ok := c.Peek()
	if ok {
		c.pos++
	}
	return b, ok
}

// Literal consumes s if it is next; fold makes the match ASCII
// case-insensitive.
func (c *Cursor) Literal(s string, fold bool) bool {
	r := c.rest()
	if len(r) < len(s) {
		return false
	}
	head := r[:len(s)]
	if fold {
		if !bytes.EqualFold(head, []byte(s)) {
			return false
		}
	} else if string(head) != s {
		return false
	}
	c.pos += len(s)
	return true
}

// Spaces consumes a run of space or tab bytes.
func (c *Cursor) Spaces() bool {
	r := c.rest()
	i := 0
	for i < len(r) && (r[i] == ' ' || r[i] == '\t') {
		i++
	}
	if i == 0 {
		return false
	}
	c.pos += i
	return true
}

// Newline consumes one line terminator: an optional CR followed by an
// optional LF, at least one of which must be present.
func (c *Cursor) Newline() bool {
	r := c.rest()
	i := 0
	if i < len(r) && r[i] == '\r' {
		i++
	}
	if i < len(r) && r[i] == '\n' {
		i++
	}
	if i == 0 {
		return false
	}
	c.pos += i
	return true
}

// BackupNewline steps backwards over a line terminator directly before the
// current position, LF first then an optional CR.
func (c *Cursor) BackupNewline() bool {
	pos := c.pos
	if pos > 0 && c.buf.data[pos-1] == '\n' {
		pos--
	}
	if pos > 0 && c.buf.data[pos-1] == '\r' {
		pos--
	}
	if pos == c.pos {
		return false
	}
	c.pos = pos
	return true
}

// UntilNewline advances to the next CR or LF, returning the bytes skipped.
// It fails without moving when no terminator remains.
func (c *Cursor) UntilNewline() (Span, bool) {
	i := bytes.IndexAny(c.rest(), "\r\n")
	if i < 0 {
		return Span{}, false
	}
	s := Make(c.buf, c.pos, i)
	c.pos += i
	return s, true
}

// UntilByte advances to the next occurrence of b, returning the bytes skipped.
func (c *Cursor) UntilByte(b byte) (Span, bool) {
	i := bytes.IndexByte(c.rest(), b)
	if i < 0 {
		return Span{}, false
	}
	s := Make(c.buf, c.pos, i)
	c.pos += i
	return s, true
}

// UntilString advances to the start of the next occurrence of s.
func (c *Cursor) UntilString(s string) (Span, bool) {
	i := bytes.Index(c.rest(), []byte(s))
	if i < 0 {
		return Span{}, false
	}
	sp := Make(c.buf, c.pos, i)
	c.pos += i
	return sp, true
}

// UntilEnd consumes everything that remains.
func (c *Cursor) UntilEnd() Span {
	s := c.Rest()
	c.pos = c.buf.Len()
	return s
}

// Line consumes up to and including the next line terminator, returning the
// line without it. Without a terminator it consumes the rest of the input.
func (c *Cursor) Line() Span {
	if s, ok := c.UntilNewline(); ok {
		c.Newline()
		return s
	}
	return c.UntilEnd()
}

// Int consumes a run of decimal digits.
func (c *Cursor) Int() (int, bool) {
	r := c.rest()
	i, num := 0, 0
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		num = num*10 + int(r[i]-'0')
		i++
	}
	if i == 0 {
		return 0, false
	}
	c.pos += i
	return num, true
}
