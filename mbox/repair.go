package mbox

import "github.com/mailtools/mboxfsck/span"

// bugOrder is the sequence of spurious-fragment patterns tried against a
// body whose declared Content-Length overshoots the separator. Servers that
// miscount ">From " quoting re-deliver the tail of a message together with a
// fresh header block; which headers leak depends on the server version, so
// the narrower combinations are tried first, then each again allowing a
// stray blank line.
var bugOrder = [...]BugPattern{
	BugXUIDKeys | BugContentLength | BugStatus,
	BugXUIDKeys | BugContentLength,
	BugXUIDKeys | BugStatus,
	BugXUIDKeys,
	BugXUIDKeys | BugContentLength | BugStatus | BugNewline,
	BugXUIDKeys | BugContentLength | BugNewline,
	BugXUIDKeys | BugStatus | BugNewline,
	BugXUIDKeys | BugNewline,
}

// tryBugWorkaround is called with the cursor sitting Content-Length bytes
// into the body, after the jump failed to land on a separator. It re-reads
// the body discounting each spurious pattern in turn; when the declared
// length plus the discounted bytes lands on one or two terminators followed
// by the end of the mailbox or a valid envelope, the message is tagged with
// the matching pattern and the cursor is left at the accepted end. On
// failure the cursor is restored.
func (p *parser) tryBugWorkaround(msg *Message, cllen int) bool {
	c := p.c
	saved := c.Mark()

	for _, bug := range bugOrder {
		c.MoveTo(saved - cllen)
		extra := scanBugBody(c, saved, bug, nil)
		if extra == 0 || !c.MoveTo(saved+extra) {
			continue
		}
		if b, ok := c.Peek(); !ok || b == 'F' {
			c.Move(-1)
			if b, ok = c.Peek(); !ok || b != '\n' {
				c.Move(1)
			}
		}
		pos := c.Position()
		if !c.Newline() {
			continue
		}
		if c.Newline() {
			pos = c.Position() - 1
		}
		if c.AtEnd() || skipEnvelope(c) {
			c.MoveTo(pos)
			msg.bug = bug
			p.rep.Warnf("message %s: body corrupted by mis-quoted \"From \" delivery (%s, %d spurious bytes)",
				msg.tag, bug, extra)
			return true
		}
	}
	c.MoveTo(saved)
	return false
}

// scanBugBody walks the body from the cursor to endPos counting the bytes
// that the given pattern treats as spurious: within each embedded envelope's
// header block, the header lines named by bug, plus the blank line ending the
// block when BugNewline is set. When parts is non-nil the body is also
// sliced into the spans between spurious fragments, in order, so a repair
// can splice the real content back together.
func scanBugBody(c *span.Cursor, endPos int, bug BugPattern, parts *[]span.Span) int {
	extra := 0
	partStart := c.Mark()

	cut := func(n int) {
		extra += n
		if parts != nil {
			c.Move(-n)
			*parts = append(*parts, c.Since(partStart))
			c.Move(n)
			partStart = c.Position()
		}
	}

	for {
		if !skipEnvelope(c) {
			if _, ok := c.UntilNewline(); !ok || c.Position() >= endPos {
				break
			}
			c.Newline()
			continue
		}
		// Inside an embedded header block. The block may run past endPos;
		// the miscounted length only covers part of it.
		for !c.AtEnd() {
			pos := c.Position()
			if c.Newline() {
				if bug&BugNewline != 0 {
					cut(c.Position() - pos)
				} else {
					c.MoveTo(pos)
				}
				break
			}
			if matchSpuriousHeader(c, bug) {
				cut(c.Position() - pos)
			} else {
				c.Line()
			}
		}
	}

	if parts != nil {
		c.UntilEnd()
		*parts = append(*parts, c.Since(partStart))
	}
	return extra
}

// matchSpuriousHeader consumes one "Key: ..." line when Key is in the set
// selected by bug. The cursor does not move on a miss.
func matchSpuriousHeader(c *span.Cursor, bug BugPattern) bool {
	pos := c.Mark()
	matched := false
	if bug&BugContentLength != 0 && c.Literal(HdrContentLength, true) {
		matched = true
	} else if bug&BugXUIDKeys != 0 && (c.Literal(HdrXUID, true) || c.Literal(HdrXKeywords, true)) {
		matched = true
	} else if bug&BugStatus != 0 && c.Literal(HdrStatus, true) {
		matched = true
	}
	if matched && c.Byte(':') {
		c.Line()
		return true
	}
	c.MoveTo(pos)
	return false
}

// RepairBug rebuilds the body of a message tagged during segmentation,
// splicing out the spurious fragments and rewriting Content-Length. It
// reports whether anything was repaired.
func (m *Message) RepairBug() bool {
	if m.bug == 0 {
		return false
	}
	c := span.NewCursor(span.NewBorrowed(m.body.Bytes()))
	var parts []span.Span
	scanBugBody(c, c.Len(), m.bug, &parts)
	m.SetBody(span.Join(parts))
	m.bug = 0
	return true
}
