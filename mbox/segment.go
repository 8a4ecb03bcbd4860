package mbox

import (
	"github.com/mailtools/mboxfsck/report"
	"github.com/mailtools/mboxfsck/span"
)

// parser segments one buffer into messages. It wraps the cursor with the
// mailbox-level recovery strategies; the cursor itself stays dumb.
type parser struct {
	c   *span.Cursor
	rep *report.Reporter
}

// parseAll segments the whole buffer, appending messages to box. Messages
// are separated by one line terminator; anything that cannot be consumed is
// reported and skipped up to the next parsable point.
func (p *parser) parseAll(box *Mailbox) {
	for !p.c.AtEnd() {
		msg, ok := p.parseMessage(box, false)
		if !ok {
			break
		}
		box.msgs = append(box.msgs, msg)
		p.c.Newline()
	}
	if !p.c.AtEnd() {
		rest := p.c.Rest()
		p.rep.Warnf("mailbox %s: %d bytes of trailing data could not be parsed (%q...)",
			box.name, rest.Len(), excerpt(rest, 40))
	}
}

// parseMessage parses one message at the cursor. A missing or mangled
// envelope is tolerated; the message then starts directly with its headers.
// With useAllData set the entire remaining input becomes the body, the mode
// used when re-reading an edited message from a temp file.
func (p *parser) parseMessage(box *Mailbox, useAllData bool) (*Message, bool) {
	c := p.c
	if c.Newline() {
		for c.Newline() {
		}
		p.rep.Warnf("mailbox %s: unexpected blank line(s) after message #%d",
			box.name, len(box.msgs))
	}
	if c.AtEnd() {
		return nil, false
	}

	dataStart := c.Mark()
	msg := newMessage(box, len(box.msgs)+1, dataStart)

	if env, ok := parseEnvelope(c); ok {
		msg.env = env
		if env.Sender.IsEmpty() {
			p.rep.Warnf("message %s: empty envelope sender", msg.tag)
		}
	} else {
		p.rep.Warnf("message %s: no valid \"From \" separator line", msg.tag)
	}

	p.parseHeaders(msg)

	bodyStart := c.Mark()
	if useAllData {
		c.UntilEnd()
	} else {
		p.endOfMessage(msg, bodyStart)
	}
	msg.body = c.Since(bodyStart)
	msg.data = c.Since(dataStart)
	return msg, true
}

// parseHeaders consumes header lines up to and including the blank line that
// ends the block. A malformed line ends the block early with a warning; the
// headers read so far are kept.
func (p *parser) parseHeaders(msg *Message) {
	c := p.c
	for !c.Newline() {
		if c.AtEnd() || !p.parseHeader(msg) {
			p.rep.Warnf("message %s: header block ends prematurely", msg.tag)
			return
		}
	}
}

// parseHeader parses one possibly folded header line. It fails, restoring
// the cursor, when the line is actually the next message's "From " separator.
// A ">From " pseudo-header is accepted with a warning.
func (p *parser) parseHeader(msg *Message) bool {
	c := p.c
	lineStart := c.Mark()

	if b, ok := c.Peek(); ok && (b < 33 || b > 126) {
		p.rep.Warnf("message %s: header line starts with illegal character 0x%02x",
			msg.tag, b)
	}

	var key span.Span
	gotColon := false
	for {
		b, ok := c.Next()
		if !ok {
			key = c.Since(lineStart)
			break
		}
		if b == ':' {
			gotColon = true
			key = c.Since(lineStart)
			break
		}
		if b == ' ' {
			k := c.Since(lineStart)
			if k.EqualString(envelopePrefix, false) {
				c.MoveTo(lineStart)
				p.rep.Warnf("message %s: header block runs into the next message", msg.tag)
				return false
			}
			if k.EqualString(quotedEnvelopeKey, false) {
				p.rep.Warnf("message %s: quoted %q line in headers", msg.tag, quotedEnvelopeKey)
				key = k
				break
			}
		}
	}
	if gotColon {
		key = key.Slice(0, key.Len()-1).TrimSpace()
	}
	c.Spaces()

	valStart := c.Mark()
	valEnd := valStart
	for {
		if _, ok := c.UntilNewline(); !ok {
			c.UntilEnd()
			valEnd = c.Position()
			break
		}
		valEnd = c.Position()
		c.Newline()
		b, ok := c.Peek()
		if !ok || (b != ' ' && b != '\t') {
			break
		}
	}

	msg.headers.list = append(msg.headers.list, &Header{
		Key:   key,
		Value: span.Make(c.Buffer(), valStart, valEnd-valStart).TrimSpace(),
		raw:   c.Since(lineStart),
	})
	return true
}

// endOfMessage advances the cursor from the start of the body to its end.
// The strategies are tried in a fixed order:
//
//  1. jump by the declared Content-Length and accept when that lands on the
//     end of the mailbox or on a separator before a "From " line;
//  2. discount known spurious header fragments left behind by mail servers
//     that miscount "From " quoting (tryBugWorkaround);
//  3. land past the terminal MIME boundary of a multipart message;
//  4. rescan for the next line matching the full envelope grammar;
//  5. take everything to the end of the mailbox.
func (p *parser) endOfMessage(msg *Message, bodyStart int) {
	c := p.c

	if n := msg.ContentLength(); n >= 0 && c.Move(n) {
		endPos := c.Position()
		// The declared length sometimes includes the separator; when the
		// jump lands exactly on the next "From " back up onto it.
		if b, ok := c.Peek(); ok && b == 'F' {
			c.Move(-1)
			if b, ok = c.Peek(); !ok || b != '\n' {
				c.Move(1)
			}
		}
		if c.AtEnd() || (c.Newline() && (c.AtEnd() || c.Literal(envelopePrefix, false))) {
			c.MoveTo(endPos)
			return
		}
		c.MoveTo(endPos)
		if p.tryBugWorkaround(msg, n) {
			return
		}
		c.MoveTo(bodyStart)
	}

	if boundary, ok := msg.MultipartBoundary(); ok {
		if p.pastTerminalBoundary(boundary) {
			return
		}
		c.MoveTo(bodyStart)
	}

	// Try the body's first line as an envelope, then any later line that is
	// preceded by exactly one separator. The accepted end sits before that
	// separator so it can serve as the message gap.
	pos := c.Position()
	for {
		probe := c.Mark()
		if skipEnvelope(c) {
			c.MoveTo(pos)
			return
		}
		c.MoveTo(probe)
		if !p.seekEnvelopePrefix(1) {
			break
		}
		pos = c.Position()
		if !c.Newline() {
			break
		}
	}

	// Everything left is body. The final terminator stays out of it so it
	// can serve as the separator when another message follows.
	c.UntilEnd()
	c.BackupNewline()
}

// pastTerminalBoundary moves past "--boundary--" and its terminator. The
// closing boundary must start its own line. The cursor is left wherever the
// match attempt died on failure; callers restore it.
func (p *parser) pastTerminalBoundary(boundary string) bool {
	c := p.c
	closing := "--" + boundary + "--"
	if _, ok := c.UntilString(closing); !ok {
		return false
	}
	if !c.Move(-1) || !c.Newline() {
		return false
	}
	return c.Literal(closing, false) && c.Newline()
}

// seekEnvelopePrefix advances to the next "From " that has at least newlines
// line terminators directly before it, leaving the cursor before that many
// of them. The cursor is restored when no such position exists.
func (p *parser) seekEnvelopePrefix(newlines int) bool {
	c := p.c
	saved := c.Mark()
	for {
		if _, ok := c.UntilString(envelopePrefix); !ok {
			c.MoveTo(saved)
			return false
		}
		match := c.Position()
		backed := 0
		for backed < newlines && c.BackupNewline() {
			backed++
		}
		if backed == newlines && c.Position() > saved {
			return true
		}
		c.MoveTo(match + len(envelopePrefix))
	}
}

func excerpt(s span.Span, max int) string {
	if s.Len() > max {
		s = s.Slice(0, max)
	}
	return s.String()
}
