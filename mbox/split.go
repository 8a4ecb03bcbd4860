package mbox

import (
	"errors"

	"github.com/mailtools/mboxfsck/report"
	"github.com/mailtools/mboxfsck/span"
)

// Split looks for a joined-together message: a body containing a blank line
// followed by a valid envelope. When found, the body is cut before the
// separator and the remainder is parsed as messages inserted right after
// msg. confirm, when set, is shown the candidate envelope line and may veto
// the cut. Returns the number of messages split off.
func (box *Mailbox) Split(rep *report.Reporter, msg *Message, confirm func(line string) bool) int {
	body := span.NewCursor(span.NewBorrowed(msg.body.Bytes()))
	p := &parser{c: body, rep: rep}

	for p.seekEnvelopePrefix(2) {
		if !body.Newline() || !body.Newline() {
			break
		}
		pos := body.Position()
		probe := body.Mark()
		env, ok := parseEnvelope(body)
		body.MoveTo(probe)
		if !ok {
			continue
		}
		if confirm != nil && !confirm(env.Line()) {
			continue
		}

		msg.SetBody(msg.body.Slice(0, pos-1))
		var split []*Message
		for !body.AtEnd() {
			nm, parsed := p.parseMessage(box, false)
			if !parsed {
				break
			}
			nm.tag = nm.tag + " <split from " + msg.tag + ">"
			split = append(split, nm)
			body.Newline()
		}
		box.insertAfter(msg, split)
		for _, nm := range split {
			nm.SetDirty(true)
		}
		rep.Notef("message %s: split off %d message(s)", msg.tag, len(split))
		return len(split)
	}
	return 0
}

// SplitAll runs Split over every message present when the call starts.
// The walk is over a snapshot of the list because each split inserts new
// messages behind the host and renumbers everything after it; messages
// split off are already fully cut apart and are not examined again.
// Returns the total number of messages split off.
func (box *Mailbox) SplitAll(rep *report.Reporter, confirm func(line string) bool) int {
	targets := append([]*Message(nil), box.msgs...)
	total := 0
	for _, msg := range targets {
		if msg.deleted {
			continue
		}
		total += box.Split(rep, msg, confirm)
	}
	return total
}

// Join appends the raw data of b to a's body, separated by one blank line,
// and deletes b. Joining a message to itself is rejected.
func (box *Mailbox) Join(rep *report.Reporter, a, b *Message) error {
	if a == b {
		return errors.New("cannot join a message to itself")
	}
	if a.box != box || b.box != box {
		return errors.New("messages belong to another mailbox")
	}
	a.SetBody(span.Join([]span.Span{a.body, span.FromString("\n"), b.data}))
	b.SetDeleted(true)
	rep.Notef("message %s joined into %s", b.tag, a.tag)
	return nil
}

// ParseOne reads data as exactly one message: envelope, headers, and
// everything after the header block as the body. This is how an
// externally edited message file is read back.
func ParseOne(data []byte, rep *report.Reporter) (*Message, error) {
	c := span.NewCursor(span.NewOwned(data))
	p := &parser{c: c, rep: rep}
	box := &Mailbox{name: "(edited)", rep: rep}
	msg, ok := p.parseMessage(box, true)
	if !ok {
		return nil, errors.New("no message found in edited file")
	}
	msg.box = nil
	msg.num = 0
	msg.tag = ""
	msg.SetDirty(true)
	return msg, nil
}
