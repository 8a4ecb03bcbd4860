package mbox

import (
	"bufio"
	"io"
)

// Serialize writes every surviving message to w, each followed by one
// separator line. With sanitize set, mailbox-state pseudo headers are first
// moved onto the first surviving message.
func (box *Mailbox) Serialize(w io.Writer, sanitize bool) error {
	if sanitize {
		box.sanitize()
	}
	bw := bufio.NewWriter(w)
	for _, msg := range box.msgs {
		if msg.deleted {
			continue
		}
		writeMessage(bw, msg)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteMessage writes one message in mbox form, without a trailing
// separator.
func WriteMessage(w io.Writer, msg *Message) error {
	bw := bufio.NewWriter(w)
	writeMessage(bw, msg)
	return bw.Flush()
}

func writeMessage(bw *bufio.Writer, msg *Message) {
	if msg.env != nil {
		if raw := msg.env.raw; !raw.IsZero() {
			bw.Write(raw.Bytes())
		} else {
			bw.WriteString(msg.env.Line())
			bw.WriteByte('\n')
		}
	}
	for _, h := range msg.headers.All() {
		if raw := h.raw; !raw.IsZero() {
			bw.Write(raw.Bytes())
			continue
		}
		bw.Write(h.Key.Bytes())
		if !h.isQuotedEnvelope() {
			bw.WriteString(": ")
		}
		bw.Write(h.Value.Bytes())
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')
	bw.Write(msg.body.Bytes())
}

// sanitize keeps UW-IMAP mailbox state alive across a rewrite: the X-IMAP
// and X-IMAPBase pseudo headers belong on the first message of the mailbox,
// so whenever their holder is deleted or no longer first the state value is
// carried over to the first message that survives.
func (box *Mailbox) sanitize() {
	var first, holder *Message
	for _, msg := range box.msgs {
		if first == nil && !msg.deleted {
			first = msg
		}
		if holder == nil {
			if _, ok := msg.headers.Get(HdrXIMAPBase); ok {
				holder = msg
			} else if _, ok := msg.headers.Get(HdrXIMAP); ok {
				holder = msg
			}
		}
	}
	if holder == nil || first == nil || holder == first {
		return
	}
	value, ok := holder.headers.Get(HdrXIMAPBase)
	if !ok {
		value, _ = holder.headers.Get(HdrXIMAP)
	}
	first.headers.Set(HdrXIMAPBase, value)
	holder.headers.Delete(HdrXIMAP, true)
	holder.headers.Delete(HdrXIMAPBase, true)
	box.rep.Verbosef("mailbox %s: moved mailbox state headers from %s to %s",
		box.name, holder.tag, first.tag)
}
