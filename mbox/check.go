package mbox

import (
	"fmt"
	"strings"

	"github.com/mailtools/mboxfsck/report"
	"github.com/mailtools/mboxfsck/span"
)

// CheckOptions controls validation and repair of a mailbox.
type CheckOptions struct {
	// Repair applies fixes instead of only reporting problems.
	Repair bool
	// Confirm is asked before each individual fix when set; a nil Confirm
	// with Repair applies every fix. The prompt names the message and the
	// problem.
	Confirm func(prompt string) bool
}

func (opts CheckOptions) approve(rep *report.Reporter, prompt string) bool {
	if !opts.Repair {
		return false
	}
	if opts.Confirm == nil {
		return true
	}
	return opts.Confirm(prompt)
}

// Check validates every surviving message and, when requested, repairs what
// it can: bodies corrupted by the quoting bug, wrong or missing
// Content-Length headers, and missing Message-IDs. Strict mode adds the
// pickier header checks. It returns the number of problems found.
func (box *Mailbox) Check(rep *report.Reporter, opts CheckOptions) int {
	problems := 0
	for _, msg := range box.msgs {
		if msg.deleted {
			continue
		}
		problems += box.checkMessage(rep, opts, msg)
	}
	return problems
}

func (box *Mailbox) checkMessage(rep *report.Reporter, opts CheckOptions, msg *Message) int {
	problems := 0

	if msg.bug != 0 {
		problems++
		rep.Warnf("message %s: body carries spurious %s fragments", msg.tag, msg.bug)
		if opts.approve(rep, fmt.Sprintf("repair corrupted body of message %s", msg.tag)) {
			msg.RepairBug()
			rep.CountRepair()
		}
	} else if n := msg.ContentLength(); n != msg.body.Len() {
		_, present := msg.headers.Get(HdrContentLength)
		if present || rep.Strict() {
			problems++
			if present {
				rep.Warnf("message %s: Content-Length is %d, body is %d bytes", msg.tag, n, msg.body.Len())
			} else {
				rep.Warnf("message %s: no Content-Length header", msg.tag)
			}
			if opts.approve(rep, fmt.Sprintf("set Content-Length of message %s to %d", msg.tag, msg.body.Len())) {
				msg.headers.Set(HdrContentLength, span.FromString(fmt.Sprintf("%d", msg.body.Len())))
				rep.CountRepair()
			}
		}
	}

	if id, ok := msg.ID(); !ok || id.IsEmpty() {
		problems++
		if v, okx := msg.headers.Get(HdrXMessageID); okx && !v.IsEmpty() {
			rep.Warnf("message %s: Message-ID missing, but X-Message-ID present", msg.tag)
			if opts.approve(rep, fmt.Sprintf("restore Message-ID of message %s from X-Message-ID", msg.tag)) {
				msg.headers.Set(HdrMessageID, v)
				msg.invalidateID()
				rep.CountRepair()
			}
		} else {
			rep.Warnf("message %s: no Message-ID header", msg.tag)
			if opts.approve(rep, fmt.Sprintf("synthesize a Message-ID for message %s", msg.tag)) {
				msg.headers.Set(HdrMessageID, span.FromString(msg.SynthesizeID()))
				msg.invalidateID()
				rep.CountRepair()
			}
		}
	}

	if rep.Strict() {
		problems += box.checkStrict(rep, opts, msg)
	}
	return problems
}

// checkStrict runs the fussier checks: quoted envelope pseudo headers,
// recoverable From and Date headers, and control characters in header lines.
func (box *Mailbox) checkStrict(rep *report.Reporter, opts CheckOptions, msg *Message) int {
	problems := 0

	for msg.headers.Find(quotedEnvelopeKey) != nil {
		problems++
		rep.Warnf("message %s: %q pseudo header", msg.tag, quotedEnvelopeKey)
		if !opts.approve(rep, fmt.Sprintf("remove %q header from message %s", quotedEnvelopeKey, msg.tag)) {
			break
		}
		msg.headers.Delete(quotedEnvelopeKey, false)
		rep.CountRepair()
	}

	if _, ok := msg.headers.Get(HdrFrom); !ok {
		problems++
		rep.Warnf("message %s: no From header", msg.tag)
		if from, src := recoverFrom(msg); src != "" &&
			opts.approve(rep, fmt.Sprintf("restore From of message %s from %s", msg.tag, src)) {
			msg.headers.Set(HdrFrom, from)
			rep.CountRepair()
		}
	}

	if _, ok := msg.headers.Get(HdrDate); !ok {
		problems++
		rep.Warnf("message %s: no Date header", msg.tag)
		if date, src := recoverDate(msg); src != "" &&
			opts.approve(rep, fmt.Sprintf("restore Date of message %s from %s", msg.tag, src)) {
			msg.headers.Set(HdrDate, date)
			rep.CountRepair()
		}
	}

	for _, h := range msg.headers.All() {
		if raw := h.Raw(); !raw.IsZero() && hasControlBytes(raw) {
			problems++
			rep.Warnf("message %s: control characters in %s header", msg.tag, h.Key)
		}
	}
	return problems
}

// recoverFrom finds a substitute for a missing From header, preferring
// header copies over the envelope sender.
func recoverFrom(msg *Message) (span.Span, string) {
	for _, key := range []string{"X-From", HdrSender, HdrReturnPath} {
		if v, ok := msg.headers.Get(key); ok && !v.IsEmpty() {
			return v, key
		}
	}
	if msg.env != nil && !msg.env.Sender.IsEmpty() {
		return msg.env.Sender, "the envelope sender"
	}
	return span.Span{}, ""
}

// recoverDate finds a substitute for a missing Date header: an X-Date copy,
// the delivery date of the last Received header, or the envelope date.
func recoverDate(msg *Message) (span.Span, string) {
	if v, ok := msg.headers.Get("X-Date"); ok && !v.IsEmpty() {
		return v, "X-Date"
	}
	if h := msg.headers.FindLast(HdrReceived); h != nil {
		if i := strings.LastIndexByte(h.Value.String(), ';'); i >= 0 {
			if v := h.Value.Slice(i+1, h.Value.Len()).TrimSpace(); !v.IsEmpty() {
				return v, "the Received trail"
			}
		}
	}
	if msg.env != nil && !msg.env.Date.IsZero() {
		return span.FromString(msg.env.Date.RFC822()), "the envelope date"
	}
	return span.Span{}, ""
}

func hasControlBytes(s span.Span) bool {
	for _, b := range s.Bytes() {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			return true
		}
	}
	return false
}
