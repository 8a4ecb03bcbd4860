package mbox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/mailtools/mboxfsck/span"
)

// BugPattern is a bitmask naming which spurious fragments a corrupted body
// carries. It is set during segmentation when the body only makes sense after
// discounting duplicated header lines, and cleared by Repair.
type BugPattern uint8

const (
	// BugXUIDKeys marks spurious X-UID and X-Keywords header lines.
	BugXUIDKeys BugPattern = 1 << iota
	// BugContentLength marks spurious Content-Length header lines.
	BugContentLength
	// BugStatus marks spurious Status header lines.
	BugStatus
	// BugNewline marks a spurious blank line after an embedded header block.
	BugNewline
)

func (b BugPattern) String() string {
	if b == 0 {
		return "none"
	}
	var parts []string
	if b&BugXUIDKeys != 0 {
		parts = append(parts, "uid-keywords")
	}
	if b&BugContentLength != 0 {
		parts = append(parts, "content-length")
	}
	if b&BugStatus != 0 {
		parts = append(parts, "status")
	}
	if b&BugNewline != 0 {
		parts = append(parts, "newline")
	}
	return strings.Join(parts, "+")
}

// Message is one segmented message. All spans reference the mailbox buffer
// until a mutator replaces them with owned data.
type Message struct {
	box     *Mailbox
	num     int
	tag     string
	env     *Envelope
	headers *Headers
	body    span.Span
	data    span.Span

	cachedID    span.Span
	cachedIDSet bool
	hasID       bool

	bug     BugPattern
	deleted bool
	dirty   bool
}

func newMessage(box *Mailbox, num, offset int) *Message {
	msg := &Message{box: box, num: num, tag: fmt.Sprintf("#%d {@%d}", num, offset)}
	msg.headers = &Headers{msg: msg}
	return msg
}

// Num is the 1-based position within the mailbox, 0 for an unlinked message.
func (m *Message) Num() int { return m.num }

// Tag identifies the message in diagnostics by its original number and parse
// offset. It is stable across renumbering.
func (m *Message) Tag() string { return m.tag }

func (m *Message) Mailbox() *Mailbox   { return m.box }
func (m *Message) Envelope() *Envelope { return m.env }
func (m *Message) Headers() *Headers   { return m.headers }
func (m *Message) Body() span.Span     { return m.body }

// Data is the raw range the message was parsed from, without the separator
// that followed it. It is not updated by mutators.
func (m *Message) Data() span.Span { return m.data }

// Bug returns the corruption pattern detected during segmentation.
func (m *Message) Bug() BugPattern { return m.bug }

func (m *Message) Deleted() bool { return m.deleted }

// SetDeleted marks the message for omission on the next write.
func (m *Message) SetDeleted(del bool) {
	if m.deleted == del {
		return
	}
	m.deleted = del
	m.SetDirty(true)
}

func (m *Message) Dirty() bool { return m.dirty }

// SetDirty marks the message modified and propagates to the mailbox.
func (m *Message) SetDirty(dirty bool) {
	m.dirty = dirty
	if dirty && m.box != nil {
		m.box.dirty = true
	}
}

// SetBody replaces the body and rewrites Content-Length to match.
func (m *Message) SetBody(body span.Span) {
	m.body = body
	m.headers.Set(HdrContentLength, span.FromString(strconv.Itoa(body.Len())))
	m.SetDirty(true)
}

// ID returns the first Message-ID value. The lookup result is cached; the
// ok result is false when the header is absent.
func (m *Message) ID() (span.Span, bool) {
	if !m.cachedIDSet {
		m.cachedID, m.hasID = m.headers.Get(HdrMessageID)
		m.cachedIDSet = true
	}
	return m.cachedID, m.hasID
}

func (m *Message) invalidateID() { m.cachedIDSet = false }

// SynthesizeID derives a deterministic Message-ID from the identifying
// headers and the body, for messages that lack one.
func (m *Message) SynthesizeID() string {
	d := sha256.New()
	for _, key := range checkKeys {
		if h := m.headers.Find(key); h != nil {
			d.Write(h.Value.Bytes())
			d.Write([]byte{'\n'})
		}
	}
	d.Write(m.body.Bytes())
	sum := d.Sum(nil)
	return "<" + hex.EncodeToString(sum[:16]) + "@mboxfsck>"
}

// ContentLength returns the declared Content-Length, or -1 when the header
// is absent or not a number.
func (m *Message) ContentLength() int {
	v, ok := m.headers.Get(HdrContentLength)
	if !ok {
		return -1
	}
	return v.Int(-1)
}

// MultipartBoundary returns the MIME boundary parameter when the message
// declares a multipart Content-Type.
func (m *Message) MultipartBoundary() (string, bool) {
	ct, ok := m.headers.Get(HdrContentType)
	if !ok || !ct.HasPrefix("multipart", true) {
		return "", false
	}
	return mimeParam(ct.String(), "boundary")
}

// mimeParam extracts a parameter from a MIME header value, unquoting as
// needed.
func mimeParam(value, name string) (string, bool) {
	rest := value
	for {
		i := strings.IndexByte(rest, ';')
		if i < 0 {
			return "", false
		}
		rest = strings.TrimLeft(rest[i+1:], " \t\r\n")
		if !hasFoldPrefix(rest, name) {
			continue
		}
		after := strings.TrimLeft(rest[len(name):], " \t")
		if !strings.HasPrefix(after, "=") {
			continue
		}
		after = strings.TrimLeft(after[1:], " \t")
		if strings.HasPrefix(after, `"`) {
			after = after[1:]
			if j := strings.IndexByte(after, '"'); j >= 0 {
				return after[:j], true
			}
			return after, true
		}
		end := strings.IndexFunc(after, func(r rune) bool {
			return r == ';' || r == ' ' || r == '\t' || r == '\r' || r == '\n'
		})
		if end < 0 {
			return after, true
		}
		return after[:end], true
	}
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// checkKeys are the headers compared when deciding whether two messages with
// the same Message-ID are true duplicates, and the inputs to SynthesizeID.
var checkKeys = []string{
	HdrFrom, HdrTo, HdrCc, HdrBcc, HdrSubject, HdrDate,
	"Resent-From", "Resent-To", "Resent-Cc", "Resent-Bcc",
	"Resent-Subject", "Resent-Date",
	"X-From", "X-To", "X-Cc", "X-Bcc", "X-Subject", "X-Date",
}
