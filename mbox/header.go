// Package mbox implements parsing, validation, repair, and rewriting of
// mbox-format mailbox files. Messages are segmented out of a single backing
// buffer; every header and body is a zero-copy view into it.
package mbox

import "github.com/mailtools/mboxfsck/span"

// Well-known header names. Lookups are case-insensitive; these are the
// canonical spellings used when a header is (re)created.
const (
	HdrBcc            = "Bcc"
	HdrCc             = "Cc"
	HdrContentLength  = "Content-Length"
	HdrContentType    = "Content-Type"
	HdrDate           = "Date"
	HdrFrom           = "From"
	HdrMessageID      = "Message-ID"
	HdrReceived       = "Received"
	HdrReturnPath     = "Return-Path"
	HdrSender         = "Sender"
	HdrStatus         = "Status"
	HdrSubject        = "Subject"
	HdrTo             = "To"
	HdrXIMAP          = "X-IMAP"
	HdrXIMAPBase      = "X-IMAPBase"
	HdrXKeywords      = "X-Keywords"
	HdrXMessageID     = "X-Message-ID"
	HdrXUID           = "X-UID"
	envelopePrefix    = "From "
	quotedEnvelopeKey = ">From "
)

// Header is one key/value record. When the raw original line is present it is
// emitted verbatim on write; setting a new value clears it so the header is
// reconstructed as "key: value" on the next serialize.
type Header struct {
	Key   span.Span
	Value span.Span
	raw   span.Span
}

// Raw returns the verbatim original line, including its terminator, or a zero
// span when the header has been rewritten.
func (h *Header) Raw() span.Span { return h.raw }

func (h *Header) isQuotedEnvelope() bool {
	return h.Key.EqualString(quotedEnvelopeKey, false)
}

// Headers is the ordered header list of exactly one message. Duplicate keys
// are permitted and insertion order is preserved.
type Headers struct {
	list []*Header
	msg  *Message
}

func (hs *Headers) Len() int { return len(hs.list) }

// All exposes the records in order. Callers must not reorder the slice.
func (hs *Headers) All() []*Header { return hs.list }

// Find returns the first header whose key matches, ignoring case.
func (hs *Headers) Find(key string) *Header {
	for _, h := range hs.list {
		if h.Key.EqualString(key, true) {
			return h
		}
	}
	return nil
}

// FindLast returns the last header whose key matches, ignoring case.
func (hs *Headers) FindLast(key string) *Header {
	for i := len(hs.list) - 1; i >= 0; i-- {
		if hs.list[i].Key.EqualString(key, true) {
			return hs.list[i]
		}
	}
	return nil
}

// Get returns the first value for key. The ok result distinguishes a missing
// header from one with an empty value.
func (hs *Headers) Get(key string) (span.Span, bool) {
	if h := hs.Find(key); h != nil {
		return h.Value, true
	}
	return span.Span{}, false
}

// Set replaces the first header matching key, or appends a new one. The raw
// line is cleared so the header serializes as "key: value".
func (hs *Headers) Set(key string, value span.Span) {
	if h := hs.Find(key); h != nil {
		h.Value = value
		h.raw = span.Span{}
	} else {
		hs.list = append(hs.list, &Header{Key: span.FromString(key), Value: value})
	}
	hs.markDirty()
}

// Add appends a header without touching existing records with the same key.
func (hs *Headers) Add(key string, value span.Span) {
	hs.list = append(hs.list, &Header{Key: span.FromString(key), Value: value})
	hs.markDirty()
}

// Delete removes the first header matching key, or every one when all is set.
// It reports whether anything was removed.
func (hs *Headers) Delete(key string, all bool) bool {
	out := hs.list[:0]
	removed := false
	for _, h := range hs.list {
		if (!removed || all) && h.Key.EqualString(key, true) {
			removed = true
			continue
		}
		out = append(out, h)
	}
	hs.list = out
	if removed {
		hs.markDirty()
	}
	return removed
}

func (hs *Headers) markDirty() {
	if hs.msg != nil {
		hs.msg.SetDirty(true)
	}
}
