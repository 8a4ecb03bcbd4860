package mbox

import (
	"fmt"
	"time"

	"github.com/mailtools/mboxfsck/span"
)

// Stamp is the ctime-style date carried by a message envelope, e.g.
// "Wed May 15 11:37:44 PDT 1996". Seconds and the timezone are optional in
// the input; Zone is empty when none was given.
type Stamp struct {
	Weekday time.Weekday
	Month   time.Month
	Day     int
	Hour    int
	Min     int
	Sec     int
	Year    int
	Zone    string
}

// IsZero reports whether the stamp was never parsed or set.
func (s Stamp) IsZero() bool { return s.Year == 0 }

// String renders the stamp in ctime form, the shape used on envelope lines.
func (s Stamp) String() string {
	if s.Zone != "" {
		return fmt.Sprintf("%s %s %2d %02d:%02d:%02d %s %04d",
			weekdayNames[s.Weekday], monthNames[s.Month-1], s.Day,
			s.Hour, s.Min, s.Sec, s.Zone, s.Year)
	}
	return fmt.Sprintf("%s %s %2d %02d:%02d:%02d %04d",
		weekdayNames[s.Weekday], monthNames[s.Month-1], s.Day,
		s.Hour, s.Min, s.Sec, s.Year)
}

// Time converts the stamp to a time.Time. Named zones are not resolved; the
// result is in UTC unless the zone is a numeric offset.
func (s Stamp) Time() time.Time {
	loc := time.UTC
	if len(s.Zone) == 5 && (s.Zone[0] == '+' || s.Zone[0] == '-') {
		if t, err := time.Parse("-0700", s.Zone); err == nil {
			loc = t.Location()
		}
	}
	return time.Date(s.Year, s.Month, s.Day, s.Hour, s.Min, s.Sec, 0, loc)
}

// RFC822 renders the stamp as an RFC 822 date suitable for a Date header.
func (s Stamp) RFC822() string {
	zone := s.Zone
	if zone == "" {
		zone = "-0000"
	}
	return fmt.Sprintf("%s, %d %s %04d %02d:%02d:%02d %s",
		weekdayNames[s.Weekday], s.Day, monthNames[s.Month-1], s.Year,
		s.Hour, s.Min, s.Sec, zone)
}

var (
	weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	monthNames   = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// Envelope is a message's "From " separator line. raw holds the original
// bytes including the terminator; a zero raw means the envelope was
// synthesized and must be reconstructed on write.
type Envelope struct {
	Sender span.Span
	Date   Stamp
	raw    span.Span
}

// Raw returns the verbatim envelope line, or a zero span for a synthesized
// envelope.
func (e *Envelope) Raw() span.Span { return e.raw }

// Line renders the envelope as it would be written, without the terminator.
func (e *Envelope) Line() string {
	return envelopePrefix + e.Sender.String() + " " + e.Date.String()
}

func keyword(c *span.Cursor, names []string) int {
	for i, name := range names {
		if c.Literal(name, true) {
			return i
		}
	}
	return -1
}

// twoDigits reads a two-character decimal field. A leading space counts as
// zero, matching how ctime pads the day of month. The cursor does not move
// on failure.
func twoDigits(c *span.Cursor) (int, bool) {
	mark := c.Mark()
	b1, ok := c.Next()
	if !ok {
		return 0, false
	}
	if b1 == ' ' {
		b1 = '0'
	}
	b2, ok := c.Next()
	if !ok || b1 < '0' || b1 > '9' || b2 < '0' || b2 > '9' {
		c.MoveTo(mark)
		return 0, false
	}
	return int(b1-'0')*10 + int(b2-'0'), true
}

func isZoneByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' ||
		b >= '0' && b <= '9' || b == '+' || b == '-'
}

// zoneToken consumes a run of timezone characters (letters, digits, sign).
// It fails without moving when the next byte does not start a token.
func zoneToken(c *span.Cursor) (span.Span, bool) {
	b, ok := c.Peek()
	if !ok || !isZoneByte(b) {
		return span.Span{}, false
	}
	start := c.Mark()
	for {
		b, ok = c.Peek()
		if !ok || !isZoneByte(b) {
			break
		}
		c.Move(1)
	}
	return c.Since(start), true
}

// parseStamp parses the ctime date grammar:
//
//	Www Mmm dd hh:mm[:ss] [zone] yy[yy] [zone]
//
// The weekday and month are keyword matches, numeric fields are exactly two
// digits with a space accepted for a leading zero, and the timezone may sit
// either before or after the year. The cursor is restored on failure.
func parseStamp(c *span.Cursor) (Stamp, bool) {
	mark := c.Mark()
	fail := func() (Stamp, bool) {
		c.MoveTo(mark)
		return Stamp{}, false
	}

	var s Stamp
	wd := keyword(c, weekdayNames[:])
	if wd < 0 || !c.Byte(' ') {
		return fail()
	}
	s.Weekday = time.Weekday(wd)

	mon := keyword(c, monthNames[:])
	if mon < 0 || !c.Byte(' ') {
		return fail()
	}
	s.Month = time.Month(mon + 1)

	var ok bool
	if s.Day, ok = twoDigits(c); !ok || !c.Byte(' ') {
		return fail()
	}
	if s.Hour, ok = twoDigits(c); !ok || !c.Byte(':') {
		return fail()
	}
	if s.Min, ok = twoDigits(c); !ok {
		return fail()
	}
	if c.Byte(':') {
		if s.Sec, ok = twoDigits(c); !ok {
			return fail()
		}
	}
	if !c.Byte(' ') {
		return fail()
	}

	gotZone := false
	if b, peeked := c.Peek(); peeked && (b < '0' || b > '9') && b != ' ' {
		zone, zok := zoneToken(c)
		if !zok || !c.Byte(' ') {
			return fail()
		}
		s.Zone = zone.String()
		gotZone = true
	}

	y1, ok := twoDigits(c)
	if !ok {
		return fail()
	}
	if y2, yok := twoDigits(c); yok {
		s.Year = y1*100 + y2
	} else if y1 >= 70 {
		s.Year = 1900 + y1
	} else {
		s.Year = 2000 + y1
	}

	if !gotZone && c.Byte(' ') {
		if zone, zok := zoneToken(c); zok {
			s.Zone = zone.String()
		} else {
			c.Move(-1)
		}
	}
	return s, true
}

// parseEnvelope parses a full "From sender date" separator line, terminator
// included. Trailing bytes between the date and the terminator are ignored;
// some delivery agents append remote-host notes there. The cursor is restored
// on failure.
func parseEnvelope(c *span.Cursor) (*Envelope, bool) {
	mark := c.Mark()
	fail := func() (*Envelope, bool) {
		c.MoveTo(mark)
		return nil, false
	}

	if !c.Literal(envelopePrefix, false) {
		return fail()
	}
	senderStart := c.Mark()
	for {
		b, ok := c.Peek()
		if !ok || b == '\n' || b == '\r' {
			return fail()
		}
		if b == ' ' {
			break
		}
		c.Move(1)
	}
	sender := c.Since(senderStart)
	if !c.Spaces() {
		return fail()
	}
	date, ok := parseStamp(c)
	if !ok {
		return fail()
	}
	c.UntilNewline()
	if !c.Newline() {
		return fail()
	}
	return &Envelope{Sender: sender, Date: date, raw: c.Since(mark)}, true
}

// skipEnvelope matches the full envelope grammar without building a result.
func skipEnvelope(c *span.Cursor) bool {
	_, ok := parseEnvelope(c)
	return ok
}
