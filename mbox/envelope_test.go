package mbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailtools/mboxfsck/span"
)

func TestParseStamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
		want  Stamp
	}{
		{
			name:  "full with zone before year",
			input: "Wed May 15 11:37:44 PDT 1996",
			ok:    true,
			want: Stamp{Weekday: time.Wednesday, Month: time.May, Day: 15,
				Hour: 11, Min: 37, Sec: 44, Year: 1996, Zone: "PDT"},
		},
		{
			name:  "space-padded day",
			input: "Mon Apr  1 12:34:56 2008",
			ok:    true,
			want: Stamp{Weekday: time.Monday, Month: time.April, Day: 1,
				Hour: 12, Min: 34, Sec: 56, Year: 2008},
		},
		{
			name:  "no seconds",
			input: "Wed May 15 11:37 PDT 1996",
			ok:    true,
			want: Stamp{Weekday: time.Wednesday, Month: time.May, Day: 15,
				Hour: 11, Min: 37, Year: 1996, Zone: "PDT"},
		},
		{
			name:  "zone after year",
			input: "Wed May 15 11:37:44 1996 PST",
			ok:    true,
			want: Stamp{Weekday: time.Wednesday, Month: time.May, Day: 15,
				Hour: 11, Min: 37, Sec: 44, Year: 1996, Zone: "PST"},
		},
		{
			name:  "numeric zone",
			input: "Thu Jan  2 03:04:05 +0200 2020",
			ok:    true,
			want: Stamp{Weekday: time.Thursday, Month: time.January, Day: 2,
				Hour: 3, Min: 4, Sec: 5, Year: 2020, Zone: "+0200"},
		},
		{
			name:  "two-digit year",
			input: "Wed May 15 11:37:44 96",
			ok:    true,
			want: Stamp{Weekday: time.Wednesday, Month: time.May, Day: 15,
				Hour: 11, Min: 37, Sec: 44, Year: 1996},
		},
		{name: "missing weekday", input: "Apr 1 2008", ok: false},
		{name: "missing year", input: "Wed May 15 11:37:44", ok: false},
		{name: "not a date", input: "anything else", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := span.NewCursor(span.NewStatic(tt.input))
			got, ok := parseStamp(c)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, 0, c.Position(), "failed parse must not move")
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		ok     bool
		sender string
		year   int
	}{
		{
			name:   "plain",
			input:  "From alice@example.com Wed May 15 11:37:44 PDT 1996\nFrom: x\n",
			ok:     true,
			sender: "alice@example.com",
			year:   1996,
		},
		{
			name:   "trailing garbage",
			input:  "From bob Wed May 15 11:37:44 1996 remote from uunet\n",
			ok:     true,
			sender: "bob",
			year:   1996,
		},
		{
			name:   "empty sender",
			input:  "From  Wed May 15 11:37:44 1996\n",
			ok:     true,
			sender: "",
			year:   1996,
		},
		{name: "no date", input: "From bob\nbody\n", ok: false},
		{name: "lowercase from", input: "from bob Wed May 15 11:37:44 1996\n", ok: false},
		{name: "missing terminator", input: "From bob Wed May 15 11:37:44 1996", ok: false},
		{name: "header line", input: "From: bob@example.com\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := span.NewCursor(span.NewStatic(tt.input))
			env, ok := parseEnvelope(c)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, 0, c.Position(), "failed parse must not move")
				return
			}
			assert.Equal(t, tt.sender, env.Sender.String())
			assert.Equal(t, tt.year, env.Date.Year)
			assert.False(t, env.Raw().IsZero())
		})
	}
}

func TestEnvelopeLineRoundTrip(t *testing.T) {
	input := "From alice Wed May 15 11:37:44 PDT 1996\n"
	c := span.NewCursor(span.NewStatic(input))
	env, ok := parseEnvelope(c)
	require.True(t, ok)
	assert.Equal(t, "From alice Wed May 15 11:37:44 PDT 1996", env.Line())
}

func TestStampRFC822(t *testing.T) {
	s := Stamp{Weekday: time.Wednesday, Month: time.May, Day: 15,
		Hour: 11, Min: 37, Sec: 44, Year: 1996, Zone: "PDT"}
	assert.Equal(t, "Wed, 15 May 1996 11:37:44 PDT", s.RFC822())
}
