package mbox

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailtools/mboxfsck/report"
)

func strictReporter() *report.Reporter {
	return report.New(slog.New(slog.NewTextHandler(io.Discard, nil)), report.Options{Strict: true})
}

func TestCheckRepairsContentLength(t *testing.T) {
	data := "From alice Wed May 15 11:37:44 1996\n" +
		"Subject: short count\n" +
		"Message-ID: <1@x>\n" +
		"Content-Length: 3\n" +
		"\n" +
		"full body\n" +
		"\n"
	box := parseBox(t, data)
	require.Equal(t, 1, box.Count())
	msg := box.Get(1)

	rep := testReporter()
	problems := box.Check(rep, CheckOptions{})
	assert.Equal(t, 1, problems, "wrong length is reported without repair")
	assert.Equal(t, 3, msg.ContentLength())

	problems = box.Check(rep, CheckOptions{Repair: true})
	assert.Equal(t, 1, problems)
	assert.Equal(t, msg.Body().Len(), msg.ContentLength())
	assert.True(t, box.Dirty())

	assert.Zero(t, box.Check(rep, CheckOptions{}), "repaired mailbox is clean")
}

func TestCheckMissingContentLengthOnlyStrict(t *testing.T) {
	data := "From alice Wed May 15 11:37:44 1996\n" +
		"From: alice@example.com\n" +
		"Date: Wed, 15 May 1996 11:37:44 +0000\n" +
		"Subject: no count\n" +
		"Message-ID: <1@x>\n" +
		"\n" +
		"body\n" +
		"\n"

	box := parseBox(t, data)
	assert.Zero(t, box.Check(testReporter(), CheckOptions{}))

	box = parseBox(t, data)
	rep := strictReporter()
	assert.Equal(t, 1, box.Check(rep, CheckOptions{}))
	assert.Equal(t, 1, box.Check(rep, CheckOptions{Repair: true}))
	assert.Equal(t, box.Get(1).Body().Len(), box.Get(1).ContentLength())
}

func TestCheckSynthesizesMessageID(t *testing.T) {
	data := "From alice Wed May 15 11:37:44 1996\n" +
		"Subject: anonymous\n" +
		"Content-Length: 5\n" +
		"\n" +
		"body\n" +
		"\n"
	box := parseBox(t, data)
	msg := box.Get(1)
	_, ok := msg.ID()
	require.False(t, ok)

	want := msg.SynthesizeID()
	assert.Equal(t, want, msg.SynthesizeID(), "synthesis is deterministic")

	box.Check(testReporter(), CheckOptions{Repair: true})
	id, ok := msg.ID()
	require.True(t, ok)
	assert.Equal(t, want, id.String())
}

func TestCheckRestoresMessageIDFromCopy(t *testing.T) {
	data := "From alice Wed May 15 11:37:44 1996\n" +
		"X-Message-ID: <kept@x>\n" +
		"Content-Length: 5\n" +
		"\n" +
		"body\n" +
		"\n"
	box := parseBox(t, data)

	box.Check(testReporter(), CheckOptions{Repair: true})
	id, ok := box.Get(1).ID()
	require.True(t, ok)
	assert.Equal(t, "<kept@x>", id.String())
}

func TestCheckConfirmVetoesRepair(t *testing.T) {
	data := "From alice Wed May 15 11:37:44 1996\n" +
		"Content-Length: 3\n" +
		"Message-ID: <1@x>\n" +
		"\n" +
		"body\n" +
		"\n"
	box := parseBox(t, data)

	var prompts []string
	opts := CheckOptions{Repair: true, Confirm: func(prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	}}
	box.Check(testReporter(), opts)
	assert.Len(t, prompts, 1)
	assert.Equal(t, 3, box.Get(1).ContentLength(), "vetoed fix is not applied")
	assert.False(t, box.Dirty())
}

func TestCheckStrictRemovesQuotedEnvelope(t *testing.T) {
	data := "From alice Wed May 15 11:37:44 1996\n" +
		">From bounced Wed May 15 10:00:00 1996\n" +
		"From: alice@example.com\n" +
		"Date: Wed, 15 May 1996 11:37:44 +0000\n" +
		"Message-ID: <1@x>\n" +
		"Content-Length: 5\n" +
		"\n" +
		"body\n" +
		"\n"
	box := parseBox(t, data)
	require.NotNil(t, box.Get(1).Headers().Find(quotedEnvelopeKey))

	problems := box.Check(strictReporter(), CheckOptions{Repair: true})
	assert.Equal(t, 1, problems)
	assert.Nil(t, box.Get(1).Headers().Find(quotedEnvelopeKey))
}

func TestCheckStrictRecoversFromAndDate(t *testing.T) {
	data := "From alice@example.com Wed May 15 11:37:44 1996\n" +
		"Message-ID: <1@x>\n" +
		"Content-Length: 5\n" +
		"\n" +
		"body\n" +
		"\n"
	box := parseBox(t, data)
	msg := box.Get(1)

	problems := box.Check(strictReporter(), CheckOptions{Repair: true})
	assert.Equal(t, 2, problems)

	from, ok := msg.Headers().Get(HdrFrom)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", from.String())

	date, ok := msg.Headers().Get(HdrDate)
	require.True(t, ok)
	assert.Equal(t, "Wed, 15 May 1996 11:37:44 -0000", date.String())
}

func TestCheckStrictPrefersReceivedDate(t *testing.T) {
	data := "From alice Wed May 15 11:37:44 1996\n" +
		"Received: from relay.example.com by mx.example.com; Thu, 16 May 1996 08:00:00 +0000\n" +
		"From: alice@example.com\n" +
		"Message-ID: <1@x>\n" +
		"Content-Length: 5\n" +
		"\n" +
		"body\n" +
		"\n"
	box := parseBox(t, data)

	box.Check(strictReporter(), CheckOptions{Repair: true})
	date, ok := box.Get(1).Headers().Get(HdrDate)
	require.True(t, ok)
	assert.Equal(t, "Thu, 16 May 1996 08:00:00 +0000", date.String())
}

func TestCheckStrictFlagsControlBytes(t *testing.T) {
	data := "From alice Wed May 15 11:37:44 1996\n" +
		"From: alice@example.com\n" +
		"Date: Wed, 15 May 1996 11:37:44 +0000\n" +
		"Message-ID: <1@x>\n" +
		"Subject: bell\x07ring\n" +
		"Content-Length: 5\n" +
		"\n" +
		"body\n" +
		"\n"
	box := parseBox(t, data)
	assert.Equal(t, 1, box.Check(strictReporter(), CheckOptions{}))
}
