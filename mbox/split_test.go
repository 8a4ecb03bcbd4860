package mbox

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const joinedPair = "From alice Wed May 15 11:37:44 1996\n" +
	"Subject: first\n" +
	"\n" +
	"first part\n" +
	"\n" +
	"From bob Thu May 16 09:01:02 1996\n" +
	"Subject: second\n" +
	"\n" +
	"tail\n" +
	"\n"

func TestSplitJoinedMessage(t *testing.T) {
	// The second envelope hides inside the first body because the header
	// block of message one ran straight into it on some other writer's
	// watch; reconstruct that state via Join.
	box := parseBox(t, joinedPair)
	require.Equal(t, 2, box.Count())
	rep := testReporter()
	require.NoError(t, box.Join(rep, box.Get(1), box.Get(2)))
	require.True(t, box.Get(2).Deleted())

	host := box.Get(1)
	n := box.Split(rep, host, nil)
	assert.Equal(t, 1, n)
	require.Equal(t, 3, box.Count())

	assert.Equal(t, "first part\n", host.Body().String())
	found := box.Get(2)
	assert.Equal(t, "tail", found.Body().String())
	sub, ok := found.Headers().Get(HdrSubject)
	require.True(t, ok)
	assert.Equal(t, "second", sub.String())
	assert.True(t, found.Dirty())
	assert.True(t, box.Dirty())
}

func TestSplitAllExaminesShiftedMessages(t *testing.T) {
	// Two joined messages, glued by a Content-Length that covers the
	// hidden second half. Splitting the first inserts a message and
	// renumbers everything behind it; the second host must still be
	// examined at its new position.
	body1 := "a\n\nFrom bob Thu May 16 09:01:02 1996\nSubject: two\n\ntail-one\n"
	body2 := "b\n\nFrom dave Sat May 18 10:00:00 1996\nSubject: four\n\ntail-two\n"
	data := fmt.Sprintf(
		"From alice Wed May 15 11:37:44 1996\nSubject: one\nContent-Length: %d\n\n%s\n"+
			"From carol Fri May 17 10:00:00 1996\nSubject: three\nContent-Length: %d\n\n%s\n",
		len(body1), body1, len(body2), body2)
	box := parseBox(t, data)
	require.Equal(t, 2, box.Count())

	n := box.SplitAll(testReporter(), nil)
	assert.Equal(t, 2, n)
	require.Equal(t, 4, box.Count())
	assert.Equal(t, "a\n", box.Get(1).Body().String())
	assert.Equal(t, "tail-one", box.Get(2).Body().String())
	assert.Equal(t, "b\n", box.Get(3).Body().String())
	assert.Equal(t, "tail-two", box.Get(4).Body().String())
}

func TestSplitConfirmVeto(t *testing.T) {
	box := parseBox(t, joinedPair)
	rep := testReporter()
	require.NoError(t, box.Join(rep, box.Get(1), box.Get(2)))

	var seen string
	n := box.Split(rep, box.Get(1), func(line string) bool {
		seen = line
		return false
	})
	assert.Zero(t, n)
	assert.Contains(t, seen, "From bob")
	assert.Equal(t, 2, box.Count(), "vetoed split leaves the join alone")
}

func TestSplitNothingToFind(t *testing.T) {
	box := parseBox(t, twoMessages)
	assert.Zero(t, box.Split(testReporter(), box.Get(1), nil))
}

func TestJoinRejectsSelf(t *testing.T) {
	box := parseBox(t, twoMessages)
	assert.Error(t, box.Join(testReporter(), box.Get(1), box.Get(1)))
}

func TestParseOne(t *testing.T) {
	data := "From alice Wed May 15 11:37:44 1996\n" +
		"Subject: edited\n" +
		"\n" +
		"new body\n"
	msg, err := ParseOne([]byte(data), testReporter())
	require.NoError(t, err)
	assert.Equal(t, "new body\n", msg.Body().String())
	sub, ok := msg.Headers().Get(HdrSubject)
	require.True(t, ok)
	assert.Equal(t, "edited", sub.String())
	assert.True(t, msg.Dirty())
}

func TestParseOneEmpty(t *testing.T) {
	_, err := ParseOne(nil, testReporter())
	assert.Error(t, err)
}
