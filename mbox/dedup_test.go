package mbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(sender, id, subject, body string) string {
	s := "From " + sender + " Wed May 15 11:37:44 1996\n"
	if id != "" {
		s += "Message-ID: " + id + "\n"
	}
	s += "Subject: " + subject + "\n\n" + body + "\n\n"
	return s
}

func TestUniqueDeletesExactDuplicates(t *testing.T) {
	data := message("alice", "<1@x>", "hi", "same") +
		message("bob", "<2@x>", "other", "different") +
		message("alice", "<1@x>", "hi", "same")
	box := parseBox(t, data)
	require.Equal(t, 3, box.Count())

	deleted := box.Unique(testReporter(), nil)
	assert.Equal(t, 1, deleted)
	assert.False(t, box.Get(1).Deleted(), "first copy survives")
	assert.False(t, box.Get(2).Deleted())
	assert.True(t, box.Get(3).Deleted(), "later copy is deleted")
}

func TestUniqueDeletesWholeRun(t *testing.T) {
	data := message("alice", "<1@x>", "hi", "same") +
		message("alice", "<1@x>", "hi", "same") +
		message("alice", "<1@x>", "hi", "same")
	box := parseBox(t, data)

	deleted := box.Unique(testReporter(), nil)
	assert.Equal(t, 2, deleted)
	assert.False(t, box.Get(1).Deleted())
	assert.True(t, box.Get(2).Deleted())
	assert.True(t, box.Get(3).Deleted())
}

func TestUniqueKeepsDifferingMessages(t *testing.T) {
	data := message("alice", "<1@x>", "hi", "one body") +
		message("alice", "<1@x>", "hi", "another body")
	box := parseBox(t, data)

	deleted := box.Unique(testReporter(), nil)
	assert.Zero(t, deleted)
	assert.False(t, box.Get(1).Deleted())
	assert.False(t, box.Get(2).Deleted())
}

func TestUniqueIgnoresMessagesWithoutID(t *testing.T) {
	data := message("alice", "", "hi", "same") +
		message("alice", "", "hi", "same")
	box := parseBox(t, data)

	assert.Zero(t, box.Unique(testReporter(), nil))
}

func TestUniqueResolver(t *testing.T) {
	data := message("alice", "<1@x>", "hi", "one body") +
		message("alice", "<1@x>", "hi", "another body")

	tests := []struct {
		name    string
		choice  Choice
		deleted int
		first   bool
		second  bool
	}{
		{"keep first", ChoiceFirst, 1, false, true},
		{"keep second", ChoiceSecond, 1, true, false},
		{"keep neither", ChoiceNeither, 2, true, true},
		{"keep both", ChoiceSkip, 0, false, false},
		{"quit", ChoiceQuit, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := parseBox(t, data)
			var gotWhy string
			deleted := box.Unique(testReporter(), func(a, b *Message, why string) Choice {
				gotWhy = why
				return tt.choice
			})
			assert.Equal(t, tt.deleted, deleted)
			assert.Equal(t, "body", gotWhy)
			assert.Equal(t, tt.first, box.Get(1).Deleted())
			assert.Equal(t, tt.second, box.Get(2).Deleted())
		})
	}
}

func TestSameContentNamesDifferingHeader(t *testing.T) {
	data := message("alice", "<1@x>", "hi", "same") +
		message("alice", "<1@x>", "bye", "same")
	box := parseBox(t, data)
	why, same := sameContent(box.Get(1), box.Get(2))
	assert.False(t, same)
	assert.Equal(t, HdrSubject, why)
}
