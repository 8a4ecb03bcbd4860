package mbox

import (
	"sort"

	"github.com/mailtools/mboxfsck/report"
)

// Choice is a resolution for two messages that share a Message-ID but
// differ in content.
type Choice int

const (
	// ChoiceSkip keeps both messages and moves on.
	ChoiceSkip Choice = iota
	// ChoiceFirst keeps the first message and deletes the second.
	ChoiceFirst
	// ChoiceSecond keeps the second message and deletes the first.
	ChoiceSecond
	// ChoiceNeither deletes both messages.
	ChoiceNeither
	// ChoiceQuit stops resolving for the rest of the mailbox.
	ChoiceQuit
)

// Resolver decides the fate of two messages with the same Message-ID whose
// contents differ. why names the first field that differs, or "body".
type Resolver func(a, b *Message, why string) Choice

// Unique deletes duplicate messages. Messages are grouped by Message-ID;
// within a group, a message whose identifying headers and body match an
// earlier one is deleted. Pairs that share an ID but differ are reported
// and handed to resolve when set. Returns the number of deletions.
func (box *Mailbox) Unique(rep *report.Reporter, resolve Resolver) int {
	sorted := make([]*Message, len(box.msgs))
	copy(sorted, box.msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := sorted[i].ID()
		b, _ := sorted[j].ID()
		return a.Compare(b) < 0
	})

	deleted := 0
	for i := 1; i < len(sorted); i++ {
		a, b := sorted[i-1], sorted[i]
		if a.deleted || b.deleted {
			continue
		}
		aid, aok := a.ID()
		bid, bok := b.ID()
		if !aok || !bok || aid.IsEmpty() || !aid.Equal(bid, false) {
			continue
		}
		why, same := sameContent(a, b)
		if same {
			rep.Verbosef("message %s duplicates %s, deleting it", b.tag, a.tag)
			b.SetDeleted(true)
			deleted++
			// Keep comparing later group members against the survivor.
			sorted[i] = a
			continue
		}
		rep.Warnf("messages %s and %s share Message-ID %s but differ in %s",
			a.tag, b.tag, aid, why)
		if resolve == nil {
			continue
		}
		switch resolve(a, b, why) {
		case ChoiceFirst:
			b.SetDeleted(true)
			deleted++
			sorted[i] = a
		case ChoiceSecond:
			a.SetDeleted(true)
			deleted++
		case ChoiceNeither:
			a.SetDeleted(true)
			b.SetDeleted(true)
			deleted += 2
		case ChoiceQuit:
			rep.CountDuplicates(deleted)
			return deleted
		}
	}
	rep.CountDuplicates(deleted)
	return deleted
}

// sameContent reports whether two messages agree on every identifying
// header and on the body. The first differing field is named.
func sameContent(a, b *Message) (string, bool) {
	for _, key := range checkKeys {
		av, aok := a.headers.Get(key)
		bv, bok := b.headers.Get(key)
		if aok != bok || (aok && !av.Equal(bv, false)) {
			return key, false
		}
	}
	if !a.body.Equal(b.body, false) {
		return "body", false
	}
	return "", true
}
