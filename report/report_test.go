package report

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningsAreCountedWhenQuiet(t *testing.T) {
	var buf bytes.Buffer
	r := New(slog.New(slog.NewTextHandler(&buf, nil)), Options{Quiet: true})

	r.Warnf("problem %d", 1)
	r.Warnf("problem %d", 2)
	r.Notef("should not appear")

	assert.Empty(t, buf.String(), "quiet suppresses output")
	s := r.Summary()
	assert.Equal(t, 2, s.Warnings)
	assert.Equal(t, "problem 2", s.LastWarning)
}

func TestVerboseGating(t *testing.T) {
	var buf bytes.Buffer
	r := New(slog.New(slog.NewTextHandler(&buf, nil)), Options{})
	r.Verbosef("hidden")
	assert.Empty(t, buf.String())

	r = New(slog.New(slog.NewTextHandler(&buf, nil)), Options{Verbose: true})
	r.Verbosef("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSummaryCounters(t *testing.T) {
	r := New(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), Options{})
	r.CountRepair()
	r.CountRepair()
	r.CountDuplicates(3)

	s := r.Summary()
	assert.Equal(t, 2, s.Repairs)
	assert.Equal(t, 3, s.Duplicates)
	assert.Len(t, s.LogAttrs(), 6)
}
