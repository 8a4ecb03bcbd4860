package span

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanViews(t *testing.T) {
	buf := NewOwned([]byte("hello world"))
	s := Make(buf, 0, buf.Len())

	assert.Equal(t, "hello", s.Slice(0, 5).String())
	assert.Equal(t, "world", s.Slice(6, 11).String())
	assert.Equal(t, Borrowed, s.Slice(0, 5).Kind())
	assert.Panics(t, func() { s.Slice(0, 12) })
}

func TestSpanTrimSpace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  padded\t", "padded"},
		{"\r\nfolded\n value\r\n", "folded\n value"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromString(tt.input).TrimSpace().String(), "input %q", tt.input)
	}
}

func TestSpanEqual(t *testing.T) {
	a := FromString("Message-ID")
	assert.True(t, a.EqualString("message-id", true))
	assert.False(t, a.EqualString("message-id", false))
	assert.True(t, a.Equal(FromString("Message-ID"), false))
}

func TestSpanInt(t *testing.T) {
	assert.Equal(t, 1234, FromString("1234").Int(-1))
	assert.Equal(t, 12, FromString("12 trailing").Int(-1))
	assert.Equal(t, -1, FromString("x12").Int(-1))
	assert.Equal(t, -1, FromString("").Int(-1))
}

func TestJoinCopies(t *testing.T) {
	data := []byte("abcdef")
	buf := NewBorrowed(data)
	joined := Join([]Span{Make(buf, 0, 2), Make(buf, 4, 2)})
	require.Equal(t, "abef", joined.String())

	data[0] = 'X'
	assert.Equal(t, "abef", joined.String(), "joined span must own its bytes")
	assert.Equal(t, Owned, joined.Kind())
}

func TestMapFileEmpty(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "empty")
	require.NoError(t, err)
	defer f.Close()

	buf, err := MapFile(f)
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Len())
	assert.NoError(t, buf.Release())
}
