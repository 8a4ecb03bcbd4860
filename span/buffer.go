// Package span provides zero-copy byte views over a shared backing buffer,
// plus a backtracking cursor used by the mbox parser.
//
// A Buffer owns a run of bytes and knows how to release them. Spans are
// (offset, length) views that borrow from a Buffer; the Buffer must outlive
// every Span derived from it.
package span

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Kind describes how a Buffer's bytes are owned and released.
type Kind uint8

const (
	// Borrowed bytes are a view into storage owned elsewhere.
	Borrowed Kind = iota
	// Owned bytes belong exclusively to the Buffer.
	Owned
	// Mapped bytes come from a memory-mapped file and are released by unmapping.
	Mapped
	// Static bytes are compiled in and never released.
	Static
)

func (k Kind) String() string {
	switch k {
	case Borrowed:
		return "borrowed"
	case Owned:
		return "owned"
	case Mapped:
		return "mapped"
	case Static:
		return "static"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Buffer is the exclusive owner of a run of bytes.
type Buffer struct {
	data     []byte
	kind     Kind
	released bool
}

// NewOwned wraps data in a Buffer that owns it. The caller must not reuse data.
func NewOwned(data []byte) *Buffer {
	return &Buffer{data: data, kind: Owned}
}

// NewBorrowed wraps data the caller continues to own. The buffer must not
// outlive the data it borrows.
func NewBorrowed(data []byte) *Buffer {
	return &Buffer{data: data, kind: Borrowed}
}

// NewStatic wraps a compiled-in string.
func NewStatic(s string) *Buffer {
	return &Buffer{data: []byte(s), kind: Static}
}

// MapFile maps the whole of f into memory read-only. An empty file yields an
// Owned empty buffer since zero-length mappings are invalid.
func MapFile(f *os.File) (*Buffer, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return NewOwned(nil), nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", f.Name(), err)
	}
	return &Buffer{data: data, kind: Mapped}, nil
}

// Bytes returns the underlying bytes. The slice is invalid after Release.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Len() int { return len(b.data) }

func (b *Buffer) Kind() Kind { return b.kind }

// Release frees the buffer according to its kind. It is idempotent. Only
// Mapped buffers need explicit release; everything else is left to the
// garbage collector.
func (b *Buffer) Release() error {
	if b == nil || b.released {
		return nil
	}
	b.released = true
	if b.kind == Mapped && b.data != nil {
		data := b.data
		b.data = nil
		return unix.Munmap(data)
	}
	b.data = nil
	return nil
}
