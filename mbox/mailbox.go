package mbox

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mailtools/mboxfsck/lock"
	"github.com/mailtools/mboxfsck/report"
	"github.com/mailtools/mboxfsck/span"
)

var (
	// ErrNotExist is returned when the mailbox file is missing and creation
	// was not requested.
	ErrNotExist = errors.New("mailbox does not exist")
)

// OpenOptions controls how a mailbox is opened.
type OpenOptions struct {
	// Locker acquires the advisory lock for the file when set. Locking is
	// skipped on dry runs since nothing will be written.
	Locker *lock.Manager
	// LockTimeout bounds the wait for the advisory lock.
	LockTimeout time.Duration
	// NoMap reads the file into memory instead of mapping it.
	NoMap bool
	// Create opens a missing file as an empty mailbox.
	Create bool
	// Reporter collects diagnostics; required.
	Reporter *report.Reporter
}

// Mailbox is one parsed mbox file. Its messages reference the backing buffer
// until Close releases it.
type Mailbox struct {
	source string
	name   string
	buf    *span.Buffer
	msgs   []*Message
	dirty  bool
	rep    *report.Reporter

	locker *lock.Manager
	locked bool
}

// Open locks, reads, and segments the mailbox at path. The path "-" reads
// standard input instead; such a mailbox is not locked and cannot be saved.
func Open(path string, opts OpenOptions) (*Mailbox, error) {
	rep := opts.Reporter
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading standard input: %w", err)
		}
		return NewFromBytes("-", data, rep), nil
	}
	box := &Mailbox{
		source: path,
		name:   filepath.Base(path),
		rep:    rep,
	}

	if opts.Locker != nil && !rep.DryRun() {
		if err := opts.Locker.Lock(path, opts.LockTimeout); err != nil {
			return nil, fmt.Errorf("locking %s: %w", path, err)
		}
		box.locker = opts.Locker
		box.locked = true
	}

	buf, err := readMailbox(path, opts.NoMap)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && opts.Create {
			buf = span.NewOwned(nil)
		} else {
			box.unlock()
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
			}
			return nil, err
		}
	}
	box.buf = buf

	p := &parser{c: span.NewCursor(buf), rep: rep}
	p.parseAll(box)
	rep.Verbosef("mailbox %s: parsed %d message(s), %d bytes", box.name, len(box.msgs), buf.Len())
	return box, nil
}

// NewFromBytes parses data as a mailbox held entirely in memory, without
// locking or a backing file. Save still writes to the given name.
func NewFromBytes(name string, data []byte, rep *report.Reporter) *Mailbox {
	box := &Mailbox{
		source: name,
		name:   filepath.Base(name),
		buf:    span.NewOwned(data),
		rep:    rep,
	}
	p := &parser{c: span.NewCursor(box.buf), rep: rep}
	p.parseAll(box)
	return box
}

func readMailbox(path string, noMap bool) (*span.Buffer, error) {
	if noMap {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return span.NewOwned(data), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return span.MapFile(f)
}

// Source is the path the mailbox was opened from.
func (box *Mailbox) Source() string { return box.source }

// Name is the base name of the mailbox file, used in diagnostics.
func (box *Mailbox) Name() string { return box.name }

func (box *Mailbox) Count() int { return len(box.msgs) }

// Messages returns the message list in mailbox order. Callers must not
// reorder the slice.
func (box *Mailbox) Messages() []*Message { return box.msgs }

// Get returns the message with the given 1-based number, or nil.
func (box *Mailbox) Get(num int) *Message {
	if num < 1 || num > len(box.msgs) {
		return nil
	}
	return box.msgs[num-1]
}

func (box *Mailbox) Dirty() bool { return box.dirty }

// Append links an unlinked message at the end of the mailbox. Appending a
// message that already belongs to a mailbox is a programming error.
func (box *Mailbox) Append(msg *Message) {
	if msg.box != nil {
		panic("mbox: message is already linked to a mailbox")
	}
	msg.box = box
	msg.num = len(box.msgs) + 1
	if msg.tag == "" {
		msg.tag = fmt.Sprintf("#%d {new}", msg.num)
	}
	if msg.headers == nil {
		msg.headers = &Headers{msg: msg}
	} else {
		msg.headers.msg = msg
	}
	box.msgs = append(box.msgs, msg)
	msg.SetDirty(true)
}

// insertAfter splices newMsgs into the list directly after msg and renumbers
// everything behind the insertion point.
func (box *Mailbox) insertAfter(msg *Message, newMsgs []*Message) {
	i := msg.num
	box.msgs = append(box.msgs[:i], append(append([]*Message{}, newMsgs...), box.msgs[i:]...)...)
	for j := i; j < len(box.msgs); j++ {
		box.msgs[j].num = j + 1
	}
	box.dirty = true
}

// Replace swaps old for a new unlinked message in place.
func (box *Mailbox) Replace(old, repl *Message) {
	if old.box != box {
		panic("mbox: message is not linked to this mailbox")
	}
	if repl.box != nil {
		panic("mbox: replacement is already linked to a mailbox")
	}
	repl.box = box
	repl.num = old.num
	if repl.tag == "" {
		repl.tag = old.tag
	}
	repl.headers.msg = repl
	box.msgs[old.num-1] = repl
	old.box = nil
	repl.SetDirty(true)
}

// Save writes the mailbox back to its source path when it has unsaved
// changes, or unconditionally with force. A backup keeps the previous file
// under the source path with a "~" suffix.
func (box *Mailbox) Save(force, backup bool) error {
	if !box.dirty && !force {
		box.rep.Notef("mailbox %s left unchanged", box.name)
		return nil
	}
	if box.source == "-" {
		return errors.New("cannot rewrite a mailbox read from standard input")
	}
	if box.rep.DryRun() {
		box.rep.Notef("dry run: not writing mailbox %s", box.name)
		return nil
	}
	if err := box.WriteTo(box.source, backup); err != nil {
		return err
	}
	box.rep.Notef("mailbox %s written", box.name)
	return nil
}

// WriteTo serializes the mailbox to path through a temp file in the same
// directory, so the final rename is atomic on the filesystem holding the
// mailbox.
func (box *Mailbox) WriteTo(path string, backup bool) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if err := box.Serialize(tmp, true); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if backup {
		if err := os.Rename(path, path+"~"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			os.Remove(tmpName)
			return fmt.Errorf("making backup of %s: %w", path, err)
		}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	box.dirty = false
	for _, msg := range box.msgs {
		msg.dirty = false
	}
	return nil
}

func (box *Mailbox) unlock() {
	if box.locked {
		box.locker.Unlock(box.source)
		box.locked = false
	}
}

// Close releases the lock and the backing buffer. The mailbox and its
// messages are unusable afterwards.
func (box *Mailbox) Close() error {
	box.unlock()
	if box.buf != nil {
		return box.buf.Release()
	}
	return nil
}
