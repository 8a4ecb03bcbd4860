package progress

import (
	"sync"

	"github.com/pterm/pterm"
)

// Bar tracks progress over a batch of mailbox files.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	mu      sync.Mutex
	enabled bool
}

// New creates a progress bar when the batch is big enough to warrant one and
// logLevel is "info". A disabled bar is safe to use and does nothing.
func New(total int, logLevel string) *Bar {
	enabled := total > 1 && logLevel == "info"

	bar := &Bar{
		total:   total,
		enabled: enabled,
	}

	if enabled {
		pb, _ := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Processing mailboxes").
			Start()
		bar.pb = pb
	}

	return bar
}

// Step advances the bar by one mailbox, showing its name in the title.
func (b *Bar) Step(name string) {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(name) > 40 {
		name = name[:37] + "..."
	}
	b.pb.UpdateTitle("Processing: " + name)
	b.pb.Increment()
}

// Fail reports a mailbox failure above the bar without stopping it.
func (b *Bar) Fail(name string, err error) {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pterm.Error.Printf("%s: %v\n", name, err)
}

// Stop finalizes the progress bar.
func (b *Bar) Stop() {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pb.Current < b.total {
		b.pb.Current = b.total
	}

	b.pb.Stop()
}
