package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// confirmer asks yes/no questions on the terminal. An uppercase answer
// sticks: "Y" or "N" applies to every remaining question, "q" gives up on
// the rest (treated as no).
type confirmer struct {
	in           *bufio.Scanner
	sticky       byte
	stickyChoice byte
}

func newConfirmer() *confirmer {
	return &confirmer{in: bufio.NewScanner(os.Stdin)}
}

func (c *confirmer) ask(prompt string) bool {
	switch c.sticky {
	case 'Y':
		return true
	case 'N', 'q':
		return false
	}

	for {
		pterm.Print(prompt + "? [y/n/q, Y/N for all] ")
		if !c.in.Scan() {
			c.sticky = 'q'
			return false
		}
		answer := strings.TrimSpace(c.in.Text())
		if answer == "" {
			continue
		}
		switch answer[0] {
		case 'y':
			return true
		case 'n':
			return false
		case 'Y', 'N':
			c.sticky = answer[0]
			return answer[0] == 'Y'
		case 'q', 'Q':
			c.sticky = 'q'
			return false
		}
	}
}

// choose asks which of two differing messages to keep. "B" and "N" stick
// for the rest of the run.
func (c *confirmer) choose(prompt string) byte {
	if c.stickyChoice != 0 {
		return c.stickyChoice
	}
	for {
		pterm.Print(prompt + " keep [1/2/b(oth)/n(either)/q, B/N for all]? ")
		if !c.in.Scan() {
			return 'q'
		}
		answer := strings.TrimSpace(c.in.Text())
		if answer == "" {
			continue
		}
		switch answer[0] {
		case '1', '2', 'b', 'n', 'q':
			return answer[0]
		case 'B', 'N':
			c.stickyChoice = answer[0] + ('a' - 'A')
			return c.stickyChoice
		case 'Q':
			return 'q'
		}
	}
}
