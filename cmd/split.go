package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mailtools/mboxfsck/mbox"
)

var splitCmd = &cobra.Command{
	Use:   "split <mailbox> [number...]",
	Short: "Split messages that were accidentally joined together",
	Long: `Split looks inside message bodies for a blank line followed by a valid
"From " separator, the telltale of messages glued together by a bad
Content-Length. Matches are cut apart and inserted as separate messages.
Without numbers every message is examined. With --interactive each
candidate separator is confirmed first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nums, err := parseNums(args[1:])
		if err != nil {
			return err
		}
		var confirm func(line string) bool
		if cfg.Interactive {
			c := newConfirmer()
			confirm = func(line string) bool {
				return c.ask(fmt.Sprintf("split at %q", line))
			}
		}

		return run.Each(args[:1], func(box *mbox.Mailbox) error {
			total := 0
			if len(nums) == 0 {
				total = box.SplitAll(run.Reporter(), confirm)
			} else {
				// Resolve every number up front: a split renumbers
				// the messages behind its insertion point.
				targets := make([]*mbox.Message, 0, len(nums))
				for _, n := range nums {
					msg := box.Get(n)
					if msg == nil {
						return fmt.Errorf("mailbox %s has no message %d", box.Name(), n)
					}
					targets = append(targets, msg)
				}
				for _, msg := range targets {
					total += box.Split(run.Reporter(), msg, confirm)
				}
			}
			logger.Info("split complete", "mailbox", box.Name(), "new", total)
			return box.Save(false, cfg.Backup)
		})
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <mailbox> <number> <number>",
	Short: "Join two messages back into one",
	Long: `Join appends the second message, separator line included, to the body of
the first and deletes it, undoing an overeager split.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		nums, err := parseNums(args[1:])
		if err != nil {
			return err
		}
		return run.Each(args[:1], func(box *mbox.Mailbox) error {
			a, b := box.Get(nums[0]), box.Get(nums[1])
			if a == nil {
				return fmt.Errorf("mailbox %s has no message %d", box.Name(), nums[0])
			}
			if b == nil {
				return fmt.Errorf("mailbox %s has no message %d", box.Name(), nums[1])
			}
			if err := box.Join(run.Reporter(), a, b); err != nil {
				return err
			}
			return box.Save(false, cfg.Backup)
		})
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(joinCmd)
}

func parseNums(args []string) ([]int, error) {
	var nums []int
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid message number %q", arg)
		}
		nums = append(nums, n)
	}
	return nums, nil
}
