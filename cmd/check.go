package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mailtools/mboxfsck/mbox"
)

var checkCmd = &cobra.Command{
	Use:   "check <mailbox>...",
	Short: "Validate mailboxes and report problems without changing them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		problems := 0
		err := run.Each(args, func(box *mbox.Mailbox) error {
			n := box.Check(run.Reporter(), mbox.CheckOptions{})
			if n > 0 {
				logger.Warn("mailbox has problems", "mailbox", box.Name(), "problems", n)
			} else {
				logger.Info("mailbox is clean", "mailbox", box.Name())
			}
			problems += n
			return nil
		})
		if err != nil {
			return err
		}
		if problems > 0 {
			return fmt.Errorf("%d problem(s) found", problems)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
