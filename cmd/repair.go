package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mailtools/mboxfsck/mbox"
)

var repairCmd = &cobra.Command{
	Use:   "repair <mailbox>...",
	Short: "Fix the problems check reports and rewrite the mailboxes",
	Long: `Repair fixes what check only reports: bodies corrupted by mis-quoted
"From " delivery, wrong or missing Content-Length headers, and missing
Message-IDs. With --strict the fussier header repairs run too. With
--interactive each fix is confirmed first; an uppercase answer applies
to all remaining fixes. Use --dry-run to see what would change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := mbox.CheckOptions{Repair: true}
		if cfg.Interactive {
			c := newConfirmer()
			opts.Confirm = c.ask
		}
		return run.Each(args, func(box *mbox.Mailbox) error {
			box.Check(run.Reporter(), opts)
			return box.Save(false, cfg.Backup)
		})
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
