package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mailtools/mboxfsck/mbox"
)

var uniqueCmd = &cobra.Command{
	Use:   "unique <mailbox>...",
	Short: "Delete duplicate messages",
	Long: `Unique groups messages by Message-ID and deletes the later copies whose
identifying headers and body match an earlier one. Copies that share an ID
but differ are reported; with --interactive you choose which to keep.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resolve mbox.Resolver
		if cfg.Interactive {
			c := newConfirmer()
			resolve = func(a, b *mbox.Message, why string) mbox.Choice {
				pterm.Printf("messages %s and %s share a Message-ID but differ in %s\n",
					a.Tag(), b.Tag(), why)
				switch c.choose("") {
				case '1':
					return mbox.ChoiceFirst
				case '2':
					return mbox.ChoiceSecond
				case 'n':
					return mbox.ChoiceNeither
				case 'q':
					return mbox.ChoiceQuit
				}
				return mbox.ChoiceSkip
			}
		}
		return run.Each(args, func(box *mbox.Mailbox) error {
			deleted := box.Unique(run.Reporter(), resolve)
			logger.Info("duplicates removed", "mailbox", box.Name(), "deleted", deleted)
			return box.Save(false, cfg.Backup)
		})
	},
}

func init() {
	rootCmd.AddCommand(uniqueCmd)
}
