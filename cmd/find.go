package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mailtools/mboxfsck/config"
	"github.com/mailtools/mboxfsck/filter"
	"github.com/mailtools/mboxfsck/mbox"
)

var findCmd = &cobra.Command{
	Use:   "find <mailbox>...",
	Short: "Print the messages matching the selection patterns, one per line",
	Long: `Find prints one plain line per matching message, suitable for scripting:
mailbox name, message number, date, sender, and subject. Unlike list it
produces no table and no section headers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fcfg, err := config.LoadFilter(cmd)
		if err != nil {
			return err
		}
		f, err := filter.New(filter.Options{
			IncludeHeader: fcfg.IncludeHeader,
			IncludeBody:   fcfg.IncludeBody,
			ExcludeHeader: fcfg.ExcludeHeader,
			ExcludeBody:   fcfg.ExcludeBody,
		})
		if err != nil {
			return fmt.Errorf("create filter: %w", err)
		}

		return run.Each(args, func(box *mbox.Mailbox) error {
			for _, msg := range box.Messages() {
				if msg.Deleted() || !f.Allows(headerBytes(msg), msg.Body().Bytes()) {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\t%s\t%s\n",
					box.Name(), msg.Num(),
					headerField(msg, mbox.HdrDate, 26),
					headerField(msg, mbox.HdrFrom, 40),
					headerField(msg, mbox.HdrSubject, 60))
			}
			return nil
		})
	},
}

func init() {
	config.RegisterFilterFlags(findCmd)
	rootCmd.AddCommand(findCmd)
}
