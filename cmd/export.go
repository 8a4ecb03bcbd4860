package cmd

import (
	"fmt"
	"os"
	"time"

	mboxlib "github.com/emersion/go-mbox"
	"github.com/spf13/cobra"

	"github.com/mailtools/mboxfsck/config"
	"github.com/mailtools/mboxfsck/filter"
	"github.com/mailtools/mboxfsck/mbox"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <mailbox>...",
	Short: "Re-deliver messages into a fresh mboxrd file",
	Long: `Export writes the surviving messages of the given mailboxes into one new
file using mboxrd ">From " quoting, the format modern tools agree on. The
source mailboxes are not modified. The selection flags narrow what gets
exported.`,
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

		out, err := os.OpenFile(exportOutput, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOutput, err)
		}
		defer out.Close()
		w := mboxlib.NewWriter(out)

		exported := 0
		err = run.Each(args, func(box *mbox.Mailbox) error {
			for _, msg := range box.Messages() {
				if msg.Deleted() || !f.Allows(headerBytes(msg), msg.Body().Bytes()) {
					continue
				}
				if err := exportMessage(w, msg); err != nil {
					return fmt.Errorf("exporting message %s: %w", msg.Tag(), err)
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("finishing %s: %w", exportOutput, err)
		}
		logger.Info("export complete", "output", exportOutput, "messages", exported)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Destination mbox file (must not exist)")
	exportCmd.MarkFlagRequired("output")
	config.RegisterFilterFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func exportMessage(w *mboxlib.Writer, msg *mbox.Message) error {
	sender := "MAILER-DAEMON"
	date := time.Now()
	if env := msg.Envelope(); env != nil {
		if s := env.Sender.String(); s != "" {
			sender = s
		}
		if !env.Date.IsZero() {
			date = env.Date.Time()
		}
	}
	mw, err := w.CreateMessage(sender, date)
	if err != nil {
		return err
	}
	if _, err := mw.Write(headerBytes(msg)); err != nil {
		return err
	}
	if _, err := mw.Write([]byte("\n")); err != nil {
		return err
	}
	_, err = mw.Write(msg.Body().Bytes())
	return err
}
