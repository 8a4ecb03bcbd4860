package cmd

import (
	"bytes"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mailtools/mboxfsck/config"
	"github.com/mailtools/mboxfsck/filter"
	"github.com/mailtools/mboxfsck/mbox"
)

var listCmd = &cobra.Command{
	Use:   "list <mailbox>...",
	Short: "List messages, optionally narrowed by header and body patterns",
	Args:  cobra.MinimumNArgs(1),
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

		// Fixed columns for number and date; the rest of the page is split
		// between sender and subject.
		free := cfg.PageWidth - 6 - 26
		fromWidth := free / 3
		subjectWidth := free - fromWidth

		err = run.Each(args, func(box *mbox.Mailbox) error {
			rows := pterm.TableData{{"#", "Date", "From", "Subject"}}
			matched := 0
			for _, msg := range box.Messages() {
				if !f.Allows(headerBytes(msg), msg.Body().Bytes()) {
					continue
				}
				matched++
				rows = append(rows, []string{
					fmt.Sprintf("%d", msg.Num()),
					headerField(msg, mbox.HdrDate, 26),
					headerField(msg, mbox.HdrFrom, fromWidth),
					headerField(msg, mbox.HdrSubject, subjectWidth),
				})
			}
			pterm.DefaultSection.Printf("%s: %d of %d message(s)\n", box.Name(), matched, box.Count())
			if matched > 0 {
				if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		if f.Active() {
			for pattern, hits := range f.GetStats().Hits {
				logger.Debug("filter pattern hits", "pattern", pattern, "hits", hits)
			}
		}
		return nil
	},
}

func init() {
	config.RegisterFilterFlags(listCmd)
	rootCmd.AddCommand(listCmd)
}

// headerBytes renders the header block the way it would be written, for the
// regex filters.
func headerBytes(msg *mbox.Message) []byte {
	var buf bytes.Buffer
	for _, h := range msg.Headers().All() {
		if raw := h.Raw(); !raw.IsZero() {
			buf.Write(raw.Bytes())
			continue
		}
		buf.Write(h.Key.Bytes())
		buf.WriteString(": ")
		buf.Write(h.Value.Bytes())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func headerField(msg *mbox.Message, key string, max int) string {
	v, ok := msg.Headers().Get(key)
	if !ok {
		return ""
	}
	s := v.String()
	if len(s) > max {
		if max > 3 {
			return s[:max-3] + "..."
		}
		return s[:max]
	}
	return s
}
