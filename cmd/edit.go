package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mailtools/mboxfsck/mbox"
)

var editCmd = &cobra.Command{
	Use:   "edit <mailbox> <number>",
	Short: "Edit one message in $EDITOR and write it back",
	Long: `Edit writes the chosen message to a temp file, runs your editor on it,
and replaces the message with the result. The edited file is read back as
one message: everything after the header block is the body, so no part of
it can accidentally split into further messages.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		num, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid message number %q", args[1])
		}
		editor := os.Getenv("VISUAL")
		if editor == "" {
			editor = os.Getenv("EDITOR")
		}
		if editor == "" {
			editor = "vi"
		}

		return run.Each(args[:1], func(box *mbox.Mailbox) error {
			msg := box.Get(num)
			if msg == nil {
				return fmt.Errorf("mailbox %s has no message %d", box.Name(), num)
			}

			tmp, err := os.CreateTemp("", "mboxfsck-edit-*")
			if err != nil {
				return err
			}
			tmpName := tmp.Name()
			defer os.Remove(tmpName)

			if err := mbox.WriteMessage(tmp, msg); err != nil {
				tmp.Close()
				return fmt.Errorf("writing %s: %w", tmpName, err)
			}
			if err := tmp.Close(); err != nil {
				return err
			}

			ed := exec.Command(editor, tmpName)
			ed.Stdin = os.Stdin
			ed.Stdout = os.Stdout
			ed.Stderr = os.Stderr
			if err := ed.Run(); err != nil {
				return fmt.Errorf("running %s: %w", editor, err)
			}

			data, err := os.ReadFile(tmpName)
			if err != nil {
				return err
			}
			edited, err := mbox.ParseOne(data, run.Reporter())
			if err != nil {
				return err
			}
			box.Replace(msg, edited)
			return box.Save(false, cfg.Backup)
		})
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
