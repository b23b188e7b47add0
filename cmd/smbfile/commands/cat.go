package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbfile/pkg/smb"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print file contents to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := openSession()
		defer sess.Close()

		f, err := smb.OpenFile(sess, args[0], smb.ModeRead)
		if err != nil {
			return err
		}
		defer f.Close()

		for {
			data, err := f.Read(0)
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return nil
			}
			if _, err := os.Stdout.Write(data); err != nil {
				return err
			}
		}
	},
}
