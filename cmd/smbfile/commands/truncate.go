package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbfile/internal/bytesize"
	"github.com/marmos91/smbfile/pkg/smb"
)

var truncateCmd = &cobra.Command{
	Use:   "truncate <path> <size>",
	Short: "Set a file's size",
	Long: `Truncate or extend path to the given size. Size accepts plain byte
counts and human-readable values like "4Ki" or "1MB".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := bytesize.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", args[1], err)
		}

		sess := openSession()
		defer sess.Close()

		f, err := smb.OpenFile(sess, args[0], smb.ModeWrite)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := f.Truncate(size.Uint64()); err != nil {
			return err
		}
		return f.Sync()
	},
}
