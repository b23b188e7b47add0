package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbfile/internal/bytesize"
	"github.com/marmos91/smbfile/internal/cli/output"
	"github.com/marmos91/smbfile/pkg/smb"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show file metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := openSession()
		defer sess.Close()

		f, err := smb.OpenFile(sess, args[0], smb.ModeRead)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		kind := "file"
		if info.IsDir {
			kind = "directory"
		}

		output.KeyValue(cmd.OutOrStdout(), [][2]string{
			{"Path", args[0]},
			{"Type", kind},
			{"Size", fmt.Sprintf("%s (%d bytes)", bytesize.ByteSize(info.Size), info.Size)},
			{"Attributes", fmt.Sprintf("0x%08x", info.Attributes)},
			{"Accessed", info.AccessTime.Format(time.RFC3339)},
			{"Modified", info.ModTime.Format(time.RFC3339)},
			{"Changed", info.ChangeTime.Format(time.RFC3339)},
		})
		return nil
	},
}
