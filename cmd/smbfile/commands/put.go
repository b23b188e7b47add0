package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbfile/pkg/bufpool"
	"github.com/marmos91/smbfile/pkg/smb"
)

var (
	putExclusive bool
	putAppend    bool
)

var putCmd = &cobra.Command{
	Use:   "put <source> <path>",
	Short: "Copy a local file into the session",
	Long: `Copy a local file (or stdin, when source is "-") to path inside the
session root. The destination is created if missing and truncated otherwise.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, dest := args[0], args[1]

		var in io.Reader
		if src == "-" {
			in = os.Stdin
		} else {
			local, err := os.Open(src)
			if err != nil {
				return err
			}
			defer local.Close()
			in = local
		}

		mode := smb.ModeCreate
		switch {
		case putExclusive && putAppend:
			return fmt.Errorf("--exclusive and --append are mutually exclusive")
		case putExclusive:
			mode = smb.ModeCreateExclusive
		case putAppend:
			mode = smb.ModePipe
		}

		sess := openSession()
		defer sess.Close()

		f, err := smb.OpenFile(sess, dest, mode)
		if err != nil {
			return err
		}

		buf := bufpool.Get(int(f.OptimizedWriteSize()))
		defer bufpool.Put(buf)

		var total int
		for {
			n, rerr := in.Read(buf)
			if n > 0 {
				written, werr := f.Write(buf[:n])
				total += written
				if werr != nil {
					f.Close()
					return werr
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				f.Close()
				return rerr
			}
		}

		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", total, dest)
		return nil
	},
}

func init() {
	putCmd.Flags().BoolVar(&putExclusive, "exclusive", false, "Fail if the destination already exists")
	putCmd.Flags().BoolVar(&putAppend, "append", false, "Append to the destination instead of truncating")
}
