package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var bitsCmd = &cobra.Command{
	Use:   "bits <flux-file>",
	Short: "Dump the assembled raw bitstream for offline inspection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prof, err := profiles.Profile(profileName)
		cobra.CheckErr(err)

		stream, err := loadStream(args[0])
		cobra.CheckErr(err)

		bs, err := recoverBits(prof, stream)
		cobra.CheckErr(err)

		fmt.Printf("%d bits\n", bs.Len())
		fmt.Print(hex.Dump(bs.Bytes()))
	},
}

func init() {
	rootCmd.AddCommand(bitsCmd)
}
