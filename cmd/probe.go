package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fluxdec/decoder"
)

var probeCmd = &cobra.Command{
	Use:   "probe <flux-file>",
	Short: "Report which encoding the flux most likely carries",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stream, err := loadStream(args[0])
		cobra.CheckErr(err)

		for _, d := range decoder.All() {
			fmt.Printf("%-12s %-10s confidence %d\n", d.Name(), d.Encoding(), d.Probe(stream))
		}

		best, confidence, err := decoder.SelectBest(stream)
		cobra.CheckErr(err)
		fmt.Printf("best match: %s (%d)\n", best.Name(), confidence)
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
