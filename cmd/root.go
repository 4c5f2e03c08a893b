package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fluxdec/adaptive"
	"fluxdec/bitstream"
	"fluxdec/config"
	"fluxdec/dpll"
	"fluxdec/flux"
	"fluxdec/pll"
	"fluxdec/wavflux"

	// Register the built-in decoders.
	_ "fluxdec/amiga"
	_ "fluxdec/ibm"
)

var (
	profiles *config.Config

	configFile  string
	profileName string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "fluxdec",
	Short: "Recover sector data from raw magnetic flux captures",
	Long: "The fluxdec tool reconstructs digital sectors from hardware-captured\n" +
		"magnetic flux-transition timings of floppy disks and similar media.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var err error
		profiles, err = config.Load(configFile)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load decode profiles: %w", err))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "decode profile file (TOML); default set is built in")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "decode profile name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadStream reads one flux capture: a WAV recording of the read head, or a
// raw file of 50 ns-quantized period bytes.
func loadStream(path string) (*flux.Stream, error) {
	if strings.HasSuffix(strings.ToLower(path), ".wav") {
		return wavflux.ReadFile(path, wavflux.Options{})
	}
	periods, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return flux.FromPeriods(periods)
}

// recoverBits assembles the bitstream with the clock recovery the profile
// selects: the adaptive classifier, the continuous loop, or the
// hardware-exact separator.
func recoverBits(prof *config.Profile, stream *flux.Stream) (*bitstream.Bitstream, error) {
	if prof.Adaptive {
		cls := adaptive.New(prof.AdaptiveConfig())
		bs := bitstream.AssemblePeriods(stream.Periods(), cls.DecodeSample)
		stats := cls.Stats()
		slog.Debug("adaptive classification",
			"short", stats.Samples[0], "medium", stats.Samples[1],
			"long", stats.Samples[2], "invalid", stats.Invalid)
		return bs, nil
	}
	if prof.CellNs > 0 {
		return bitstream.Assemble(stream, pll.New(pll.Config{CellTimeNs: prof.CellNs}))
	}
	return bitstream.Assemble(stream, dpll.New(dpll.Config{HighDensity: prof.HighDensity}))
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
