package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	cpuprofile string
	logger     zerolog.Logger

	profileFile *os.File
)

var rootCmd = &cobra.Command{
	Use:           "xtal",
	Short:         "random symmetry-constrained crystal and cluster generation",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("bad log level %q: %w", logLevel, err)
		}
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}).Level(level).With().Timestamp().Logger()
		if cpuprofile != "" {
			profileFile, err = os.Create(cpuprofile)
			if err != nil {
				return err
			}
			if err := pprof.StartCPUProfile(profileFile); err != nil {
				return err
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profileFile != nil {
			pprof.StopCPUProfile()
			profileFile.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "",
		"write cpu profile to file")
}
