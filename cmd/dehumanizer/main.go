package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SamStudio8/dehumanizer/internal/logx"
	"github.com/SamStudio8/dehumanizer/pkg/screen"
)

const version = "0.10.0"

// sysexits.h codes, kept for scripts that test for them.
const (
	exDataErr = 65 // manifest has nothing for the preset
	exConfig  = 78
)

var rootCmd = &cobra.Command{
	Use:   "dehumanizer",
	Short: "Rapidly rid reads of horrid humans",
	Long: `dehumanizer screens sequencing reads against contaminant references
(host DNA, spike-ins, controls) and writes the reads that match none of them.

References are listed in a manifest of "name path preset" lines. Every
reference for the chosen preset is loaded once per worker, reads are mapped
in parallel, and a tab-delimited audit log records what was removed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logx.New(nil).Failf("%v", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var cerr *screen.ConfigError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, screen.ErrNoReferences):
		return exDataErr
	case errors.As(err, &cerr):
		return exConfig
	default:
		return 1
	}
}

func init() {
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dehumanizer version %s\n", version)
	},
}
