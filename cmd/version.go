package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/kozaktomas/facefit/cmd.Version=..." at release time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if mustGetBool(cmd, "short") {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)
			return err
		}
		return writeVersion(cmd.OutOrStdout(), loadConfig().API.URL)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "Print only the version number")
}

// writeVersion prints build metadata and the analysis service the binary talks to.
func writeVersion(w io.Writer, apiURL string) error {
	_, err := fmt.Fprintf(w, "facefit %s (%s, built %s, %s)\nanalysis service: %s\n",
		Version, CommitSHA, BuildDate, runtime.Version(), apiURL)
	return err
}
