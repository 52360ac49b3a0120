// phishguardd assesses pages for phishing risk and enforces a per-domain
// allow/block policy compiled into network-filter rules. `serve` runs the
// coordinator daemon; `check` scores a single URL offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	version = "0.1.0-dev"
	appName = "phishguardd"
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Phishing risk scoring and domain policy enforcement daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func main() {
	rootCmd.AddCommand(serveCmd, checkCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}
