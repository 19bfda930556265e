// alertctl talks to a running alertd over its HTTP API.
//
// Usage:
//
//	alertctl emit neterror --status 503 --status-text "Service Unavailable"
//	alertctl emit heartbeat --age 20m
//	alertctl emit success "Pod deleted"
//	alertctl alerts
//	alertctl status -o json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clusterdash/alertd/internal/version"
)

var (
	serverURL string
	outputFmt string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "alertctl",
		Short: "Send events to and inspect a running alertd",
		Long: `alertctl is a CLI for alertd.

It publishes dashboard events through the alertd HTTP API and reports
which alerts were presented and how the suppression policy stands.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultServer := os.Getenv("ALERTD_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8088"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "alertd base URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")

	rootCmd.AddCommand(emitCmd())
	rootCmd.AddCommand(alertsCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(policyCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
