package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/clusterdash/alertd/internal/api"
	"github.com/clusterdash/alertd/internal/types"
)

// StatusResult mirrors GET /status
type StatusResult struct {
	Halted       bool   `json:"halted" yaml:"halted"`
	AlertsShown  int    `json:"alerts_shown" yaml:"alerts_shown"`
	TimeoutCount int    `json:"timeout_count" yaml:"timeout_count"`
	Uptime       string `json:"uptime" yaml:"uptime"`
	Version      string `json:"version" yaml:"version"`
	Commit       string `json:"commit" yaml:"commit"`
}

// AlertsResult mirrors GET /alerts
type AlertsResult struct {
	Alerts []types.Message `json:"alerts" yaml:"alerts"`
	Count  int             `json:"count" yaml:"count"`
	Halted bool            `json:"halted" yaml:"halted"`
}

// PolicyResult mirrors GET /api/policy
type PolicyResult struct {
	Halted     bool            `json:"halted" yaml:"halted"`
	Categories []api.PolicyRow `json:"categories" yaml:"categories"`
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dispatcher status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StatusResult
			if err := call(cmd.Context(), http.MethodGet, "/status", nil, &result); err != nil {
				return fmt.Errorf("status: %w", err)
			}
			return outputResult(cmd.OutOrStdout(), result, outputFmt)
		},
	}
}

func alertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "List recently presented alerts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result AlertsResult
			if err := call(cmd.Context(), http.MethodGet, "/alerts", nil, &result); err != nil {
				return fmt.Errorf("alerts: %w", err)
			}
			return outputResult(cmd.OutOrStdout(), result, outputFmt)
		},
	}
}

func policyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Show per-category suppression rules and state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PolicyResult
			if err := call(cmd.Context(), http.MethodGet, "/api/policy", nil, &result); err != nil {
				return fmt.Errorf("policy: %w", err)
			}
			return outputResult(cmd.OutOrStdout(), result, outputFmt)
		},
	}
}
