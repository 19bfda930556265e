package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clusterdash/alertd/internal/types"
)

// EmitResult is alertd's reply to a published event
type EmitResult struct {
	Topic     string `json:"topic" yaml:"topic"`
	Delivered int    `json:"delivered" yaml:"delivered"`
	Presented bool   `json:"presented" yaml:"presented"`
}

func emitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Publish a dashboard event",
		Long: `Publish one event onto alertd's event bus and report whether an
alert was presented for it.

Examples:
  # A failed request that the dispatcher classifies as server_error
  alertctl emit neterror --status 503 --status-text "Service Unavailable"

  # A heartbeat whose cluster last updated 20 minutes ago
  alertctl emit heartbeat --age 20m

  # Request notices
  alertctl emit success "Deployment scaled"
  alertctl emit error "Delete failed"`,
	}

	cmd.AddCommand(emitNetErrorCmd())
	cmd.AddCommand(emitConfigErrorCmd())
	cmd.AddCommand(emitHeartbeatCmd())
	cmd.AddCommand(emitNoticeCmd("success", "Publish a successful request notice"))
	cmd.AddCommand(emitNoticeCmd("error", "Publish a failed request notice"))
	return cmd
}

func emitNetErrorCmd() *cobra.Command {
	var ev types.NetError
	cmd := &cobra.Command{
		Use:   "neterror",
		Short: "Publish a failed request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.TimestampMs = time.Now().UnixMilli()
			return emit(cmd, "neterror", ev)
		},
	}
	cmd.Flags().IntVar(&ev.Status, "status", 0, "HTTP status code, 0 when no response arrived")
	cmd.Flags().StringVar(&ev.StatusText, "status-text", "", "Status text: timeout, error, parsererror or the HTTP reason phrase")
	cmd.Flags().StringVar(&ev.Source, "source", "alertctl", "Request that failed")
	_ = cmd.MarkFlagRequired("status-text")
	return cmd
}

func emitConfigErrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configerror MESSAGE",
		Short: "Publish a configuration error",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd, "configerror", types.ConfigError{Message: strings.Join(args, " ")})
		},
	}
}

func emitHeartbeatCmd() *cobra.Command {
	var (
		age  time.Duration
		unix int64
	)
	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Publish a heartbeat sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if unix == 0 {
				unix = time.Now().Add(-age).Unix()
			}
			return emit(cmd, "heartbeat", types.HeartbeatSample{ClusterUpdateTimeUnix: unix})
		},
	}
	cmd.Flags().DurationVar(&age, "age", 0, "How long ago the cluster last updated")
	cmd.Flags().Int64Var(&unix, "unix", 0, "Explicit cluster update time in Unix seconds, overrides --age")
	return cmd
}

func emitNoticeCmd(kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " HEADLINE",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd, kind, types.RequestNotice{Headline: strings.Join(args, " ")})
		},
	}
}

func emit(cmd *cobra.Command, kind string, payload interface{}) error {
	var result EmitResult
	if err := call(cmd.Context(), http.MethodPost, "/api/events/"+kind, payload, &result); err != nil {
		return fmt.Errorf("emit %s: %w", kind, err)
	}
	return outputResult(cmd.OutOrStdout(), result, outputFmt)
}
