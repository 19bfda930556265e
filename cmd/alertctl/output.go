package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

func outputResult(w io.Writer, result interface{}, format string) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "yaml":
		return outputYAML(w, result)
	default:
		return outputTable(w, result)
	}
}

func outputJSON(w io.Writer, result interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}

func outputTable(out io.Writer, result interface{}) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch r := result.(type) {
	case EmitResult:
		fmt.Fprintf(w, "TOPIC\tDELIVERED\tPRESENTED\n")
		fmt.Fprintf(w, "%s\t%d\t%t\n", r.Topic, r.Delivered, r.Presented)
	case StatusResult:
		fmt.Fprintf(w, "Halted:\t%t\n", r.Halted)
		fmt.Fprintf(w, "Alerts shown:\t%d\n", r.AlertsShown)
		fmt.Fprintf(w, "Timeouts alerted:\t%d\n", r.TimeoutCount)
		fmt.Fprintf(w, "Uptime:\t%s\n", r.Uptime)
		fmt.Fprintf(w, "Version:\t%s (%s)\n", r.Version, r.Commit)
	case AlertsResult:
		if r.Halted {
			fmt.Fprintf(w, "Session halted: error alerts are silenced, request notices still show.\n\n")
		}
		fmt.Fprintf(w, "TIME\tSEVERITY\tCATEGORY\tTEXT\n")
		for _, a := range r.Alerts {
			cat := string(a.Category)
			if cat == "" {
				cat = "request"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.CreatedAt.Local().Format(time.TimeOnly), a.Severity, cat, a.Text)
		}
	case PolicyResult:
		fmt.Fprintf(w, "CATEGORY\tRULE\tWINDOW\tTHRESHOLD\tOCCURRENCES\tLAST FIRED\n")
		for _, p := range r.Categories {
			window := p.Window
			if window == "" {
				window = "-"
			}
			last := "-"
			if !p.LastFired.IsZero() {
				last = p.LastFired.Local().Format(time.TimeOnly)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", p.Category, p.Rule, window, p.Threshold, p.Occurrences, last)
		}
	default:
		return outputJSON(out, result)
	}
	return nil
}
