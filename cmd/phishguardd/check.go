package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/score"
	"github.com/haukened/phishguard/internal/guard/snapshot"
)

var (
	checkHTMLPath  string
	checkThreshold int
	checkFormat    string
)

func init() {
	checkCmd.Flags().StringVar(&checkHTMLPath, "html", "", "Path to the page HTML; omit for URL-only heuristics")
	checkCmd.Flags().IntVar(&checkThreshold, "threshold", domain.DefaultSettings().Threshold, "Warn threshold to compare the score against")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Score a URL (optionally with its HTML) without a running daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func runCheck(_ *cobra.Command, args []string) error {
	rawURL := args[0]

	var snap domain.PageSnapshot
	if checkHTMLPath != "" {
		data, err := os.ReadFile(checkHTMLPath)
		if err != nil {
			return fmt.Errorf("reading page HTML: %w", err)
		}
		snap = snapshot.Parse(string(data), rawURL)
	}

	report := score.Score(snap, rawURL)
	verdict := domain.ActionOK
	if report.Score >= checkThreshold {
		verdict = domain.ActionWarn
	}

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(struct {
			Report domain.RiskReport `json:"report"`
			Action domain.Action     `json:"action"`
		}{report, verdict}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		fmt.Printf("url:     %s\n", rawURL)
		fmt.Printf("host:    %s\n", report.Host)
		fmt.Printf("domain:  %s\n", report.Domain)
		fmt.Printf("score:   %d (threshold %d)\n", report.Score, checkThreshold)
		fmt.Printf("verdict: %s\n", verdict)
		for _, f := range report.Findings {
			fmt.Printf("  - %s\n", f)
		}
	}
	return nil
}
