package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/knowgraph/knowgraph/internal/llm"
	"github.com/knowgraph/knowgraph/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")

		s, err := openEventStore()
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		events, err := s.EventRepo().LLMRequests(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if purpose != "" {
			kept := events[:0]
			for _, e := range events {
				if e.Purpose == purpose {
					kept = append(kept, e)
				}
			}
			events = kept
		}
		if limit > 0 && len(events) > limit {
			events = events[len(events)-limit:]
		}

		if len(events) == 0 {
			fmt.Println("No LLM events found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-14s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"Seq", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))

		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Printf("%-5d  %-19s  %-14s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Purpose, 14),
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <seq>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || seq < 1 {
			return fmt.Errorf("invalid sequence %q", args[0])
		}

		s, err := openEventStore()
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().LLMRequests(cmd.Context(), store.QueryOpts{After: seq - 1, Limit: 1})
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if len(events) == 0 || events[0].Sequence != seq {
			return fmt.Errorf("event %d not found", seq)
		}
		e := events[0]

		sep := strings.Repeat("─", 60)

		fmt.Printf("Seq:       %d\n", e.Sequence)
		fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		for _, part := range []struct{ title, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			fmt.Println(sep)
			fmt.Println(part.title)
			fmt.Println(sep)
			if part.body != "" {
				fmt.Println(part.body)
			} else {
				fmt.Println("(not captured)")
			}
		}
		return nil
	},
}

var llmUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEventStore()
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().LLMRequests(cmd.Context(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		lines := llm.SummarizeUsage(events)
		if len(lines) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		fmt.Printf("%-12s  %-28s  %6s  %6s  %10s  %10s  %10s\n",
			"Provider", "Model", "Calls", "Failed", "Input", "Output", "Cost")
		fmt.Println(strings.Repeat("─", 92))

		var totalCost float64
		var unpriced []string
		for _, l := range lines {
			cost := "?"
			if l.Priced {
				cost = formatCost(l.CostUSD)
				totalCost += l.CostUSD
			} else {
				unpriced = append(unpriced, l.Model)
			}
			fmt.Printf("%-12s  %-28s  %6d  %6d  %10d  %10d  %10s\n",
				l.Provider, truncate(l.Model, 28), l.Requests, l.Failures, l.InputTokens, l.OutputTokens, cost)
		}

		fmt.Println(strings.Repeat("─", 92))
		label := "TOTAL"
		if len(unpriced) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Printf("%-42s  %48s\n", label, formatCost(totalCost))
		if len(unpriced) > 0 {
			fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func init() {
	llmListCmd.Flags().Int("limit", 20, "Number of events to show")
	llmListCmd.Flags().String("purpose", "", "Filter by purpose (e.g. "+llm.PurposeWelcomeNote+")")
	llmListCmd.Flags().Duration("since", 0, "Only events newer than this (e.g. 24h)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmUsageCmd)
}

// openEventStore opens the SQLite store the event log lives in.
func openEventStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
