package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/emiliopalmerini/mobserve/internal/util"
)

func formatDigest(s Snapshot, elapsed time.Duration) string {
	var calls int64
	var total time.Duration
	for _, tool := range s.Tools {
		calls += tool.Count
		total += tool.Total
	}
	var avg time.Duration
	if calls > 0 {
		avg = total / time.Duration(calls)
	}

	var b strings.Builder
	b.WriteString("Session Metrics (ephemeral, for your awareness)\n")
	fmt.Fprintf(&b, "├─ Cost: %s\n", util.FormatCost(s.CostUSD))
	fmt.Fprintf(&b, "├─ Tokens: %s (%s in, %s out)\n",
		util.FormatCount(s.TotalTokens()), util.FormatCount(s.InputTokens), util.FormatCount(s.OutputTokens))
	fmt.Fprintf(&b, "├─ Time: %s elapsed\n", util.FormatElapsed(elapsed))
	fmt.Fprintf(&b, "├─ Tools: %d types used, avg %.2fs per call\n", len(s.Tools), avg.Seconds())
	fmt.Fprintf(&b, "└─ Turn: %d", s.Turn)
	return b.String()
}

func formatSummary(s Snapshot, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString("SESSION SUMMARY\n")
	fmt.Fprintf(&b, "Cost: %s\n", util.FormatCost(s.CostUSD))
	fmt.Fprintf(&b, "Tokens: %s\n", util.FormatCount(s.TotalTokens()))
	fmt.Fprintf(&b, "  ├─ Input:  %s\n", util.FormatCount(s.InputTokens))
	fmt.Fprintf(&b, "  └─ Output: %s\n", util.FormatCount(s.OutputTokens))
	fmt.Fprintf(&b, "Time: %s (%.1f min)", util.FormatSeconds(elapsed), elapsed.Minutes())
	if s.UnpricedCalls > 0 {
		fmt.Fprintf(&b, "\nUnpriced calls: %d", s.UnpricedCalls)
	}

	if len(s.Tools) == 0 {
		return b.String()
	}
	b.WriteString("\nTool Usage:")
	for _, tool := range s.Tools {
		fmt.Fprintf(&b, "\n  %-20s %3d× calls, avg: %.2fs, total: %.1fs",
			tool.Name, tool.Count, tool.Average().Seconds(), tool.Total.Seconds())
	}
	return b.String()
}
