package util

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCount formats an integer with thousands separators.
// Examples: 500 -> "500", 1500 -> "1,500", 1500000 -> "1,500,000"
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatCost formats a dollar amount with four decimals.
func FormatCost(usd float64) string {
	return fmt.Sprintf("$%.4f", usd)
}

// FormatSeconds formats a duration as whole seconds.
// Examples: 0 -> "0s", 12.6s -> "13s", 2m5s -> "125s"
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.0fs", d.Seconds())
}

// FormatElapsed formats a duration as whole seconds below a minute and as
// minutes:seconds from a minute up.
// Examples: 45s -> "45s", 60s -> "1:00", 125s -> "2:05", 1h1m1s -> "61:01"
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d.Round(time.Second) / time.Second)
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
