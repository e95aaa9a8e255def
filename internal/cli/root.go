package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mobserve",
		Short: "Passive cost and workflow observer for agent sessions",
		Long: `mobserve watches the lifecycle events of an agent session.

It tracks token usage, cost and tool timing, infers which workflow phase the
agent is in from the tools it calls, and hands short advisories back to the
host. It never blocks or alters the session.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newObserveCmd())
	cmd.AddCommand(newPhasesCmd())
	cmd.AddCommand(newPricingCmd())
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
