package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"go-inventory-checklist/pkg/apiclient"
	"go-inventory-checklist/pkg/realtime"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Tables []string
	Filter string
}

// NewWatchCommand follows the change feed until interrupted.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print live changes and keep the low-stock view fresh",
		Long: `Open the realtime feed, print every change on the watched tables and
refetch the cached product views whenever stock changes.

Example:
  opsctl watch
  opsctl watch --table stock_movements --filter product_id=eq.6f1c...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Tables, "table", []string{
		realtime.TableProducts,
		realtime.TableStockMovements,
		realtime.TableChecklistExecutions,
	}, "tables to print")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "row filter, column=eq.value")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if _, err := realtime.ParseFilter(opts.Filter); err != nil {
		return out.Error(WrapExitError(ExitCommandError, "filter", err))
	}

	app, err := opts.clientApp(cmd.ErrOrStderr())
	if err != nil {
		return out.Error(err)
	}
	defer app.Close()

	token := app.auth.AccessToken(ctx)
	if token == "" {
		return out.Error(NewExitError(ExitCommandError, "not signed in"))
	}
	endpoint, err := realtimeEndpoint(app.cfg.API.BaseURL)
	if err != nil {
		return out.Error(WrapExitError(ExitCommandError, "api base url", err))
	}

	feed, err := realtime.Dial(ctx, endpoint, token, app.log)
	if err != nil {
		return out.Error(WrapExitError(ExitCommandError, "connect", err))
	}
	defer feed.Close()

	// Keep the low-stock view cached so the invalidation bridge refetches it.
	low := app.cache.Observe(lowStockKey, app.api.QueryFunc(apiclient.On401ReturnNil))
	defer low.Close()
	if _, err := low.Result(ctx); err != nil {
		out.VerboseLog("initial low-stock fetch failed: %v", err)
	}

	teardown, err := realtime.SetupInvalidation(ctx, feed, app.cache, app.log)
	if err != nil {
		return out.Error(WrapExitError(ExitFailure, "subscribe", err))
	}
	defer teardown()

	printer := &changePrinter{out: out, w: cmd.OutOrStdout(), lowStock: func() int {
		return lowStockCount(app)
	}}
	for _, table := range opts.Tables {
		h, err := feed.Subscribe(table, printer.print, opts.Filter)
		if err != nil {
			return out.Error(WrapExitError(ExitFailure, "subscribe "+table, err))
		}
		defer h.Unsubscribe()
	}
	out.VerboseLog("watching %v", opts.Tables)

	select {
	case <-ctx.Done():
		return nil
	case <-feed.Done():
		return out.Error(NewExitError(ExitFailure, "realtime connection closed"))
	}
}

func lowStockCount(app *clientApp) int {
	raw, ok := app.cache.GetQueryData(lowStockKey)
	if !ok || raw == nil {
		return -1
	}
	products, err := decodeProducts(raw)
	if err != nil {
		return -1
	}
	return len(products)
}

type changePrinter struct {
	mu       sync.Mutex
	out      *OutputFormatter
	w        io.Writer
	lowStock func() int
}

func (p *changePrinter) print(change realtime.ChangePayload) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out.Format == "json" {
		_ = json.NewEncoder(p.w).Encode(change)
		return
	}
	row := change.New
	if row == nil {
		row = change.Old
	}
	fmt.Fprintf(p.w, "%s %-8s %-22s %v\n",
		change.CommitTimestamp.Format("15:04:05"), change.EventType, change.Table, row["id"])
	if change.Table == realtime.TableStockMovements {
		if n := p.lowStock(); n >= 0 {
			fmt.Fprintf(p.w, "         low stock products: %d\n", n)
		}
	}
}
