package realtime

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Subscriber opens change feeds; *Client implements it.
type Subscriber interface {
	Subscribe(table string, cb func(ChangePayload), filter string) (Handle, error)
}

// Invalidator is the part of the query cache the bridge needs.
type Invalidator interface {
	InvalidateAndRefetch(ctx context.Context, keys ...string) error
}

const (
	TableUsers          = "users"
	TableCompanies      = "companies"
	TableProducts       = "products"
	TableStockMovements = "stock_movements"

	// not part of the invalidation map; published for watchers
	TableChecklistExecutions = "checklist_executions"
)

// Tables watched by SetupInvalidation, in subscription order.
var InvalidationTables = []string{TableUsers, TableCompanies, TableProducts, TableStockMovements}

var invalidationKeys = map[string][]string{
	TableUsers:          {"/api/users", "/api/master/users"},
	TableCompanies:      {"/api/master/companies", "/api/master/users"},
	TableProducts:       {"/api/products", "/api/products/low-stock", "/api/dashboard/stats"},
	TableStockMovements: {"/api/movements", "/api/products", "/api/products/low-stock", "/api/dashboard/stats"},
}

// KeysForTable returns the cache keys a change on table invalidates.
func KeysForTable(table string) []string {
	return append([]string(nil), invalidationKeys[table]...)
}

// SetupInvalidation subscribes to the four watched tables and refetches their
// cache keys on every change. The returned teardown disposes all of them and
// is safe to call more than once.
func SetupInvalidation(ctx context.Context, sub Subscriber, inv Invalidator, logger zerolog.Logger) (func(), error) {
	handles := make([]Handle, 0, len(InvalidationTables))
	var once sync.Once
	teardown := func() {
		once.Do(func() {
			for _, h := range handles {
				h.Unsubscribe()
			}
		})
	}

	for _, table := range InvalidationTables {
		keys := KeysForTable(table)
		table := table
		h, err := sub.Subscribe(table, func(p ChangePayload) {
			if err := inv.InvalidateAndRefetch(ctx, keys...); err != nil {
				logger.Warn().Err(err).Str("table", table).Msg("refetch after change failed")
			}
		}, "")
		if err != nil {
			teardown()
			return nil, err
		}
		handles = append(handles, h)
	}
	return teardown, nil
}
