package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"go-inventory-checklist/pkg/querycache"
)

// On401 selects what a query does when the API answers 401.
type On401 int

const (
	On401Fail On401 = iota
	On401ReturnNil
)

// QueryFunc builds a cache query that GETs the key as a URL and returns the
// raw JSON body.
func (c *Client) QueryFunc(on401 On401) querycache.QueryFunc {
	return func(ctx context.Context, key string) (interface{}, error) {
		resp, err := c.Request(ctx, http.MethodGet, key, nil)
		if err != nil {
			if on401 == On401ReturnNil && IsUnauthorized(err) {
				return nil, nil
			}
			return nil, err
		}
		defer resp.Body.Close()

		var raw json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
}
