package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-inventory-checklist/internal/model"
	"go-inventory-checklist/pkg/apiclient"
)

const (
	productsKey = "/api/products"
	lowStockKey = "/api/products/low-stock"
)

// ProductsOptions holds flags for the products command.
type ProductsOptions struct {
	*RootOptions
	LowStock bool
}

// NewProductsCommand lists the products of the user's company.
func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProductsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "products",
		Short:         "List products and their stock",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProducts(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.LowStock, "low", false, "only products at or below their minimum")

	return cmd
}

func runProducts(opts *ProductsOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	app, err := opts.clientApp(cmd.ErrOrStderr())
	if err != nil {
		return out.Error(err)
	}
	defer app.Close()

	key := productsKey
	if opts.LowStock {
		key = lowStockKey
	}
	products, err := fetchProducts(cmd, app, key)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return out.Error(WrapExitError(ExitCommandError, "not signed in", err))
		}
		return out.Error(WrapExitError(ExitFailure, "list products", err))
	}
	return out.Success(products, func(w io.Writer) {
		printProducts(w, products)
	})
}

func fetchProducts(cmd *cobra.Command, app *clientApp, key string) ([]model.Product, error) {
	raw, err := app.cache.Fetch(cmd.Context(), key, app.api.QueryFunc(apiclient.On401Fail))
	if err != nil {
		return nil, err
	}
	return decodeProducts(raw)
}

func decodeProducts(raw interface{}) ([]model.Product, error) {
	body, ok := raw.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value %T", raw)
	}
	var products []model.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func printProducts(w io.Writer, products []model.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTOCK\tMIN\tUNIT\t")
	for _, p := range products {
		flag := ""
		if p.IsLowStock() {
			flag = "LOW"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.CurrentStock.String(), p.MinStock.String(), p.Unit, flag)
	}
	tw.Flush()
}
