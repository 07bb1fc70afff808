package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"catalog/internal/browse"
	"catalog/internal/client"
	"catalog/internal/config"
	"catalog/internal/forms"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

type options struct {
	apiURL  string
	timeout time.Duration
}

func (o *options) client() *client.Client {
	return client.New(o.apiURL, o.timeout)
}

// NewRootCommand builds the catalog client CLI. Without a subcommand it opens the browser.
func NewRootCommand() *cobra.Command {
	defaults := config.LoadClient()
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Browse and manage the product catalog",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return browse.Run(opts.client(), browse.WithRequestTimeout(opts.timeout))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", defaults.APIURL, "catalog API base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaults.Timeout, "per-request timeout")

	cmd.AddCommand(
		newBrowseCommand(opts),
		newListCommand(opts),
		newAddCommand(opts),
		newEditCommand(opts),
		newDeleteCommand(opts),
	)
	return cmd
}

func newBrowseCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactive list and search",
		RunE: func(cmd *cobra.Command, args []string) error {
			return browse.Run(opts.client(), browse.WithRequestTimeout(opts.timeout))
		},
	}
}

func newListCommand(opts *options) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print products, optionally filtered by a search term",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := opts.client()
			var (
				products []client.Product
				err      error
			)
			if q := strings.TrimSpace(query); q != "" {
				products, err = api.Search(cmd.Context(), q)
			} else {
				products, err = api.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search name and description")
	return cmd
}

func newAddCommand(opts *options) *cobra.Command {
	var form forms.ProductForm
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := form.Validate()
			if err != nil {
				return err
			}
			product, err := opts.client().Create(cmd.Context(), payload)
			if err != nil {
				return err
			}
			form.Reset()
			fmt.Fprintf(cmd.OutOrStdout(), "created product #%d %s (%.2f)\n", product.ID, product.Name, product.Price.Float64())
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "product name (required)")
	cmd.Flags().StringVar(&form.Price, "price", "", "product price (required)")
	cmd.Flags().StringVar(&form.Description, "description", "", "product description")
	return cmd
}

func newEditCommand(opts *options) *cobra.Command {
	var changes forms.ProductForm
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Update a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api := opts.client()
			current, err := api.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			form := forms.FromProduct(*current)
			if cmd.Flags().Changed("name") {
				form.Name = changes.Name
			}
			if cmd.Flags().Changed("price") {
				form.Price = changes.Price
			}
			if cmd.Flags().Changed("description") {
				form.Description = changes.Description
			}
			payload, err := form.Validate()
			if err != nil {
				return err
			}

			product, err := api.Update(cmd.Context(), id, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated product #%d %s (%.2f)\n", product.ID, product.Name, product.Price.Float64())
			return nil
		},
	}
	cmd.Flags().StringVar(&changes.Name, "name", "", "new name")
	cmd.Flags().StringVar(&changes.Price, "price", "", "new price")
	cmd.Flags().StringVar(&changes.Description, "description", "", "new description")
	return cmd
}

func newDeleteCommand(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api := opts.client()
			if !yes {
				product, err := api.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %q? [y/N] ", product.Name)) {
					fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
					return nil
				}
			}
			if err := api.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted product #%d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return uint(id), nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printProducts(out io.Writer, products []client.Product) {
	if len(products) == 0 {
		fmt.Fprintln(out, "no products")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "PRICE", "DESCRIPTION")
	for _, p := range products {
		t.Row(strconv.FormatUint(uint64(p.ID), 10), p.Name, fmt.Sprintf("%.2f", p.Price.Float64()), p.Description)
	}
	fmt.Fprintln(out, t.Render())
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
