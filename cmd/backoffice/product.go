package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/product"
	"github.com/spf13/cobra"
)

func newProductCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "product",
		Aliases: []string{"products"},
		Short:   "Manage the product catalogue",
	}
	svc := func() *product.Service { return product.NewService(a.client) }

	var (
		params    product.ListParams
		available bool
	)
	listFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&params.Category, "category", "", "filter by category")
		c.Flags().StringVar(&params.Search, "search", "", "search by name or sku")
		c.Flags().BoolVar(&available, "available", false, "only available (or, with =false, unavailable) products")
	}
	fetch := func(c *cobra.Command) ([]model.Product, error) {
		if c.Flags().Changed("available") {
			params.Available = &available
		}
		return svc().List(c.Context(), params)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := fetch(cmd)
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(ps)
			}
			t := newTable(a.out, "ID", "SKU", "NAME", "CATEGORY", "PRICE", "VAT %", "INCL. VAT", "UNIT", "AVAILABLE")
			for _, p := range ps {
				t.row(p.ID.String(), p.SKU, p.Name, orDash(p.Category),
					p.Price.StringFixed(2), p.VATRate.String(), p.PriceWithVAT().StringFixed(2),
					orDash(p.Unit), yesNo(p.IsAvailable))
			}
			return t.flush()
		},
	}
	listFlags(list)

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := svc().Get(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return a.fail(err)
			}
			return a.printJSON(p)
		},
	}

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in product.Input
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			p, err := svc().Create(cmd.Context(), in)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "created product %s (%s)\n", p.ID, p.SKU)
			return nil
		},
	}
	addFileFlag(create, &file)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a product from a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in product.Input
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			p, err := svc().Update(cmd.Context(), model.ID(args[0]), in)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "updated product %s (%s)\n", p.ID, p.SKU)
			return nil
		},
	}
	addFileFlag(update, &file)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc().Delete(cmd.Context(), model.ID(args[0])); err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "deleted product %s\n", args[0])
			return nil
		},
	}

	setAvailable := &cobra.Command{
		Use:   "available <id> <true|false>",
		Short: "Toggle a product's availability",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("availability must be true or false, got %q", args[1])
			}
			p, err := svc().SetAvailability(cmd.Context(), model.ID(args[0]), on)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "product %s available: %s\n", p.ID, yesNo(p.IsAvailable))
			return nil
		},
	}

	image := &cobra.Command{
		Use:   "upload-image <id> <file>",
		Short: "Upload a product image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := upload(cmd, args[1], func(name string, r io.Reader) error {
				_, err := svc().UploadImage(cmd.Context(), model.ID(args[0]), name, r)
				return err
			})
			if err != nil {
				return a.fail(err)
			}
			return nil
		},
	}

	export := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export the product list to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
				path += ".xlsx"
			}
			ps, err := fetch(cmd)
			if err != nil {
				return a.fail(err)
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := product.ExportXLSX(f, ps); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "exported %d products to %s\n", len(ps), path)
			return nil
		},
	}
	listFlags(export)

	cmd.AddCommand(list, get, create, update, del, setAvailable, image, export)
	return cmd
}
