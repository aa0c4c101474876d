package main

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/api"
	"github.com/alfredjeanlab/ims/internal/model"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

var productCmd = &cobra.Command{
	Use:         "product",
	Aliases:     []string{"products"},
	Short:       "Manage products",
	GroupID:     "inventory",
	Annotations: map[string]string{annotationRoute: "products"},
}

var productListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List products",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationRoute: "products"},
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetInt64("category")
		lowStock, _ := cmd.Flags().GetBool("low-stock")

		products, err := app.api.ListProducts(cmd.Context(), api.ProductFilter{Category: category})
		if err != nil {
			return err
		}
		if lowStock {
			filtered := products[:0]
			for _, p := range products {
				if p.LowStock() {
					filtered = append(filtered, p)
				}
			}
			products = filtered
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), products)
		}
		printProductTable(cmd.OutOrStdout(), products)
		return nil
	},
}

var productShowCmd = &cobra.Command{
	Use:         "show <id>",
	Short:       "Show a product",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationRoute: "product"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := app.api.GetProduct(cmd.Context(), id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		printProduct(cmd.OutOrStdout(), p)
		return nil
	},
}

var productCreateCmd = &cobra.Command{
	Use:         "create <name>",
	Short:       "Create a product",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationRoute: "products"},
	RunE: func(cmd *cobra.Command, args []string) error {
		in := &model.ProductInput{Name: args[0]}
		if err := applyProductFlags(cmd, in); err != nil {
			return err
		}
		p, err := app.api.CreateProduct(cmd.Context(), in)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created product %d (%s)\n", p.ID, p.Name)
		return nil
	},
}

var productUpdateCmd = &cobra.Command{
	Use:         "update <id>",
	Short:       "Update a product",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationRoute: "product"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		// PUT replaces every writable field, so start from the current values.
		cur, err := app.api.GetProduct(cmd.Context(), id)
		if err != nil {
			return err
		}
		in := model.InputFromProduct(cur)
		if cmd.Flags().Changed("name") {
			in.Name, _ = cmd.Flags().GetString("name")
		}
		if err := applyProductFlags(cmd, &in); err != nil {
			return err
		}
		p, err := app.api.UpdateProduct(cmd.Context(), id, &in)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated product %d\n", p.ID)
		return nil
	},
}

var productDeleteCmd = &cobra.Command{
	Use:         "delete <id>",
	Short:       "Delete a product",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationRoute: "product"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := app.api.DeleteProduct(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted product %d\n", id)
		return nil
	},
}

// applyProductFlags copies explicitly set flags onto in.
func applyProductFlags(cmd *cobra.Command, in *model.ProductInput) error {
	f := cmd.Flags()
	if f.Changed("description") {
		in.Description, _ = f.GetString("description")
	}
	if f.Changed("category") {
		in.Category, _ = f.GetInt64("category")
	}
	if f.Changed("quantity") {
		in.Quantity, _ = f.GetInt("quantity")
	}
	if f.Changed("price") {
		s, _ := f.GetString("price")
		price, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", s, err)
		}
		in.UnitPrice = price
	}
	return nil
}

func addProductFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("description", "d", "", "description")
	cmd.Flags().Int64P("category", "c", 0, "category id")
	cmd.Flags().IntP("quantity", "q", 0, "quantity on hand")
	cmd.Flags().StringP("price", "p", "0", "unit price, e.g. 12.50")
}

func init() {
	productListCmd.Flags().Int64P("category", "c", 0, "only products in this category")
	productListCmd.Flags().Bool("low-stock", false, fmt.Sprintf("only products with %d or fewer units", model.LowStockThreshold))

	addProductFlags(productCreateCmd)
	addProductFlags(productUpdateCmd)
	productUpdateCmd.Flags().String("name", "", "new name")

	productCmd.AddCommand(productListCmd, productShowCmd, productCreateCmd, productUpdateCmd, productDeleteCmd)
}
