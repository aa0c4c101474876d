package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/model"
)

var stockCmd = &cobra.Command{
	Use:         "stock",
	Aliases:     []string{"stocks"},
	Short:       "Record and review stock movements",
	GroupID:     "inventory",
	Annotations: map[string]string{annotationRoute: "stocks"},
}

var stockListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List stock movements",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationRoute: "stocks"},
	RunE: func(cmd *cobra.Command, args []string) error {
		stocks, err := app.api.ListStocks(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stocks)
		}
		printStockTable(cmd.OutOrStdout(), stocks)
		return nil
	},
}

// newMovementCmd builds `stock in` and `stock out`.
func newMovementCmd(t model.MovementType, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:         strings.ToLower(string(t)) + " <product-id> <quantity>",
		Short:       short,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{annotationRoute: "stocks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			notes, _ := cmd.Flags().GetString("notes")

			s, err := app.api.CreateStock(cmd.Context(), &model.StockInput{
				Product:         productID,
				QuantityChanged: qty,
				Type:            t,
				Notes:           notes,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), s)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s %d for product %d (movement %d)\n", s.Type, s.QuantityChanged, s.Product, s.ID)
			return nil
		},
	}
	cmd.Flags().StringP("notes", "n", "", "free-form notes")
	return cmd
}

var stockDeleteCmd = &cobra.Command{
	Use:         "delete <id>",
	Short:       "Delete a stock movement",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationRoute: "stocks"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := app.api.DeleteStock(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted stock movement %d\n", id)
		return nil
	},
}

func init() {
	stockCmd.AddCommand(stockListCmd, newMovementCmd(model.MovementIn, "Record stock received"), newMovementCmd(model.MovementOut, "Record stock issued"), stockDeleteCmd)
}
