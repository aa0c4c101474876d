package main

import (
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/model"
)

var dashboardCmd = &cobra.Command{
	Use:         "dashboard",
	Short:       "Show inventory metrics",
	GroupID:     "insights",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationRoute: "dashboard"},
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		d, err := app.api.Dashboard(cmd.Context(), days)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), d)
		}
		printDashboard(cmd.OutOrStdout(), days, d)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:         "predict <product-id>",
	Short:       "Show the demand forecast for a product",
	GroupID:     "insights",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationRoute: "predictions"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		days, _ := cmd.Flags().GetInt("days")
		p, err := app.api.Prediction(cmd.Context(), id, days)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		product, err := app.api.GetProduct(cmd.Context(), id)
		if err != nil {
			return err
		}
		printPrediction(cmd.OutOrStdout(), product, p)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().Int("days", model.DefaultForecastDays, "window for movement metrics")
	predictCmd.Flags().Int("days", model.DefaultForecastDays, "history window used for the forecast")
}
