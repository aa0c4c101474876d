package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/ims/internal/api"
	"github.com/alfredjeanlab/ims/internal/audit"
	"github.com/alfredjeanlab/ims/internal/gateway"
	"github.com/alfredjeanlab/ims/internal/guard"
	"github.com/alfredjeanlab/ims/internal/model"
	"github.com/alfredjeanlab/ims/internal/nav"
	"github.com/alfredjeanlab/ims/internal/ui"
)

const timeLayout = "2006-01-02 15:04"

// routeForCommand maps a command's route annotation to a screen. Names that
// need a parameter resolve to a protected route without one.
func routeForCommand(name string) guard.Route {
	if r, ok := nav.Lookup(name, ""); ok {
		return r
	}
	return guard.Route{Name: name, Protected: true}
}

// describeError renders an error for the user. Expired sessions get one
// fixed message; validation and backend messages are shown as sent.
func describeError(err error) string {
	var (
		gwErr *gateway.Error
		vErr  *model.ValidationError
	)
	switch {
	case errors.Is(err, gateway.ErrAuthExpired):
		return "session expired; run `ims login` to sign in again"
	case errors.Is(err, api.ErrCategoryInUse):
		return err.Error() + "; reassign or delete its products first"
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.As(err, &gwErr) && gwErr.Transport():
		return "cannot reach the server: " + gwErr.Error()
	}
	return err.Error()
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// columnWidth is the budget for one free-text column on the terminal behind w.
func columnWidth(w io.Writer) int {
	return max(20, ui.Width(w)/3)
}

func stockLabel(p *model.Product) string {
	qty := fmt.Sprintf("%d", p.Quantity)
	switch {
	case p.OutOfStock():
		return ui.RenderError(qty)
	case p.LowStock():
		return ui.RenderWarn(qty)
	}
	return qty
}

func printProductTable(w io.Writer, products []*model.Product) {
	width := columnWidth(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tQTY\tUNIT PRICE\tVALUE")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			truncate(p.Name, width),
			p.CategoryName,
			stockLabel(p),
			p.UnitPrice.StringFixed(2),
			p.Value().StringFixed(2),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d products, value %s\n", len(products), model.InventoryValue(products).StringFixed(2))
}

func printProduct(w io.Writer, p *model.Product) {
	fmt.Fprintf(w, "ID:          %d\n", p.ID)
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	fmt.Fprintf(w, "Category:    %s (%d)\n", p.CategoryName, p.Category)
	fmt.Fprintf(w, "Quantity:    %s\n", stockLabel(p))
	fmt.Fprintf(w, "Unit Price:  %s\n", p.UnitPrice.StringFixed(2))
	fmt.Fprintf(w, "Value:       %s\n", p.Value().StringFixed(2))
	if p.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", p.Description)
	}
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", p.UpdatedAt.Local().Format(timeLayout))
	}
}

func printCategoryTable(w io.Writer, cats []*model.Category) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, c := range cats {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, truncate(c.Description, 50))
	}
	tw.Flush()
}

func movementLabel(t model.MovementType) string {
	if t == model.MovementOut {
		return ui.RenderWarn(string(t))
	}
	return ui.RenderOK(string(t))
}

func printStockTable(w io.Writer, stocks []*model.StockMovement) {
	width := columnWidth(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tPRODUCT\tTYPE\tQTY\tBY\tNOTES")
	for _, s := range stocks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			s.CreatedAt.Local().Format(timeLayout),
			s.ProductName,
			movementLabel(s.Type),
			s.QuantityChanged,
			s.CreatedByUsername,
			truncate(s.Notes, width),
		)
	}
	tw.Flush()
}

func printUser(w io.Writer, u *model.User) {
	fmt.Fprintf(w, "Username:  %s\n", u.Username)
	fmt.Fprintf(w, "Name:      %s\n", u.FullName())
	fmt.Fprintf(w, "Email:     %s\n", u.Email)
}

func printPrediction(w io.Writer, product *model.Product, p *model.Prediction) {
	fmt.Fprintf(w, "Forecast for %s (%d)\n", product.Name, product.ID)
	stock := fmt.Sprint(product.Quantity)
	if p.NeedsReorder(product.Quantity) {
		stock += "  " + ui.RenderWarn("reorder now")
	}
	fmt.Fprintf(w, "Current stock:  %s\n", stock)
	fmt.Fprintf(w, "Reorder point:  %.0f\n", p.ReorderPoint)
	fmt.Fprintf(w, "Peak demand:    %.0f\n", p.PeakDemand)
	fmt.Fprintf(w, "Confidence:     %.0f%%\n", p.ConfidenceScore)
	if p.Alerts != "" {
		fmt.Fprintf(w, "Alert:          %s\n", ui.RenderWarn(p.Alerts))
	}
	if len(p.Dates) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tFORECAST")
	for i, d := range p.Dates {
		if i >= len(p.Forecast) {
			break
		}
		fmt.Fprintf(tw, "%s\t%.1f\n", strings.SplitN(d, "T", 2)[0], p.Forecast[i])
	}
	tw.Flush()
}

func printDashboard(w io.Writer, days int, d *model.Dashboard) {
	s := d.InventorySummary
	fmt.Fprintln(w, ui.RenderAccent("Inventory"))
	fmt.Fprintf(w, "  Products:       %d in %d categories\n", s.TotalProducts, s.TotalCategories)
	fmt.Fprintf(w, "  Low stock:      %s\n", ui.RenderWarn(fmt.Sprint(s.LowStockProducts)))
	fmt.Fprintf(w, "  Out of stock:   %s\n", ui.RenderError(fmt.Sprint(s.OutOfStockProducts)))
	fmt.Fprintf(w, "  Total value:    %s\n", s.TotalInventoryValue.StringFixed(2))

	m := d.StockMovements
	fmt.Fprintln(w, ui.RenderAccent(fmt.Sprintf("Movements (last %d days)", days)))
	fmt.Fprintf(w, "  %d total, %d in, %d out\n", m.RecentMovements, m.StockIn, m.StockOut)

	if len(d.TopProducts.MostActive) > 0 {
		fmt.Fprintln(w, ui.RenderAccent("Most active"))
		for _, p := range d.TopProducts.MostActive {
			fmt.Fprintf(w, "  %-30s %d movements\n", p.Name, p.MovementCount)
		}
	}
	if len(d.TopProducts.LowestStock) > 0 {
		fmt.Fprintln(w, ui.RenderAccent("Lowest stock"))
		for _, p := range d.TopProducts.LowestStock {
			fmt.Fprintf(w, "  %-30s %d\n", p.Name, p.Quantity)
		}
	}
	if len(d.RecentTransactions) > 0 {
		fmt.Fprintln(w, ui.RenderAccent("Recent transactions"))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, t := range d.RecentTransactions {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%s\n",
				t.CreatedAt.Local().Format(timeLayout), t.ProductName, movementLabel(t.Type), t.QuantityChanged, t.CreatedBy)
		}
		tw.Flush()
	}
}

func printAuditTable(w io.Writer, entries []*audit.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tREQUEST\tMETHOD\tPATH\tSTATUS\tOUTCOME\tMS")
	for _, e := range entries {
		outcome := e.Outcome
		if outcome != gateway.OK.String() {
			outcome = ui.RenderError(outcome)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%d\n",
			e.CompletedAt.Local().Format(timeLayout), e.RequestID, e.Method, e.Path, e.StatusCode, outcome, e.DurationMS)
	}
	tw.Flush()
}
