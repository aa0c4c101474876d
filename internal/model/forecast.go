package model

// Prediction is the server-computed demand forecast for one product. The
// client only displays it.
type Prediction struct {
	// Dates are the forecast days as sent by the server (ISO 8601, possibly
	// without a zone).
	Dates      []string  `json:"dates"`
	Historical []float64 `json:"historical"`
	Forecast   []float64 `json:"forecast"`
	// The server rounds these, but may still send them as floats ("12.0").
	ReorderPoint    float64 `json:"reorderPoint"`
	PeakDemand      float64 `json:"peakDemand"`
	ConfidenceScore float64 `json:"confidenceScore"`
	// Alerts is empty when stock is above the reorder point.
	Alerts string `json:"alerts"`
}

// DefaultForecastDays is the history window used when none is given.
const DefaultForecastDays = 30

// NeedsReorder reports whether current stock is at or below the reorder point.
func (p *Prediction) NeedsReorder(currentStock int) bool {
	return float64(currentStock) <= p.ReorderPoint
}
