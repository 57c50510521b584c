package dialogue

// EconomicEstimate is the pipeline-leak cost surfaced at the diagnosis
// turn. Monthly and daily values are straight divisions of the annual
// figure; this is a display estimate, not accounting.
type EconomicEstimate struct {
	AnnualCost          float64 `json:"annualCost"`
	MonthlyCost         float64 `json:"monthlyCost"`
	DailyCost           float64 `json:"dailyCost"`
	RelatableComparison string  `json:"relatableComparison,omitempty"`
}

// NewEconomicEstimate derives the monthly and daily breakdowns from an
// annual figure.
func NewEconomicEstimate(annualCost float64, comparison string) EconomicEstimate {
	return EconomicEstimate{
		AnnualCost:          annualCost,
		MonthlyCost:         annualCost / 12,
		DailyCost:           annualCost / 365,
		RelatableComparison: comparison,
	}
}
