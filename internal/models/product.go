package models

// Product is a fixed-term investment offering. The catalog is static; rates
// are a band, the rate actually applied each month is set by an operator
// when the return is posted.
type Product struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	TermMonths     int     `json:"term_months"`
	LockMonths     int     `json:"lock_months"`
	MinMonthlyRate float64 `json:"min_monthly_rate"`
	MaxMonthlyRate float64 `json:"max_monthly_rate"`
	MinAmount      int64   `json:"min_amount"`
	Available      bool    `json:"available"`
}

// Products is the catalog of investment products.
var Products = []Product{
	{
		ID:             "sdtc_6m",
		Name:           "SDTC 6 Meses",
		TermMonths:     6,
		LockMonths:     6,
		MinMonthlyRate: 2.0,
		MaxMonthlyRate: 4.0,
		MinAmount:      100_000,
		Available:      true,
	},
}

// ProductByID looks a product up in the catalog. Returns nil when the id is
// unknown or the product is not available.
func ProductByID(id string) *Product {
	for i := range Products {
		if Products[i].ID == id && Products[i].Available {
			return &Products[i]
		}
	}
	return nil
}
