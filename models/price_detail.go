package models

// PriceDetail is the frozen cents and points breakdown of a stay.
type PriceDetail struct {
	Currency        string        `json:"currency"`
	Nights          int           `json:"nights"`
	Quantity        int           `json:"quantity"`
	PointsPerDollar float64       `json:"pointsPerDollar"`
	NightlyRates    []NightlyRate `json:"nightlyRates"`

	AccommodationTotalInCents  int64 `json:"accommodationTotalInCents"`
	AccommodationTotalInPoints int64 `json:"accommodationTotalInPoints"`
	UpsellPackageTotalInCents  int64 `json:"upsellPackageTotalInCents"`
	UpsellPackageTotalInPoints int64 `json:"upsellPackageTotalInPoints"`
	SubTotalInCents            int64 `json:"subTotalInCents"`
	SubTotalInPoints           int64 `json:"subTotalInPoints"`
	TaxesAndFeesTotalInCents   int64 `json:"taxesAndFeesTotalInCents"`
	TaxesAndFeesTotalInPoints  int64 `json:"taxesAndFeesTotalInPoints"`
	GrandTotalInCents          int64 `json:"grandTotalInCents"`
	GrandTotalInPoints         int64 `json:"grandTotalInPoints"`

	Fees           []FeeLine            `json:"fees"`
	UpsellPackages []PackagePriceDetail `json:"upsellPackages"`

	PointsApplied        int64 `json:"pointsApplied"`
	PointsAppliedInCents int64 `json:"pointsAppliedInCents"`
	CashDueInCents       int64 `json:"cashDueInCents"`
}

type NightlyRate struct {
	Date          string `json:"date"`
	AmountInCents int64  `json:"amountInCents"`
}

type FeeLine struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	AmountInCents  int64  `json:"amountInCents"`
	AmountInPoints int64  `json:"amountInPoints"`
}

type PackagePriceDetail struct {
	UpsellPackageID  uint   `json:"upsellPackageId"`
	Name             string `json:"name"`
	PricingType      string `json:"pricingType"`
	UnitPriceInCents int64  `json:"unitPriceInCents"`
	Units            int    `json:"units"`
	TotalInCents     int64  `json:"totalInCents"`
	TotalInPoints    int64  `json:"totalInPoints"`
}
