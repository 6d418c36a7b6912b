package services

import (
	"testing"

	"loyaltystay/constants"
	"loyaltystay/models"
)

func TestCentsToPoints(t *testing.T) {
	cases := []struct {
		cents int64
		ppd   float64
		want  int64
	}{
		{22000, 100, 22000},
		{1999, 1.5, 30},
		{100, 1, 1},
		{1, 1, 1},
		{0, 100, 0},
		{500, 0, 0},
		{110, 0.1, 1},
	}
	for _, tc := range cases {
		if got := CentsToPoints(tc.cents, tc.ppd); got != tc.want {
			t.Errorf("CentsToPoints(%d, %v) = %d, want %d", tc.cents, tc.ppd, got, tc.want)
		}
	}
	if got := PointsToCents(30, 1.5); got != 2000 {
		t.Errorf("PointsToCents(30, 1.5) = %d, want 2000", got)
	}
	if got := EarnedPoints(12345, 10); got != 1234 {
		t.Errorf("EarnedPoints(12345, 10) = %d, want 1234", got)
	}
}

func TestBuildPriceDetailTwoNights(t *testing.T) {
	pd := BuildPriceDetail(PriceInput{
		Currency: "USD",
		NightlyRates: []models.NightlyRate{
			{Date: "2026-06-01", AmountInCents: 100},
			{Date: "2026-06-02", AmountInCents: 120},
		},
		PointsPerDollar: 100,
	})
	if pd.AccommodationTotalInCents != 220 {
		t.Fatalf("accommodation total = %d, want 220", pd.AccommodationTotalInCents)
	}
	if pd.AccommodationTotalInPoints != CentsToPoints(220, 100) {
		t.Fatalf("accommodation points = %d", pd.AccommodationTotalInPoints)
	}
	if pd.GrandTotalInCents != 220 || pd.CashDueInCents != 220 {
		t.Fatalf("grand = %d cash = %d", pd.GrandTotalInCents, pd.CashDueInCents)
	}
}

func TestBuildPriceDetailPackagesAndFees(t *testing.T) {
	pd := BuildPriceDetail(PriceInput{
		Currency: "USD",
		NightlyRates: []models.NightlyRate{
			{Date: "2026-06-01", AmountInCents: 15000},
			{Date: "2026-06-02", AmountInCents: 15000},
		},
		Quantity: 1,
		Packages: []models.UpsellPackage{
			{ID: 9, Name: "Breakfast", PriceInCents: 2500, PricingType: constants.PricingPerNight},
			{ID: 4, Name: "Late checkout", PriceInCents: 1000, PricingType: constants.PricingPerStay},
		},
		Fees: []models.DestinationFee{
			{Name: "Occupancy tax", Kind: constants.FeeKindPercent, Amount: 1250},
			{Name: "Resort fee", Kind: constants.FeeKindPerNight, Amount: 3000},
			{Name: "Cleaning", Kind: constants.FeeKindPerStay, Amount: 4500},
		},
		PointsPerDollar: 100,
	})

	if pd.UpsellPackageTotalInCents != 6000 {
		t.Fatalf("package total = %d, want 6000", pd.UpsellPackageTotalInCents)
	}
	if pd.UpsellPackages[0].UpsellPackageID != 4 || pd.UpsellPackages[1].Units != 2 {
		t.Fatalf("package lines = %+v", pd.UpsellPackages)
	}
	// 12.5% of 36000 = 4500, + 6000 resort + 4500 cleaning
	if pd.TaxesAndFeesTotalInCents != 15000 {
		t.Fatalf("taxes = %d, want 15000", pd.TaxesAndFeesTotalInCents)
	}
	if pd.GrandTotalInCents != pd.AccommodationTotalInCents+pd.UpsellPackageTotalInCents+pd.TaxesAndFeesTotalInCents {
		t.Fatalf("grand total is not the sum of its parts: %+v", pd)
	}
	if pd.GrandTotalInPoints != CentsToPoints(pd.GrandTotalInCents, 100) {
		t.Fatalf("grand points = %d", pd.GrandTotalInPoints)
	}
}

func TestBuildPriceDetailKeepsPackageLines(t *testing.T) {
	kept := models.PackagePriceDetail{
		UpsellPackageID:  5,
		Name:             "Breakfast",
		PricingType:      constants.PricingPerNight,
		UnitPriceInCents: 1500,
		Units:            2,
		TotalInCents:     3000,
		TotalInPoints:    3000,
	}
	pd := BuildPriceDetail(PriceInput{
		Currency: "USD",
		NightlyRates: []models.NightlyRate{
			{Date: "2026-06-01", AmountInCents: 10000},
			{Date: "2026-06-02", AmountInCents: 10000},
			{Date: "2026-06-03", AmountInCents: 10000},
		},
		Packages:        []models.UpsellPackage{{ID: 2, PriceInCents: 500, PricingType: constants.PricingPerStay}},
		PackageLines:    []models.PackagePriceDetail{kept},
		PointsPerDollar: 100,
	})
	if len(pd.UpsellPackages) != 2 || pd.UpsellPackages[1] != kept {
		t.Fatalf("package lines = %+v", pd.UpsellPackages)
	}
	if pd.UpsellPackageTotalInCents != 3500 || pd.GrandTotalInCents != 33500 {
		t.Fatalf("totals = %d / %d", pd.UpsellPackageTotalInCents, pd.GrandTotalInCents)
	}
}

func TestApplyPoints(t *testing.T) {
	base := BuildPriceDetail(PriceInput{
		Currency:        "USD",
		NightlyRates:    []models.NightlyRate{{Date: "2026-06-01", AmountInCents: 10001}},
		PointsPerDollar: 100,
	})

	t.Run("partial", func(t *testing.T) {
		pd := base
		ApplyPoints(&pd, 5000)
		if pd.PointsApplied != 5000 || pd.PointsAppliedInCents != 5000 || pd.CashDueInCents != 5001 {
			t.Fatalf("partial = %+v", pd)
		}
	})

	t.Run("capped at total", func(t *testing.T) {
		pd := base
		ApplyPoints(&pd, 1_000_000)
		if pd.PointsApplied != pd.GrandTotalInPoints || pd.CashDueInCents != 0 {
			t.Fatalf("capped = applied %d cash %d", pd.PointsApplied, pd.CashDueInCents)
		}
	})

	t.Run("none", func(t *testing.T) {
		pd := base
		ApplyPoints(&pd, 0)
		if pd.PointsAppliedInCents != 0 || pd.CashDueInCents != pd.GrandTotalInCents {
			t.Fatalf("none = %+v", pd)
		}
	})
}
