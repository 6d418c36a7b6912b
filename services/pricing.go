package services

import (
	"math"
	"sort"

	"loyaltystay/constants"
	"loyaltystay/models"
)

// Conversion rates are held as thousandths so point math stays in integers.
func rateMilli(perDollar float64) int64 {
	return int64(math.Round(perDollar * 1000))
}

// CentsToPoints converts cents to the points needed to cover them, rounding up.
func CentsToPoints(cents int64, pointsPerDollar float64) int64 {
	milli := rateMilli(pointsPerDollar)
	if cents <= 0 || milli <= 0 {
		return 0
	}
	num := cents * milli
	return (num + 100000 - 1) / 100000
}

// PointsToCents converts points to the cents they cover, rounding down.
func PointsToCents(points int64, pointsPerDollar float64) int64 {
	milli := rateMilli(pointsPerDollar)
	if points <= 0 || milli <= 0 {
		return 0
	}
	return points * 100000 / milli
}

// EarnedPoints is what a guest earns for paying cents, rounding down.
func EarnedPoints(cents int64, earnPerDollar float64) int64 {
	milli := rateMilli(earnPerDollar)
	if cents <= 0 || milli <= 0 {
		return 0
	}
	return cents * milli / 100000
}

// PriceInput is everything needed to price a stay.
type PriceInput struct {
	Currency        string
	NightlyRates    []models.NightlyRate // price of one unit per night
	Quantity        int
	Packages        []models.UpsellPackage
	PackageLines    []models.PackagePriceDetail // already priced, kept as is
	Fees            []models.DestinationFee
	PointsPerDollar float64
	PointsToApply   int64
}

// BuildPriceDetail prices a stay in cents and points.
func BuildPriceDetail(in PriceInput) models.PriceDetail {
	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}
	nights := len(in.NightlyRates)
	ppd := in.PointsPerDollar

	pd := models.PriceDetail{
		Currency:        in.Currency,
		Nights:          nights,
		Quantity:        qty,
		PointsPerDollar: ppd,
		NightlyRates:    append([]models.NightlyRate(nil), in.NightlyRates...),
		Fees:            []models.FeeLine{},
		UpsellPackages:  []models.PackagePriceDetail{},
	}

	for _, n := range in.NightlyRates {
		pd.AccommodationTotalInCents += n.AmountInCents * int64(qty)
	}

	pkgs := append([]models.UpsellPackage(nil), in.Packages...)
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })
	for _, p := range pkgs {
		units := 1
		if p.PricingType == constants.PricingPerNight {
			units = nights
		}
		total := p.PriceInCents * int64(units)
		pd.UpsellPackageTotalInCents += total
		pd.UpsellPackages = append(pd.UpsellPackages, models.PackagePriceDetail{
			UpsellPackageID:  p.ID,
			Name:             p.Name,
			PricingType:      p.PricingType,
			UnitPriceInCents: p.PriceInCents,
			Units:            units,
			TotalInCents:     total,
			TotalInPoints:    CentsToPoints(total, ppd),
		})
	}
	for _, line := range in.PackageLines {
		pd.UpsellPackageTotalInCents += line.TotalInCents
		pd.UpsellPackages = append(pd.UpsellPackages, line)
	}
	sort.SliceStable(pd.UpsellPackages, func(i, j int) bool {
		return pd.UpsellPackages[i].UpsellPackageID < pd.UpsellPackages[j].UpsellPackageID
	})

	pd.SubTotalInCents = pd.AccommodationTotalInCents + pd.UpsellPackageTotalInCents

	for _, f := range in.Fees {
		var amount int64
		switch f.Kind {
		case constants.FeeKindPercent:
			// basis points, half-up
			amount = (pd.SubTotalInCents*f.Amount + 5000) / 10000
		case constants.FeeKindPerNight:
			amount = f.Amount * int64(nights) * int64(qty)
		case constants.FeeKindPerStay:
			amount = f.Amount * int64(qty)
		default:
			continue
		}
		pd.TaxesAndFeesTotalInCents += amount
		pd.Fees = append(pd.Fees, models.FeeLine{
			Name:           f.Name,
			Kind:           f.Kind,
			AmountInCents:  amount,
			AmountInPoints: CentsToPoints(amount, ppd),
		})
	}

	pd.GrandTotalInCents = pd.SubTotalInCents + pd.TaxesAndFeesTotalInCents

	pd.AccommodationTotalInPoints = CentsToPoints(pd.AccommodationTotalInCents, ppd)
	pd.UpsellPackageTotalInPoints = CentsToPoints(pd.UpsellPackageTotalInCents, ppd)
	pd.SubTotalInPoints = CentsToPoints(pd.SubTotalInCents, ppd)
	pd.TaxesAndFeesTotalInPoints = CentsToPoints(pd.TaxesAndFeesTotalInCents, ppd)
	pd.GrandTotalInPoints = CentsToPoints(pd.GrandTotalInCents, ppd)

	ApplyPoints(&pd, in.PointsToApply)
	return pd
}

// ApplyPoints redeems up to points against the grand total and recomputes the
// cash due.
func ApplyPoints(pd *models.PriceDetail, points int64) {
	if points < 0 {
		points = 0
	}
	if points > pd.GrandTotalInPoints {
		points = pd.GrandTotalInPoints
	}
	pd.PointsApplied = points
	if points == pd.GrandTotalInPoints {
		pd.PointsAppliedInCents = pd.GrandTotalInCents
		if points == 0 {
			pd.PointsAppliedInCents = 0
		}
	} else {
		pd.PointsAppliedInCents = PointsToCents(points, pd.PointsPerDollar)
		if pd.PointsAppliedInCents > pd.GrandTotalInCents {
			pd.PointsAppliedInCents = pd.GrandTotalInCents
		}
	}
	pd.CashDueInCents = pd.GrandTotalInCents - pd.PointsAppliedInCents
}
