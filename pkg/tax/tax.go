// Package tax implements Nigerian personal income tax calculation under
// the Nigeria Tax Act 2025: progressive brackets, the Consolidated Relief
// Allowance, pension relief and the minimum-tax floor. All arithmetic uses
// decimals with half-up rounding to two places.
package tax

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Bracket is one band of the progressive schedule. A zero Limit marks the
// unbounded top band.
type Bracket struct {
	Limit decimal.Decimal
	Rate  decimal.Decimal
}

// Progressive schedule, amounts in NGN.
var brackets = []Bracket{
	{Limit: decimal.NewFromInt(300_000), Rate: decimal.NewFromFloat(0.07)},
	{Limit: decimal.NewFromInt(300_000), Rate: decimal.NewFromFloat(0.11)},
	{Limit: decimal.NewFromInt(500_000), Rate: decimal.NewFromFloat(0.15)},
	{Limit: decimal.NewFromInt(500_000), Rate: decimal.NewFromFloat(0.19)},
	{Limit: decimal.NewFromInt(1_600_000), Rate: decimal.NewFromFloat(0.21)},
	{Rate: decimal.NewFromFloat(0.24)},
}

var (
	minimumTaxThreshold = decimal.NewFromInt(30_000_000)
	minimumTaxRate      = decimal.NewFromFloat(0.01)

	craFixedAmount = decimal.NewFromInt(200_000)
	craPercentage  = decimal.NewFromFloat(0.20)

	pensionEmployeeRate = decimal.NewFromFloat(0.08)
)

// BracketResult reports the tax attributed to a single band.
type BracketResult struct {
	Bracket       string          `json:"bracket"`
	RatePercent   float64         `json:"rate_percent"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	Tax           decimal.Decimal `json:"tax"`
}

// Result is a complete tax calculation.
type Result struct {
	GrossIncome        decimal.Decimal `json:"gross_income"`
	TotalAllowances    decimal.Decimal `json:"total_allowances"`
	TotalReliefs       decimal.Decimal `json:"total_reliefs"`
	ConsolidatedRelief decimal.Decimal `json:"consolidated_relief"`
	TaxableIncome      decimal.Decimal `json:"taxable_income"`
	TaxDue             decimal.Decimal `json:"tax_due"`
	EffectiveRate      decimal.Decimal `json:"effective_rate"`
	Breakdown          []BracketResult `json:"breakdown"`
	MinimumTaxApplies  bool            `json:"minimum_tax_applies"`
	MinimumTaxAmount   decimal.Decimal `json:"minimum_tax_amount"`
	NetIncome          decimal.Decimal `json:"net_income"`
	MonthlyTax         decimal.Decimal `json:"monthly_tax"`
}

// Input describes one taxpayer's annual figures in NGN.
type Input struct {
	AnnualIncome        decimal.Decimal
	Allowances          decimal.Decimal
	Reliefs             decimal.Decimal
	PensionContribution decimal.Decimal
	// IncludeCRA applies the Consolidated Relief Allowance automatically.
	IncludeCRA bool
}

func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ConsolidatedRelief computes the CRA: the greater of ₦200,000 and 1% of
// gross income, plus 20% of gross income.
func ConsolidatedRelief(grossIncome decimal.Decimal) decimal.Decimal {
	fixedOrPercentage := craFixedAmount
	onePercent := grossIncome.Mul(minimumTaxRate)
	if onePercent.GreaterThan(fixedOrPercentage) {
		fixedOrPercentage = onePercent
	}
	return fixedOrPercentage.Add(grossIncome.Mul(craPercentage))
}

// PensionRelief caps the employee pension contribution at the tax-exempt
// maximum of 8% of gross income.
func PensionRelief(grossIncome, contribution decimal.Decimal) decimal.Decimal {
	maxExempt := grossIncome.Mul(pensionEmployeeRate)
	if contribution.LessThan(maxExempt) {
		return contribution
	}
	return maxExempt
}

// MinimumTax returns 1% of gross income when it exceeds ₦30 million, zero
// otherwise.
func MinimumTax(grossIncome decimal.Decimal) decimal.Decimal {
	if grossIncome.GreaterThan(minimumTaxThreshold) {
		return roundHalfUp(grossIncome.Mul(minimumTaxRate))
	}
	return decimal.Zero
}

// Breakdown applies the progressive schedule to taxable income and
// returns the total tax with the per-band detail.
func Breakdown(taxableIncome decimal.Decimal) (decimal.Decimal, []BracketResult) {
	totalTax := decimal.Zero
	remaining := taxableIncome
	var breakdown []BracketResult
	cumulativeLower := decimal.Zero

	for _, b := range brackets {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		unbounded := b.Limit.IsZero()
		taxableInBracket := remaining
		if !unbounded && b.Limit.LessThan(remaining) {
			taxableInBracket = b.Limit
		}
		taxInBracket := roundHalfUp(taxableInBracket.Mul(b.Rate))

		if taxableInBracket.GreaterThan(decimal.Zero) {
			var bracketRange string
			if unbounded {
				bracketRange = fmt.Sprintf("Above ₦%s", formatNaira(cumulativeLower))
			} else {
				bracketRange = fmt.Sprintf("₦%s - ₦%s",
					formatNaira(cumulativeLower), formatNaira(cumulativeLower.Add(b.Limit)))
			}

			rate, _ := b.Rate.Mul(decimal.NewFromInt(100)).Float64()
			breakdown = append(breakdown, BracketResult{
				Bracket:       bracketRange,
				RatePercent:   rate,
				TaxableAmount: taxableInBracket,
				Tax:           taxInBracket,
			})

			totalTax = totalTax.Add(taxInBracket)
			if !unbounded {
				cumulativeLower = cumulativeLower.Add(b.Limit)
			}
		}

		remaining = remaining.Sub(taxableInBracket)
	}

	return totalTax, breakdown
}

// Calculate computes the full liability for the given input.
func Calculate(in Input) (*Result, error) {
	if in.AnnualIncome.IsNegative() {
		return nil, errors.New("annual income cannot be negative")
	}
	if in.Allowances.IsNegative() {
		return nil, errors.New("allowances cannot be negative")
	}
	if in.Reliefs.IsNegative() {
		return nil, errors.New("reliefs cannot be negative")
	}
	if in.PensionContribution.IsNegative() {
		return nil, errors.New("pension contribution cannot be negative")
	}

	grossIncome := in.AnnualIncome

	cra := decimal.Zero
	if in.IncludeCRA {
		cra = ConsolidatedRelief(grossIncome)
	}

	totalReliefs := in.Reliefs.Add(PensionRelief(grossIncome, in.PensionContribution))

	taxableIncome := grossIncome.Sub(in.Allowances).Sub(totalReliefs).Sub(cra)
	if taxableIncome.IsNegative() {
		taxableIncome = decimal.Zero
	}

	taxDue, breakdown := Breakdown(taxableIncome)

	minimumTax := MinimumTax(grossIncome)
	minimumTaxApplies := minimumTax.GreaterThan(taxDue)

	finalTax := taxDue
	if grossIncome.GreaterThan(minimumTaxThreshold) && minimumTax.GreaterThan(finalTax) {
		finalTax = minimumTax
	}

	effectiveRate := decimal.Zero
	if grossIncome.GreaterThan(decimal.Zero) {
		effectiveRate = roundHalfUp(finalTax.Div(grossIncome).Mul(decimal.NewFromInt(100)))
	}

	return &Result{
		GrossIncome:        grossIncome,
		TotalAllowances:    in.Allowances,
		TotalReliefs:       totalReliefs,
		ConsolidatedRelief: cra,
		TaxableIncome:      taxableIncome,
		TaxDue:             finalTax,
		EffectiveRate:      effectiveRate,
		Breakdown:          breakdown,
		MinimumTaxApplies:  minimumTaxApplies,
		MinimumTaxAmount:   minimumTax,
		NetIncome:          grossIncome.Sub(finalTax),
		MonthlyTax:         roundHalfUp(finalTax.Div(decimal.NewFromInt(12))),
	}, nil
}

// formatNaira renders a whole-naira amount with thousands separators.
func formatNaira(d decimal.Decimal) string {
	n := d.IntPart()
	neg := n < 0
	if neg {
		n = -n
	}

	s := fmt.Sprintf("%d", n)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
