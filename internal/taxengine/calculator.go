// Package taxengine computes the tax liability for submitted form data. The
// rest of the system treats it as an opaque collaborator behind Calculator.
package taxengine

import "math"

type FormData struct {
	Income       float64 `json:"income"`
	Deductions   float64 `json:"deductions"`
	Dependents   int     `json:"dependents"`
	FilingStatus string  `json:"filingStatus"`
}

type Result struct {
	TaxableIncome float64 `json:"taxableIncome"`
	Liability     float64 `json:"liability"`
	EffectiveRate float64 `json:"effectiveRate"`
}

type Calculator interface {
	Calculate(form FormData) Result
}

type bracket struct {
	upTo float64 // upper bound of the bracket, inclusive
	rate float64
}

// BracketCalculator applies a progressive rate schedule with a standard
// deduction and a flat per-dependent credit.
type BracketCalculator struct {
	standardDeduction float64
	dependentCredit   float64
	brackets          []bracket
}

func NewBracketCalculator() *BracketCalculator {
	return &BracketCalculator{
		standardDeduction: 13850,
		dependentCredit:   2000,
		brackets: []bracket{
			{upTo: 11000, rate: 0.10},
			{upTo: 44725, rate: 0.12},
			{upTo: 95375, rate: 0.22},
			{upTo: 182100, rate: 0.24},
			{upTo: 231250, rate: 0.32},
			{upTo: 578125, rate: 0.35},
			{upTo: math.Inf(1), rate: 0.37},
		},
	}
}

func (c *BracketCalculator) Calculate(form FormData) Result {
	deductions := form.Deductions
	if deductions < c.standardDeduction {
		deductions = c.standardDeduction
	}

	taxable := form.Income - deductions
	if taxable < 0 {
		taxable = 0
	}

	liability := 0.0
	lower := 0.0
	for _, b := range c.brackets {
		if taxable <= lower {
			break
		}
		upper := math.Min(taxable, b.upTo)
		liability += (upper - lower) * b.rate
		lower = b.upTo
	}

	liability -= float64(form.Dependents) * c.dependentCredit
	if liability < 0 {
		liability = 0
	}

	effectiveRate := 0.0
	if form.Income > 0 {
		effectiveRate = liability / form.Income
	}

	return Result{
		TaxableIncome: round2(taxable),
		Liability:     round2(liability),
		EffectiveRate: round4(effectiveRate),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
