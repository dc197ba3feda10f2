/*
strategy.go - Pension calculation strategies

PURPOSE:
  Derives a pension amount from a case file's accumulated career or
  cotisation data. Pure functions: no I/O, no clock, no mutation.

STRATEGIES:
  Quarter rate (career case files):
    averageSalary = mean(segment.AverageSalary)           0 if no segments
    quarters      = sum(segment.ValidatedQuarters)
    rate          = min(ceiling, quarters / fullRateQuarters * ceiling)
    amount        = averageSalary * rate / 100

    With the default rules the rate reaches its 50% ceiling at 160
    validated quarters and scales linearly below that.

  Cotisation period (cotisation case files):
    averageSalary = sum(period.ContributedSalary) / count  (2 dp, half-up)
    years         = sum(whole years between start and end)
    amount        = averageSalary * baseRate * years / divisor  (4 dp, half-up)

    With the default rules that is averageSalary * 0.75 * years / 100,
    i.e. 0.75% per contributed year. The "/ 100" on top of a rate already
    expressed as a fraction gives amounts two orders of magnitude below the
    quarter-rate strategy for comparable careers. The arithmetic is kept
    as is; every result of this strategy carries NoteScalingUnderReview so
    the question stays visible to the scheme owner.

EMPTY INPUT:
  A case file without segments/periods computes to a zero result. The
  cotisation strategy adds NoteNoContributions instead of dividing by zero.

ROUND TRIP:
  AmountFor(result.Breakdown) reproduces result.Amount: the breakdown holds
  everything the formula needs.

SEE ALSO:
  - types.go: CaseFile, CareerSegment, CotisationPeriod
  - dossier/casefile.go: ComputePension loads the aggregate and calls Engine
*/
package pension

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RULES - Named constants of the formulas
// =============================================================================

// Rules holds the tunable parameters of both strategies.
type Rules struct {
	// FullRateQuarters is the number of validated quarters at which the
	// quarter-rate strategy reaches RateCeilingPercent.
	FullRateQuarters int

	// RateCeilingPercent is the maximum share of the average salary paid
	// as pension, in percent.
	RateCeilingPercent decimal.Decimal

	// BaseRate is the multiplier applied per contributed year by the
	// cotisation strategy.
	BaseRate decimal.Decimal

	// BaseRateDivisor divides the cotisation product.
	BaseRateDivisor decimal.Decimal
}

const (
	DefaultFullRateQuarters = 160
	DefaultRateCeiling      = "50"
	DefaultBaseRate         = "0.75"
	DefaultBaseRateDivisor  = "100"
)

// DefaultRules returns the rules used when nothing is configured.
func DefaultRules() Rules {
	return Rules{
		FullRateQuarters:   DefaultFullRateQuarters,
		RateCeilingPercent: MustParseDecimal(DefaultRateCeiling),
		BaseRate:           MustParseDecimal(DefaultBaseRate),
		BaseRateDivisor:    MustParseDecimal(DefaultBaseRateDivisor),
	}
}

// Validate rejects rules that would divide by zero or pay negative pensions.
func (r Rules) Validate() error {
	if r.FullRateQuarters <= 0 {
		return &ValidationError{Field: "full_rate_quarters", Reason: "must be positive"}
	}
	if r.RateCeilingPercent.IsNegative() || r.RateCeilingPercent.GreaterThan(hundred) {
		return &ValidationError{Field: "rate_ceiling_percent", Reason: "must be within [0, 100]"}
	}
	if r.BaseRate.IsNegative() {
		return &ValidationError{Field: "base_rate", Reason: "must not be negative"}
	}
	if !r.BaseRateDivisor.IsPositive() {
		return &ValidationError{Field: "base_rate_divisor", Reason: "must be positive"}
	}
	return nil
}

// =============================================================================
// RESULT
// =============================================================================

// Breakdown is the supporting detail of a pension amount.
type Breakdown struct {
	AverageSalary decimal.Decimal
	// ValidatedUnits is validated quarters (quarter rate) or whole
	// contributed years (cotisation).
	ValidatedUnits int
	// Rate is the applied rate in percent (quarter rate) or the base rate
	// (cotisation).
	Rate decimal.Decimal
}

// Result is the outcome of a pension computation.
type Result struct {
	Strategy  string
	Amount    decimal.Decimal
	Breakdown Breakdown
	Notes     []string
}

const (
	NoteNoContributions    = "no contribution records: pension is zero"
	NoteScalingUnderReview = "cotisation formula divides by 100 after applying the base rate; amounts are pending confirmation by the scheme owner"
)

// Display is the rounded view served to clients: whole currency units for
// amounts, two decimals for the rate.
type Display struct {
	Amount         int64
	AverageSalary  int64
	ValidatedUnits int
	Rate           decimal.Decimal
}

// Display rounds the result half-up for presentation.
func (r Result) Display() Display {
	return Display{
		Amount:         r.Amount.Round(0).IntPart(),
		AverageSalary:  r.Breakdown.AverageSalary.Round(0).IntPart(),
		ValidatedUnits: r.Breakdown.ValidatedUnits,
		Rate:           r.Breakdown.Rate.Round(2),
	}
}

// =============================================================================
// STRATEGY
// =============================================================================

// Strategy computes the pension of one kind of case file.
type Strategy interface {
	Name() string
	Compute(cf CaseFile) Result
	// AmountFor recomputes the amount from a breakdown.
	AmountFor(b Breakdown) decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// -----------------------------------------------------------------------------
// Quarter rate
// -----------------------------------------------------------------------------

// QuarterRateStrategy computes career case files.
type QuarterRateStrategy struct {
	Rules Rules
}

func (QuarterRateStrategy) Name() string { return "quarter_rate" }

// RateFor returns the pension rate in percent for a number of validated
// quarters. Monotonic non-decreasing, constant from FullRateQuarters on.
func (s QuarterRateStrategy) RateFor(quarters int) decimal.Decimal {
	if quarters <= 0 {
		return decimal.Zero
	}
	rate := decimal.NewFromInt(int64(quarters)).
		Div(decimal.NewFromInt(int64(s.Rules.FullRateQuarters))).
		Mul(s.Rules.RateCeilingPercent)
	return decimal.Min(rate, s.Rules.RateCeilingPercent)
}

func (s QuarterRateStrategy) Compute(cf CaseFile) Result {
	average := decimal.Zero
	quarters := 0
	if n := len(cf.Careers); n > 0 {
		salaries := make([]decimal.Decimal, 0, n)
		for _, seg := range cf.Careers {
			salaries = append(salaries, seg.AverageSalary)
			quarters += seg.ValidatedQuarters
		}
		average = Mean(salaries)
	}

	b := Breakdown{
		AverageSalary:  average,
		ValidatedUnits: quarters,
		Rate:           s.RateFor(quarters),
	}
	return Result{Strategy: s.Name(), Amount: s.AmountFor(b), Breakdown: b}
}

// AmountFor derives the rate from the validated quarters of b, so feeding a
// breakdown back gives the same amount.
func (s QuarterRateStrategy) AmountFor(b Breakdown) decimal.Decimal {
	return b.AverageSalary.Mul(s.RateFor(b.ValidatedUnits)).Div(hundred)
}

// -----------------------------------------------------------------------------
// Cotisation period
// -----------------------------------------------------------------------------

// CotisationStrategy computes cotisation case files.
type CotisationStrategy struct {
	Rules Rules
}

func (CotisationStrategy) Name() string { return "cotisation_period" }

func (s CotisationStrategy) Compute(cf CaseFile) Result {
	if len(cf.Periods) == 0 {
		return Result{
			Strategy:  s.Name(),
			Amount:    decimal.Zero,
			Breakdown: Breakdown{AverageSalary: decimal.Zero, Rate: decimal.Zero},
			Notes:     []string{NoteNoContributions},
		}
	}

	total := decimal.Zero
	years := 0
	for _, p := range cf.Periods {
		total = total.Add(p.ContributedSalary)
		years += WholeYearsBetween(p.StartDate, p.EndDate)
	}

	b := Breakdown{
		AverageSalary:  total.DivRound(decimal.NewFromInt(int64(len(cf.Periods))), 2),
		ValidatedUnits: years,
		Rate:           s.Rules.BaseRate,
	}
	return Result{
		Strategy:  s.Name(),
		Amount:    s.AmountFor(b),
		Breakdown: b,
		Notes:     []string{NoteScalingUnderReview},
	}
}

func (s CotisationStrategy) AmountFor(b Breakdown) decimal.Decimal {
	return b.AverageSalary.
		Mul(s.Rules.BaseRate).
		Mul(decimal.NewFromInt(int64(b.ValidatedUnits))).
		DivRound(s.Rules.BaseRateDivisor, 4)
}

// =============================================================================
// ENGINE - Strategy selection by case-file kind
// =============================================================================

// Engine dispatches a case file to the strategy registered for its kind.
type Engine struct {
	strategies map[Kind]Strategy
}

// NewEngine registers both strategies with the given rules.
func NewEngine(rules Rules) *Engine {
	return &Engine{strategies: map[Kind]Strategy{
		KindCareer:     QuarterRateStrategy{Rules: rules},
		KindCotisation: CotisationStrategy{Rules: rules},
	}}
}

// StrategyFor returns the strategy of kind k.
func (e *Engine) StrategyFor(k Kind) (Strategy, error) {
	s, ok := e.strategies[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	return s, nil
}

// Compute returns the pension of cf. The caller loads Careers or Periods.
func (e *Engine) Compute(cf CaseFile) (Result, error) {
	s, err := e.StrategyFor(cf.Kind)
	if err != nil {
		return Result{}, err
	}
	return s.Compute(cf), nil
}
