// Package pricing implements the deterministic quote computation: universal
// inches, catalog multipliers, markups, labor, options and tax, aggregated
// under a minimum-order floor.
package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Spec is one window line item as supplied by the caller.
type Spec struct {
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Quantity   int      `json:"quantity"`
	WindowType string   `json:"windowType"`
	Material   string   `json:"material"`
	Brand      string   `json:"brand"`
	Options    []string `json:"options,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Config is the pricing configuration a quote is computed under. Caller
// values override the catalog's active configuration per request.
type Config struct {
	PricePerUI        float64 `json:"pricePerUI"`
	SalesMarkup       float64 `json:"salesMarkup"`
	InstallationRate  float64 `json:"installationRate"`
	TaxRate           float64 `json:"taxRate"`
	HiddenMarkup      float64 `json:"hiddenMarkup"`
	ApplyHiddenMarkup bool    `json:"applyHiddenMarkup"`
	LaborBaseRate     float64 `json:"laborBaseRate"`
	MinimumOrderValue float64 `json:"minimumOrderValue"`
}

// DefaultConfig is the built-in configuration used when the catalog is
// empty and the caller supplies nothing.
func DefaultConfig() Config {
	return Config{
		PricePerUI:        5.58,
		SalesMarkup:       1.10,
		InstallationRate:  0.12,
		TaxRate:           0.055,
		HiddenMarkup:      1.15,
		ApplyHiddenMarkup: false,
		LaborBaseRate:     150.0,
		MinimumOrderValue: 500.0,
	}
}

// Multipliers are the three catalog factors applied to a line's base price.
// Each defaults to 1.0 on lookup miss.
type Multipliers struct {
	Material float64 `json:"material"`
	Type     float64 `json:"type"`
	Brand    float64 `json:"brand"`
}

// Lookup supplies catalog multipliers. Implementations never fail; a miss
// yields 1.0 so a pricing call always proceeds.
type Lookup interface {
	MaterialMultiplier(name string) float64
	TypeMultiplier(name string) float64
	BrandMultiplier(name string) float64
}

// Line is the priced result for one Spec.
type Line struct {
	Spec            Spec        `json:"spec"`
	UniversalInches float64     `json:"universalInches"`
	Multipliers     Multipliers `json:"multipliers"`
	UnitPrice       float64     `json:"unitPrice"`
	Subtotal        float64     `json:"subtotal"`
	LaborCost       float64     `json:"laborCost"`
	OptionsCost     float64     `json:"optionsCost"`
	TaxAmount       float64     `json:"taxAmount"`
	TotalPrice      float64     `json:"totalPrice"`
}

// EnergySavings are advisory estimates; they do not feed back into totals.
type EnergySavings struct {
	AnnualSavings   float64 `json:"annualSavings"`
	LifetimeSavings float64 `json:"lifetimeSavings"`
	PaybackYears    float64 `json:"paybackYears"`
}

// Quote aggregates all lines computed under one Config.
type Quote struct {
	Lines                 []Line        `json:"lines"`
	Subtotal              float64       `json:"subtotal"`
	TotalLabor            float64       `json:"totalLabor"`
	TotalTax              float64       `json:"totalTax"`
	GrandTotal            float64       `json:"grandTotal"`
	FinalTotal            float64       `json:"finalTotal"`
	MinimumApplied        bool          `json:"minimumApplied"`
	EstimatedInstallation float64       `json:"estimatedInstallation"`
	EnergySavings         EnergySavings `json:"energySavings"`
	Config                Config        `json:"config"`
	GeneratedAt           time.Time     `json:"generatedAt"`
}

// Error reports a line whose computation could not complete. A quote with
// any failing line fails as a whole; no partial quotes are returned.
type Error struct {
	LineIndex int
	Reason    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pricing line %d: %s", e.LineIndex, e.Reason)
}

// Engine computes lines and quotes against a multiplier lookup.
type Engine struct {
	lookup Lookup
}

func NewEngine(lookup Lookup) *Engine {
	return &Engine{lookup: lookup}
}

// round2 applies banker's rounding to two decimals. Rounding happens only
// at the documented points: line subtotal, labor, tax, total. Everything
// in between is held at full precision.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

func checkSpec(spec Spec) error {
	if spec.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", spec.Quantity)
	}
	for _, v := range []float64{spec.Width, spec.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("dimension is not a finite number")
		}
		if v <= 0 {
			return fmt.Errorf("dimension must be positive, got %v", v)
		}
	}
	return nil
}

// CalculateLine prices one window spec under one configuration.
func (e *Engine) CalculateLine(spec Spec, cfg Config) (Line, error) {
	if err := checkSpec(spec); err != nil {
		return Line{}, err
	}

	mults := Multipliers{
		Material: e.lookup.MaterialMultiplier(spec.Material),
		Type:     e.lookup.TypeMultiplier(spec.WindowType),
		Brand:    e.lookup.BrandMultiplier(spec.Brand),
	}

	qty := decimal.NewFromInt(int64(spec.Quantity))
	hidden := decimal.NewFromInt(1)
	if cfg.ApplyHiddenMarkup {
		hidden = decimal.NewFromFloat(cfg.HiddenMarkup)
	}

	// ui = (width + height) / 2
	ui := decimal.NewFromFloat(spec.Width).
		Add(decimal.NewFromFloat(spec.Height)).
		Div(decimal.NewFromInt(2))

	unit := ui.
		Mul(decimal.NewFromFloat(cfg.PricePerUI)).
		Mul(decimal.NewFromFloat(mults.Material)).
		Mul(decimal.NewFromFloat(mults.Type)).
		Mul(decimal.NewFromFloat(mults.Brand)).
		Mul(decimal.NewFromFloat(cfg.SalesMarkup)).
		Mul(hidden)

	subtotal := round2(unit.Mul(qty))

	options := decimal.Zero
	for _, name := range spec.Options {
		if price, ok := OptionPrice(name); ok {
			options = options.Add(decimal.NewFromFloat(price))
		}
	}
	options = options.Mul(qty)

	laborPerUI := decimal.NewFromFloat(cfg.LaborBaseRate).Div(decimal.NewFromInt(100))
	labor := round2(ui.
		Mul(laborPerUI).
		Mul(decimal.NewFromFloat(Complexity(spec.WindowType))).
		Mul(qty).
		Mul(hidden))

	preTax := subtotal.Add(options).Add(labor)
	tax := round2(preTax.Mul(decimal.NewFromFloat(cfg.TaxRate)))
	total := round2(preTax.Add(tax))

	if total.IsNegative() {
		return Line{}, fmt.Errorf("computed a negative total")
	}

	uiF, _ := ui.Float64()
	line := Line{
		Spec:            spec,
		UniversalInches: uiF,
		Multipliers:     mults,
		UnitPrice:       round2(unit).InexactFloat64(),
		Subtotal:        subtotal.InexactFloat64(),
		LaborCost:       labor.InexactFloat64(),
		OptionsCost:     options.InexactFloat64(),
		TaxAmount:       tax.InexactFloat64(),
		TotalPrice:      total.InexactFloat64(),
	}
	return line, nil
}

// CalculateQuote prices every spec and aggregates. Line ordering matches
// input ordering. Any failing line fails the whole quote.
func (e *Engine) CalculateQuote(specs []Spec, cfg Config) (*Quote, error) {
	if len(specs) == 0 {
		return nil, &Error{LineIndex: -1, Reason: "no window specifications supplied"}
	}

	lines := make([]Line, 0, len(specs))
	subtotal, labor, tax, grand := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero

	for i, spec := range specs {
		line, err := e.CalculateLine(spec, cfg)
		if err != nil {
			return nil, &Error{LineIndex: i, Reason: err.Error()}
		}
		lines = append(lines, line)
		subtotal = subtotal.Add(decimal.NewFromFloat(line.Subtotal))
		labor = labor.Add(decimal.NewFromFloat(line.LaborCost))
		tax = tax.Add(decimal.NewFromFloat(line.TaxAmount))
		grand = grand.Add(decimal.NewFromFloat(line.TotalPrice))
	}

	final := grand
	minimum := decimal.NewFromFloat(cfg.MinimumOrderValue)
	minimumApplied := false
	if final.LessThan(minimum) {
		final = minimum
		minimumApplied = true
	}

	grandF := grand.InexactFloat64()
	annual := round2(grand.Mul(decimal.NewFromFloat(0.15))).InexactFloat64()
	savings := EnergySavings{AnnualSavings: annual}
	if annual > 0 {
		savings.LifetimeSavings = round2(decimal.NewFromFloat(annual).Mul(decimal.NewFromInt(20))).InexactFloat64()
		savings.PaybackYears = round2(grand.Div(decimal.NewFromFloat(annual))).InexactFloat64()
	}

	installation := round2(subtotal.Mul(decimal.NewFromFloat(cfg.InstallationRate))).InexactFloat64()

	return &Quote{
		Lines:                 lines,
		Subtotal:              subtotal.InexactFloat64(),
		TotalLabor:            labor.InexactFloat64(),
		TotalTax:              tax.InexactFloat64(),
		GrandTotal:            grandF,
		FinalTotal:            final.InexactFloat64(),
		MinimumApplied:        minimumApplied,
		EstimatedInstallation: installation,
		EnergySavings:         savings,
		Config:                cfg,
		GeneratedAt:           time.Now().UTC(),
	}, nil
}
