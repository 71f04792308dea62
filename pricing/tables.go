package pricing

// OptionPrices is the static per-window add-on price table. Option prices
// are additive; no markups or multipliers apply to them.
var OptionPrices = map[string]float64{
	"low-e-glass":    45.00,
	"argon-fill":     30.00,
	"triple-pane":    120.00,
	"grids":          25.00,
	"tempered-glass": 60.00,
	"frosted-glass":  40.00,
	"screens":        15.00,
	"custom-color":   80.00,
}

// ComplexityByType scales labor by window style. Unknown types use 1.0.
var ComplexityByType = map[string]float64{
	"single-hung": 1.0,
	"double-hung": 1.1,
	"casement":    1.25,
	"awning":      1.2,
	"sliding":     1.0,
	"picture":     0.9,
	"bay":         2.0,
	"bow":         2.2,
	"garden":      1.8,
}

// Complexity returns the labor complexity factor for a window type.
func Complexity(windowType string) float64 {
	if c, ok := ComplexityByType[windowType]; ok {
		return c
	}
	return 1.0
}

// OptionPrice returns the flat price for an option name. Unknown options
// contribute nothing.
func OptionPrice(name string) (float64, bool) {
	p, ok := OptionPrices[name]
	return p, ok
}
