package catalog

import "windowquote-backend/pricing"

// Built-in multiplier tables, served when the catalog tables are empty or
// unreachable and no previously loaded value exists.

var defaultMaterials = map[string]float64{
	"vinyl":         1.0,
	"wood":          1.8,
	"fiberglass":    1.5,
	"aluminum-clad": 1.6,
	"cellular-pvc":  1.3,
	"composite":     1.4,
}

var defaultTypes = map[string]float64{
	"single-hung": 1.0,
	"double-hung": 1.1,
	"casement":    1.2,
	"awning":      1.15,
	"sliding":     0.95,
	"picture":     0.9,
	"bay":         2.5,
	"bow":         3.0,
	"garden":      1.8,
}

var defaultBrands = map[string]float64{
	"standard": 1.0,
	"simonton": 1.05,
	"jeld-wen": 1.1,
	"milgard":  1.15,
	"harvey":   1.2,
	"pella":    1.35,
	"andersen": 1.4,
	"marvin":   1.45,
}

func defaultOptions() map[string]float64 {
	out := make(map[string]float64, len(pricing.OptionPrices))
	for name, price := range pricing.OptionPrices {
		out[name] = price
	}
	return out
}

func copyTable(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
