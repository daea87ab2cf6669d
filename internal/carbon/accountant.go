package carbon

// Production emission factors in kg CO2e per kg of product, by category.
// Values follow published farm-gate averages for organic produce; categories
// missing from the table fall back to DefaultProductionFactor.
var productionFactors = map[string]float64{
	"vegetables": 0.4,
	"fruits":     0.5,
	"grains":     1.1,
	"legumes":    0.9,
	"herbs":      0.3,
	"honey":      1.5,
	"eggs":       2.0,
	"dairy":      3.2,
	"meat":       12.0,
}

// DefaultProductionFactor applies to categories outside the table
const DefaultProductionFactor = 1.0

// TransportFactor is kg CO2e emitted per kg of goods per km of transport
const TransportFactor = 0.00012

// ProductionFactor returns the per-category production factor
func ProductionFactor(category string) float64 {
	if factor, ok := productionFactors[category]; ok {
		return factor
	}
	return DefaultProductionFactor
}

// Estimate computes the CO2e footprint in kg for moving weightKg of a
// category over distanceKm. Pure and deterministic: identical inputs always
// produce bit-identical output.
func Estimate(category string, weightKg, distanceKm float64) float64 {
	return weightKg*ProductionFactor(category) + distanceKm*TransportFactor*weightKg
}
