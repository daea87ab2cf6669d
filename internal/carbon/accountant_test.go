package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateIsDeterministic(t *testing.T) {
	first := Estimate("vegetables", 3.5, 120)
	second := Estimate("vegetables", 3.5, 120)

	// Bit-identical, not merely close.
	assert.Equal(t, first, second)
}

func TestEstimateFormula(t *testing.T) {
	got := Estimate("dairy", 2, 100)
	want := 2*3.2 + 100*TransportFactor*2

	assert.Equal(t, want, got)
}

func TestEstimateUnknownCategoryFallsBack(t *testing.T) {
	got := Estimate("mushroom-spores", 1, 0)
	assert.Equal(t, DefaultProductionFactor, got)
}

func TestEstimateZeroDistance(t *testing.T) {
	got := Estimate("fruits", 4, 0)
	assert.Equal(t, 4*0.5, got)
}

func TestEstimateZeroWeight(t *testing.T) {
	assert.Equal(t, 0.0, Estimate("meat", 0, 500))
}

func TestProductionFactorTable(t *testing.T) {
	assert.Equal(t, 12.0, ProductionFactor("meat"))
	assert.Equal(t, 0.3, ProductionFactor("herbs"))
	assert.Equal(t, DefaultProductionFactor, ProductionFactor(""))
}
