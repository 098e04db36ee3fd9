package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelane/institut-booking/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestUnitPriceSingle(t *testing.T) {
	svc := model.Service{Price: 89}

	assert.Equal(t, 89.0, UnitPrice(svc, PackageSingle))
}

func TestUnitPriceSinglePromoWins(t *testing.T) {
	svc := model.Service{Price: 89, PromoPrice: fptr(69)}

	assert.Equal(t, 69.0, UnitPrice(svc, PackageSingle))
}

func TestUnitPriceForfait(t *testing.T) {
	svc := model.Service{Price: 89, ForfaitPrice: fptr(300)}

	assert.Equal(t, 300.0, UnitPrice(svc, PackageForfait))
}

func TestUnitPriceForfaitPromoWins(t *testing.T) {
	svc := model.Service{Price: 89, ForfaitPrice: fptr(300), ForfaitPromo: fptr(250)}

	assert.Equal(t, 250.0, UnitPrice(svc, PackageForfait))
}

func TestUnitPriceForfaitFallsBackToSingle(t *testing.T) {
	// Forfait requested on a service without forfait pricing books as single.
	svc := model.Service{Price: 89, PromoPrice: fptr(69)}

	assert.Equal(t, 69.0, UnitPrice(svc, PackageForfait))
}

func TestComputeTotal(t *testing.T) {
	catalog := map[string]model.Service{
		"hydro-cleaning": {Slug: "hydro-cleaning", Price: 89},
		"microneedling":  {Slug: "microneedling", Price: 120, ForfaitPrice: fptr(400)},
	}
	packages := map[string]string{
		"hydro-cleaning": PackageSingle,
		"microneedling":  PackageForfait,
	}

	total := ComputeTotal([]string{"hydro-cleaning", "microneedling"}, packages, catalog, []string{"led-mask"})

	assert.Equal(t, 89.0+400.0+OptionPrice, total)
}

func TestComputeTotalSkipsUnknown(t *testing.T) {
	catalog := map[string]model.Service{
		"hydro-cleaning": {Slug: "hydro-cleaning", Price: 89},
	}

	total := ComputeTotal([]string{"hydro-cleaning", "ghost"}, nil, catalog, nil)

	assert.Equal(t, 89.0, total)
}

func TestComputeTotalOptionsOnly(t *testing.T) {
	total := ComputeTotal(nil, nil, nil, []string{"a", "b", "c"})

	assert.Equal(t, 3*OptionPrice, total)
}
