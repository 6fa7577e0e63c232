package master

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edigen/internal/dist"
	"edigen/pkg/config"
)

func testInputs() (dist.Stats, *config.GenConfig, time.Time) {
	cfg := &config.Default().Gen
	st := dist.Defaults(cfg)
	anchor := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	return st, cfg, anchor
}

func TestBuildDeterministic(t *testing.T) {
	st, cfg, anchor := testInputs()

	a := Build(st, cfg, 42, anchor)
	b := Build(st, cfg, 42, anchor)
	assert.Equal(t, a, b)

	c := Build(st, cfg, 43, anchor)
	assert.NotEqual(t, a, c)
}

func TestBuildCatalogueSizes(t *testing.T) {
	st, cfg, anchor := testInputs()
	md := Build(st, cfg, 42, anchor)

	assert.Len(t, md.SupplierMaster, len(SupplierCodes))
	assert.Len(t, md.BuyerMaster, len(BuyerCodes))
	assert.Len(t, md.ItemMaster, len(SKUs))
	assert.Len(t, md.PricingContracts, len(SupplierCodes)*len(SKUs))
	assert.Len(t, md.LocationMaster, len(Locations))
	assert.Equal(t, cfg.TolProfiles, md.TolProfiles)
}

func TestBuildSupplierFields(t *testing.T) {
	st, cfg, anchor := testInputs()
	md := Build(st, cfg, 42, anchor)

	validProfiles := map[string]bool{}
	for _, p := range cfg.TolProfiles {
		validProfiles[p.ID] = true
	}

	for _, s := range md.SupplierMaster {
		assert.GreaterOrEqual(t, s.LeadTimeDays, cfg.SupplierLeadDaysMin)
		assert.LessOrEqual(t, s.LeadTimeDays, cfg.SupplierLeadDaysMax)
		assert.Contains(t, PaymentTerms, s.DefaultPaymentTerms)
		assert.Contains(t, Carriers, s.PreferredCarrier)
		assert.True(t, validProfiles[s.DefaultTolProfile], "supplier %s has unknown profile %s", s.SupplierCode, s.DefaultTolProfile)
		assert.NotEmpty(t, s.SupplierName)
	}
}

func TestBuildPricingContracts(t *testing.T) {
	st, cfg, anchor := testInputs()
	md := Build(st, cfg, 42, anchor)

	seen := map[[2]string]bool{}
	for _, c := range md.PricingContracts {
		key := [2]string{c.SupplierCode, c.SKU}
		require.False(t, seen[key], "duplicate contract for %v", key)
		seen[key] = true

		assert.GreaterOrEqual(t, c.ContractUnitPrice, 1.0)
		assert.LessOrEqual(t, c.ContractUnitPrice, cfg.PriceMax)
		assert.GreaterOrEqual(t, c.DiscountPct, 0.0)
		assert.LessOrEqual(t, c.DiscountPct, 0.15)
		assert.Equal(t, "USD", c.Currency)
		assert.Equal(t, "2025-03-05", c.EffectiveStart)
		assert.Equal(t, "2026-02-28", c.EffectiveEnd)
	}
}

func TestCodeName(t *testing.T) {
	assert.Equal(t, "Supp Ace Mfg", codeName("SUPP_ACE_MFG"))
	assert.Equal(t, "Sku 10001", skuName("SKU-10001"))
}
