package generate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edigen/internal/model"
	"edigen/pkg/config"
)

func buildTriplet(g *Generator, i int) (*model.PurchaseOrder, *model.ShipNotice, *model.Invoice) {
	po := g.BuildPO(i)
	asn := g.BuildASN(po)
	inv := g.BuildInvoice(po, asn)
	return po, asn, inv
}

func TestSeverityThresholds(t *testing.T) {
	cfg := &config.Default().Gen

	assert.Equal(t, model.SeverityLow, Severity(cfg, 0.0))
	assert.Equal(t, model.SeverityLow, Severity(cfg, cfg.SevLowRiskMax))
	assert.Equal(t, model.SeverityMed, Severity(cfg, cfg.SevLowRiskMax+0.001))
	assert.Equal(t, model.SeverityMed, Severity(cfg, cfg.SevMedRiskMax))
	assert.Equal(t, model.SeverityHigh, Severity(cfg, cfg.SevMedRiskMax+0.001))
	assert.Equal(t, model.SeverityHigh, Severity(cfg, 1.0))
}

func TestApplyAnomalyNormal(t *testing.T) {
	g := newTestGenerator(t, 42)
	po, asn, inv := buildTriplet(g, 0)

	asn2, inv2, payload := g.ApplyAnomaly(po, asn, inv, model.LabelNormal)

	assert.Same(t, asn, asn2)
	assert.Same(t, inv, inv2)
	assert.Equal(t, model.LabelNormal, payload.Label)
	assert.Empty(t, payload.ReasonCodes)
	assert.Equal(t, 0.0, payload.EstimatedDollarImpact)
	assert.Equal(t, model.SeverityLow, payload.Severity)
	assert.Equal(t, po.ToleranceProfileID, payload.ToleranceProfileID)
}

func TestApplyAnomalyUnknownLabelTreatedAsNormal(t *testing.T) {
	g := newTestGenerator(t, 42)
	po, asn, inv := buildTriplet(g, 0)

	_, _, payload := g.ApplyAnomaly(po, asn, inv, "NOT_A_LABEL")
	assert.Equal(t, model.LabelNormal, payload.Label)
	assert.Empty(t, payload.ReasonCodes)
}

func TestApplyAnomalyMissingDoc(t *testing.T) {
	g := newTestGenerator(t, 42)

	sawASN, sawInv := false, false
	for i := 0; i < 40; i++ {
		po, asn, inv := buildTriplet(g, i)
		asn2, inv2, payload := g.ApplyAnomaly(po, asn, inv, model.LabelMissingDoc)

		assert.Equal(t, model.LabelMissingDoc, payload.Label)
		require.Len(t, payload.ReasonCodes, 1)
		switch payload.ReasonCodes[0] {
		case "MISSING_ASN":
			sawASN = true
			assert.Nil(t, asn2)
			assert.NotNil(t, inv2)
			assert.Equal(t, "LOGISTICS", payload.OwnerTeam)
			assert.Equal(t, "REQUEST_ASN_PROOF", payload.RecommendedAction)
		case "MISSING_INVOICE":
			sawInv = true
			assert.NotNil(t, asn2)
			assert.Nil(t, inv2)
			assert.Equal(t, "AP", payload.OwnerTeam)
			assert.Equal(t, "REQUEST_INVOICE", payload.RecommendedAction)
		default:
			t.Fatalf("unexpected reason code %s", payload.ReasonCodes[0])
		}
		assert.InDelta(t, po.Total()*0.15, payload.EstimatedDollarImpact, 0.001)
	}
	assert.True(t, sawASN)
	assert.True(t, sawInv)
}

func TestApplyAnomalyLateShipment(t *testing.T) {
	g := newTestGenerator(t, 42)

	for i := 0; i < 20; i++ {
		po, asn, inv := buildTriplet(g, i)
		asn2, _, payload := g.ApplyAnomaly(po, asn, inv, model.LabelLateShipment)

		require.NotNil(t, asn2)
		lateDays := int(asn2.ShipDate.Sub(po.ExpectedShipDate).Hours() / 24)
		assert.GreaterOrEqual(t, lateDays, 3)
		assert.LessOrEqual(t, lateDays, 18)
		require.Len(t, payload.ReasonCodes, 1)
		assert.Regexp(t, `^LATE_SHIP_\d+D$`, payload.ReasonCodes[0])
		assert.Equal(t, "LOGISTICS", payload.OwnerTeam)
		assert.Equal(t, "EXPEDITE_OR_ESCALATE", payload.RecommendedAction)
	}
}

func TestApplyAnomalyShortShipBeyondTolerance(t *testing.T) {
	g := newTestGenerator(t, 42)

	for i := 0; i < 30; i++ {
		po, asn, inv := buildTriplet(g, i)
		tol := g.cfg.Profile(po.ToleranceProfileID)

		asn2, _, payload := g.ApplyAnomaly(po, asn, inv, model.LabelShortShip)
		require.NotNil(t, asn2)
		assert.Contains(t, payload.ReasonCodes, "SHORT_SHIP_BEYOND_TOL")
		assert.Equal(t, "LOGISTICS", payload.OwnerTeam)
		assert.Equal(t, "FILE_SHORTAGE_CLAIM", payload.RecommendedAction)

		// 至少一行短发且偏差越过容差
		exceeded := false
		for _, li := range asn2.LineItems {
			poLine := po.Line(li.SKU)
			if poLine == nil || li.ShipQty >= poLine.Quantity {
				continue
			}
			dev := math.Abs(float64(poLine.Quantity-li.ShipQty)) / float64(poLine.Quantity)
			if dev > tol.QtyPct {
				exceeded = true
			}
		}
		assert.True(t, exceeded, "case %d: no ASN line short beyond %.2f", i, tol.QtyPct)
	}
}

func TestApplyAnomalyQtyMismatchMutatesSomeLine(t *testing.T) {
	g := newTestGenerator(t, 42)

	for i := 0; i < 30; i++ {
		po, asn, inv := buildTriplet(g, i)
		asn2, inv2, payload := g.ApplyAnomaly(po, asn, inv, model.LabelThreeWayQtyMism)

		require.NotNil(t, asn2)
		require.NotNil(t, inv2)
		assert.Equal(t, model.LabelThreeWayQtyMism, payload.Label)
		assert.NotEmpty(t, payload.ReasonCodes)

		changed := false
		for _, li := range asn2.LineItems {
			if poLine := po.Line(li.SKU); poLine != nil && li.ShipQty != poLine.Quantity {
				changed = true
			}
		}
		assert.True(t, changed, "case %d: no ASN quantity deviates from PO", i)

		// 发票改动后合计恒等式仍成立
		assert.InDelta(t,
			inv2.SubtotalAmount+inv2.FreightAmount+inv2.TaxAmount-inv2.DiscountAmount,
			inv2.TotalAmount, 0.011)
	}
}

func TestApplyAnomalyOverbillBeyondTolerance(t *testing.T) {
	g := newTestGenerator(t, 42)

	for i := 0; i < 30; i++ {
		po, asn, inv := buildTriplet(g, i)
		tol := g.cfg.Profile(po.ToleranceProfileID)

		_, inv2, payload := g.ApplyAnomaly(po, asn, inv, model.LabelOverbill)
		require.NotNil(t, inv2)
		assert.Contains(t, payload.ReasonCodes, "INVOICE_UNIT_PRICE_ABOVE_TOL")
		assert.Equal(t, "AP", payload.OwnerTeam)
		assert.Equal(t, "DISPUTE_INVOICE_OR_REQUEST_CREDIT_MEMO", payload.RecommendedAction)
		assert.Greater(t, payload.EstimatedDollarImpact, 0.0)

		exceeded := false
		for _, li := range inv2.LineItems {
			poLine := po.Line(li.SKU)
			if poLine == nil {
				continue
			}
			if li.UnitPrice > model.Round2(poLine.UnitPrice*(1.0+tol.PricePct)) {
				exceeded = true
			}
		}
		assert.True(t, exceeded, "case %d: no invoice price above %.2f%% tolerance", i, tol.PricePct*100)
	}
}

func TestApplyAnomalyChargesRecomputesTotal(t *testing.T) {
	g := newTestGenerator(t, 42)

	for i := 0; i < 30; i++ {
		po, asn, inv := buildTriplet(g, i)
		_, inv2, payload := g.ApplyAnomaly(po, asn, inv, model.LabelChargesAnomaly)

		require.NotNil(t, inv2)
		assert.NotEmpty(t, payload.ReasonCodes)
		for _, rc := range payload.ReasonCodes {
			assert.Contains(t, []string{
				"FREIGHT_OUTSIDE_PROFILE",
				"TAX_OUTSIDE_PROFILE",
				"DISCOUNT_OUTSIDE_PROFILE",
			}, rc)
		}
		assert.Equal(t, "AP", payload.OwnerTeam)
		assert.Equal(t, "RECONCILE_CHARGES_WITH_CONTRACT", payload.RecommendedAction)
		assert.InDelta(t,
			inv2.SubtotalAmount+inv2.FreightAmount+inv2.TaxAmount-inv2.DiscountAmount,
			inv2.TotalAmount, 0.011)
	}
}

func TestApplyAnomalySubstitutesMissingDocWhenPreconditionUnmet(t *testing.T) {
	g := newTestGenerator(t, 42)

	// 缺 ASN 时的发运类标签
	for _, label := range []string{model.LabelLateShipment, model.LabelShortShip, model.LabelThreeWayQtyMism} {
		po := g.BuildPO(0)
		inv := g.BuildInvoice(po, nil)
		asn2, inv2, payload := g.ApplyAnomaly(po, nil, inv, label)

		assert.Equal(t, label, payload.Label, "recorded label stays as requested")
		assert.True(t, asn2 == nil || inv2 == nil)
		require.Len(t, payload.ReasonCodes, 1)
		assert.Contains(t, []string{"MISSING_ASN", "MISSING_INVOICE"}, payload.ReasonCodes[0])
	}

	// 缺发票时的计费类标签
	for _, label := range []string{model.LabelOverbill, model.LabelThreeWayPriceMism, model.LabelChargesAnomaly} {
		po := g.BuildPO(1)
		asn := g.BuildASN(po)
		asn2, inv2, payload := g.ApplyAnomaly(po, asn, nil, label)

		assert.Equal(t, label, payload.Label)
		assert.True(t, asn2 == nil || inv2 == nil)
		require.Len(t, payload.ReasonCodes, 1)
	}
}

func TestApplyAnomalyDuplicateDocPayloadOnly(t *testing.T) {
	g := newTestGenerator(t, 42)
	po, asn, inv := buildTriplet(g, 0)

	asn2, inv2, payload := g.ApplyAnomaly(po, asn, inv, model.LabelDuplicateDoc)

	assert.Same(t, asn, asn2)
	assert.Same(t, inv, inv2)
	assert.Equal(t, model.LabelDuplicateDoc, payload.Label)
	assert.Equal(t, []string{"DUPLICATE_DOCUMENT_PATTERN"}, payload.ReasonCodes)
	assert.Equal(t, "OPERATIONS", payload.OwnerTeam)
	assert.Equal(t, "DEDUPE_AND_CONFIRM_VALID_DOC", payload.RecommendedAction)
}

func TestMakePayloadRiskFormula(t *testing.T) {
	g := newTestGenerator(t, 42)
	po := g.BuildPO(0)

	p := g.makePayload(model.LabelOverbill, po, []string{"A", "B"}, "AP", "REVIEW", 1000.0)
	want := 1.0 - math.Exp(-1000.0/g.cfg.RiskImpactScale) + 0.05*2
	assert.InDelta(t, want, p.RiskScore, 1e-9)
	assert.Equal(t, Severity(g.cfg, want), p.Severity)

	// 风险分封顶为 1，影响额下限为 0
	p = g.makePayload(model.LabelOverbill, po, []string{"A", "B", "C", "D", "E", "F", "G", "H"}, "AP", "REVIEW", 1e9)
	assert.Equal(t, 1.0, p.RiskScore)
	p = g.makePayload(model.LabelNormal, po, nil, "OPERATIONS", "REVIEW", -5.0)
	assert.Equal(t, 0.0, p.EstimatedDollarImpact)
}

func TestQtyBeyondTolerance(t *testing.T) {
	g := newTestGenerator(t, 42)

	for i := 0; i < 200; i++ {
		q := g.qtyBeyondTolerance(100, 0.05, true)
		assert.Less(t, q, 100)
		dev := float64(100-q) / 100.0
		assert.Greater(t, dev, 0.05, "short deviation must exceed tolerance")

		q = g.qtyBeyondTolerance(100, 0.05, false)
		assert.Greater(t, q, 100)
		dev = float64(q-100) / 100.0
		assert.Greater(t, dev, 0.05, "over deviation must exceed tolerance")
	}

	// 小数量下强制至少差一件
	q := g.qtyBeyondTolerance(1, 0.02, true)
	assert.Less(t, q, 1)
	q = g.qtyBeyondTolerance(1, 0.02, false)
	assert.Greater(t, q, 1)
}
