package generate

import (
	"fmt"
	"math"

	"edigen/internal/model"
	"edigen/pkg/config"
)

// Severity 由风险分推导严重度档位（阈值来自配置，必须与下游一致）
func Severity(cfg *config.GenConfig, risk float64) string {
	switch {
	case risk <= cfg.SevLowRiskMax:
		return model.SeverityLow
	case risk <= cfg.SevMedRiskMax:
		return model.SeverityMed
	default:
		return model.SeverityHigh
	}
}

// ApplyAnomaly 按目标标签改写三联单并推导标签载荷。
// ASN/Invoice 可能为 nil；前置条件不满足的标签降级为 MISSING_DOC
// 改写（有界替换，不递归），记录的标签仍是请求的标签。
// 未知标签按 NORMAL 处理。返回改写后的 ASN/Invoice（可能变 nil）。
func (g *Generator) ApplyAnomaly(po *model.PurchaseOrder, asn *model.ShipNotice, inv *model.Invoice, label string) (*model.ShipNotice, *model.Invoice, model.LabelPayload) {
	if !model.ValidLabel(label) {
		label = model.LabelNormal
	}

	tol := g.cfg.Profile(po.ToleranceProfileID)

	baseSub := po.Subtotal()
	baseTotal := po.Total()

	// 前置条件不满足时的有界替换
	effective := label
	switch label {
	case model.LabelLateShipment, model.LabelShortShip, model.LabelThreeWayQtyMism:
		if asn == nil {
			effective = model.LabelMissingDoc
		}
	case model.LabelOverbill, model.LabelThreeWayPriceMism, model.LabelChargesAnomaly:
		if inv == nil {
			effective = model.LabelMissingDoc
		}
	}

	reasons := make([]string, 0, 2)
	owner := "OPERATIONS"
	action := "REVIEW"
	impact := 0.0

	switch effective {
	case model.LabelNormal:
		// 基线不动

	case model.LabelMissingDoc:
		if g.Chance(0.55) {
			asn = nil
			reasons = append(reasons, "MISSING_ASN")
			owner = "LOGISTICS"
			action = "REQUEST_ASN_PROOF"
		} else {
			inv = nil
			reasons = append(reasons, "MISSING_INVOICE")
			owner = "AP"
			action = "REQUEST_INVOICE"
		}
		impact = baseTotal * 0.15

	case model.LabelLateShipment:
		lateDays := g.IntBetween(3, 18)
		asn.ShipDate = po.ExpectedShipDate.AddDate(0, 0, lateDays)
		reasons = append(reasons, fmt.Sprintf("LATE_SHIP_%dD", lateDays))
		owner = "LOGISTICS"
		action = "EXPEDITE_OR_ESCALATE"
		impact = baseTotal * math.Min(0.30, 0.02*float64(lateDays))

	case model.LabelShortShip, model.LabelThreeWayQtyMism:
		k := g.rng.Intn(len(asn.LineItems))
		liASN := &asn.LineItems[k]
		poLine := po.Line(liASN.SKU)
		if poLine == nil {
			return asn, inv, g.makePayload(label, po,
				[]string{"QTY_MISMATCH"}, "LOGISTICS", "RECONCILE_QTY", baseTotal*0.10)
		}

		qPO := poLine.Quantity
		short := effective == model.LabelShortShip || g.Chance(0.65)
		qASN := g.qtyBeyondTolerance(qPO, tol.QtyPct, short)
		liASN.ShipQty = qASN

		if short {
			reasons = append(reasons, "SHORT_SHIP_BEYOND_TOL")
			owner = "LOGISTICS"
			action = "FILE_SHORTAGE_CLAIM"
		} else {
			reasons = append(reasons, "OVER_SHIP_BEYOND_TOL")
			owner = "RECEIVING"
			action = "VERIFY_RECEIPT"
		}

		// 基线发票跟 ASN；制造三方分歧时发票有时跟 PO
		if inv != nil {
			for i := range inv.LineItems {
				if inv.LineItems[i].SKU != liASN.SKU {
					continue
				}
				if g.Chance(0.55) {
					inv.LineItems[i].Quantity = qPO
					reasons = append(reasons, "INV_QTY_MATCHES_PO_NOT_ASN")
				} else {
					inv.LineItems[i].Quantity = qASN
				}
				break
			}
			inv.RecomputeTotals()
		}

		impact = math.Abs(float64(qPO-qASN)) * poLine.UnitPrice
		if floor := baseTotal * 0.05; impact < floor {
			impact = floor
		}

	case model.LabelOverbill, model.LabelThreeWayPriceMism:
		k := g.rng.Intn(len(inv.LineItems))
		liInv := &inv.LineItems[k]
		poLine := po.Line(liInv.SKU)
		if poLine == nil {
			return asn, inv, g.makePayload(label, po,
				[]string{"PRICE_MISMATCH"}, "AP", "HOLD_PAYMENT", baseTotal*0.10)
		}

		pPO := poLine.UnitPrice
		mult := g.uniform(g.cfg.AnomPriceMultMin, g.cfg.AnomPriceMultMax)
		if mult < 1.0+tol.PricePct+0.002 {
			mult = 1.0 + tol.PricePct + 0.02 + g.rng.Float64()*0.05
		}
		newPrice := model.Round2(pPO * mult)
		// 分位舍入可能把小额单价拉回容差内，强制越界
		if newPrice <= model.Round2(pPO*(1.0+tol.PricePct)) {
			newPrice = model.Round2(pPO*(1.0+tol.PricePct)) + 0.01
		}
		liInv.UnitPrice = newPrice
		inv.RecomputeTotals()

		reasons = append(reasons, "INVOICE_UNIT_PRICE_ABOVE_TOL")
		owner = "AP"
		action = "DISPUTE_INVOICE_OR_REQUEST_CREDIT_MEMO"
		impact = math.Max(0, (newPrice-pPO)*float64(liInv.Quantity))

	case model.LabelChargesAnomaly:
		mult := g.uniform(g.cfg.AnomChargeMultMin, g.cfg.AnomChargeMultMax)
		which := pick(g, []string{"freight", "tax", "discount", "combo"})

		if which == "freight" || which == "combo" {
			inv.FreightAmount = model.Round2(inv.FreightAmount*mult + 10.0)
			reasons = append(reasons, "FREIGHT_OUTSIDE_PROFILE")
		}
		if which == "tax" || which == "combo" {
			inv.TaxAmount = model.Round2(inv.TaxAmount*mult + 5.0)
			reasons = append(reasons, "TAX_OUTSIDE_PROFILE")
		}
		if which == "discount" || which == "combo" {
			inv.DiscountAmount = model.Round2(inv.DiscountAmount * mult)
			reasons = append(reasons, "DISCOUNT_OUTSIDE_PROFILE")
		}

		owner = "AP"
		action = "RECONCILE_CHARGES_WITH_CONTRACT"

		invSub := inv.SubtotalAmount
		if invSub == 0 {
			invSub = baseSub
		}
		invTotal := invSub + inv.FreightAmount + inv.TaxAmount - inv.DiscountAmount
		impact = math.Max(0, invTotal-baseTotal)
		inv.RecomputeTotals()

	case model.LabelDuplicateDoc:
		// 克隆由 Assembler 完成，这里只产出载荷
		reasons = append(reasons, "DUPLICATE_DOCUMENT_PATTERN")
		owner = "OPERATIONS"
		action = "DEDUPE_AND_CONFIRM_VALID_DOC"
		impact = baseTotal * 0.10
	}

	return asn, inv, g.makePayload(label, po, reasons, owner, action, impact)
}

// qtyBeyondTolerance 把数量推到容差之外（short 为缩、否则为放）
func (g *Generator) qtyBeyondTolerance(qPO int, tolPct float64, short bool) int {
	mult := g.uniform(g.cfg.AnomQtyMultMin, g.cfg.AnomQtyMultMax)

	var q int
	if short {
		// 偏差 = 1 − 1/mult，需要 mult > 1/(1−tol)
		if need := 1.0/(1.0-tolPct) + 0.01; mult < need {
			mult = need + g.rng.Float64()*0.05
		}
		q = round(float64(qPO) / mult)
		if q < 0 {
			q = 0
		}
	} else {
		if need := 1.0 + tolPct + 0.01; mult < need {
			mult = need + g.rng.Float64()*0.05
		}
		q = round(float64(qPO) * mult)
	}

	// 整数舍入可能把偏差拉回容差内（小数量），逐件推到界外
	band := float64(qPO) * tolPct
	if short {
		for q > 0 && float64(qPO-q) <= band {
			q--
		}
	} else {
		for float64(q-qPO) <= band {
			q++
		}
	}
	return q
}

// makePayload 推导标签载荷：风险分与严重度是 (impact, reason 数) 的确定性函数
func (g *Generator) makePayload(label string, po *model.PurchaseOrder, reasons []string, owner, action string, impact float64) model.LabelPayload {
	if impact < 0 {
		impact = 0
	}

	n := len(reasons)
	if n > 6 {
		n = 6
	}
	risk := clamp(1.0-math.Exp(-impact/g.cfg.RiskImpactScale)+0.05*float64(n), 0.0, 1.0)

	return model.LabelPayload{
		Label:                 label,
		Severity:              Severity(g.cfg, risk),
		RiskScore:             risk,
		EstimatedDollarImpact: impact,
		ReasonCodes:           reasons,
		OwnerTeam:             owner,
		RecommendedAction:     action,
		ToleranceProfileID:    po.ToleranceProfileID,
	}
}
