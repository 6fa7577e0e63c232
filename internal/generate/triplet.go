// Package generate 构建内部一致的 (PO, ASN, Invoice) 三联单，并按目标标签注入异常。
package generate

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"edigen/internal/dist"
	"edigen/internal/master"
	"edigen/internal/model"
	"edigen/pkg/config"
)

type contractKey struct {
	supplier string
	sku      string
}

// Generator 三联单生成器
// 所有随机性都经由其内部种子源，构造处重置一次
type Generator struct {
	cfg    *config.GenConfig
	st     dist.Stats
	md     *master.Data
	rng    *rand.Rand
	seed   int64
	anchor time.Time

	suppliers map[string]master.Supplier
	buyers    map[string]master.Buyer
	contracts map[contractKey]master.PricingContract
}

// New 创建生成器并重置随机源
func New(cfg *config.GenConfig, st dist.Stats, md *master.Data, seed int64, anchor time.Time) *Generator {
	g := &Generator{
		cfg:       cfg,
		st:        st,
		md:        md,
		rng:       rand.New(rand.NewSource(uint64(seed))),
		seed:      seed,
		anchor:    anchor,
		suppliers: make(map[string]master.Supplier, len(md.SupplierMaster)),
		buyers:    make(map[string]master.Buyer, len(md.BuyerMaster)),
		contracts: make(map[contractKey]master.PricingContract, len(md.PricingContracts)),
	}
	for _, s := range md.SupplierMaster {
		g.suppliers[s.SupplierCode] = s
	}
	for _, b := range md.BuyerMaster {
		g.buyers[b.BuyerCode] = b
	}
	for _, c := range md.PricingContracts {
		g.contracts[contractKey{c.SupplierCode, c.SKU}] = c
	}
	return g
}

// Chance 以概率 p 返回 true
func (g *Generator) Chance(p float64) bool {
	return g.rng.Float64() < p
}

// IntBetween 返回 [lo, hi] 内的均匀整数
func (g *Generator) IntBetween(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// uniform 返回 [lo, hi) 内的均匀浮点
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// normClamped 截断正态采样
func (g *Generator) normClamped(mu, sigma, lo, hi float64) float64 {
	n := distuv.Normal{Mu: mu, Sigma: sigma, Src: g.rng}
	return clamp(n.Rand(), lo, hi)
}

// pick 均匀抽取一个元素
func pick[T any](g *Generator, xs []T) T {
	return xs[g.rng.Intn(len(xs))]
}

// BuildPO 构建一张基线采购订单
func (g *Generator) BuildPO(i int) *model.PurchaseOrder {
	cfg := g.cfg

	poisson := distuv.Poisson{Lambda: float64(g.st.AvgLines), Src: g.rng}
	nLines := int(clamp(poisson.Rand(), 1, float64(cfg.LineItemsMax)))

	buyerCode := pick(g, master.BuyerCodes)
	supplierCode := pick(g, master.SupplierCodes)

	// 订单日期在历史窗口内回溯；近期窗口放大需求
	orderDate := g.anchor.AddDate(0, 0, -g.IntBetween(0, cfg.HistoryDays))
	qtyMult := 1.0
	if orderDate.After(g.anchor.AddDate(0, 0, -cfg.RecentDays)) {
		qtyMult = cfg.RecentQtyMult
	}

	supplier := g.suppliers[supplierCode]
	buyer := g.buyers[buyerCode]
	lead := supplier.LeadTimeDays
	if lead == 0 {
		lead = 7
	}

	jitter := int(g.normClamped(cfg.ShipJitterMean, cfg.ShipJitterStd,
		float64(cfg.ShipJitterMin), float64(cfg.ShipJitterMax)))
	shipOffset := lead + jitter
	if shipOffset < 1 {
		shipOffset = 1
	}
	expectedShip := orderDate.AddDate(0, 0, shipOffset)

	poNumber := fmt.Sprintf("PO-%06d-%d", (g.anchor.UnixMilli()+g.seed)%1000000, i)

	shipTo := buyer.DefaultShipTo
	if shipTo == "" {
		shipTo = pick(g, master.Locations).LocationCode
	}
	billTo := buyer.DefaultBillTo
	if billTo == "" {
		billTo = pick(g, master.Locations).LocationCode
	}
	payTerms := supplier.DefaultPaymentTerms
	if payTerms == "" {
		payTerms = pick(g, master.PaymentTerms)
	}
	carrier := supplier.PreferredCarrier
	if carrier == "" {
		carrier = pick(g, master.Carriers)
	}

	lineItems := make([]model.LineItem, 0, nLines)
	subtotal := 0.0

	for ln := 1; ln <= nLines; ln++ {
		sku := pick(g, master.SKUs)
		contract, ok := g.contracts[contractKey{supplierCode, sku}]
		contractPrice := g.st.PriceMean
		discountPct := 0.0
		if ok {
			contractPrice = contract.ContractUnitPrice
			discountPct = contract.DiscountPct
		}

		qtySigma := g.st.QtyStd
		if qtySigma < 5.0 {
			qtySigma = 5.0
		}
		qty := int(g.normClamped(g.st.QtyMean*qtyMult, qtySigma, 1, cfg.QtyMax))

		priceSigma := contractPrice * 0.05
		if priceSigma < 0.5 {
			priceSigma = 0.5
		}
		rawPrice := g.normClamped(contractPrice, priceSigma, 0.01, cfg.PriceMax)
		unitPrice := model.Round2(rawPrice * (1.0 - discountPct))

		lineItems = append(lineItems, model.LineItem{
			LineNumber:        ln,
			SKU:               sku,
			Quantity:          qty,
			UnitOfMeasure:     pick(g, master.UnitsOfMeasure),
			UnitPrice:         unitPrice,
			ContractUnitPrice: model.Round2(contractPrice),
			DiscountPct:       discountPct,
		})
		subtotal += float64(qty) * unitPrice
	}

	freight, discount, tax := g.deriveCharges(subtotal)

	tolID := supplier.DefaultTolProfile
	if tolID == "" {
		tolID = "STANDARD"
	}

	return &model.PurchaseOrder{
		POID:               model.DocumentID("po", poNumber),
		PONumber:           poNumber,
		BuyerCode:          buyerCode,
		SupplierCode:       supplierCode,
		OrderDate:          orderDate,
		ExpectedShipDate:   expectedShip,
		ShipToLocation:     shipTo,
		BillToLocation:     billTo,
		PaymentTerms:       payTerms,
		Currency:           pick(g, master.CurrencyCodes),
		CarrierCode:        carrier,
		ToleranceProfileID: tolID,
		LineItems:          lineItems,
		FreightAmount:      freight,
		DiscountAmount:     discount,
		TaxAmount:          tax,
	}
}

// deriveCharges 按小计比例生成运费/折扣/税
func (g *Generator) deriveCharges(subtotal float64) (freight, discount, tax float64) {
	cfg := g.cfg
	if subtotal < 0.01 {
		subtotal = 0.01
	}
	freightPct := g.normClamped(cfg.FreightPctMean, cfg.FreightPctStd, 0.0, 0.25)
	discPct := g.normClamped(cfg.DiscountPctMean, cfg.DiscountPctStd, 0.0, 0.35)
	taxPct := g.normClamped(cfg.TaxPctMean, cfg.TaxPctStd, 0.0, 0.25)
	return model.Round2(subtotal * freightPct),
		model.Round2(subtotal * discPct),
		model.Round2(subtotal * taxPct)
}

// BuildASN 从 PO 构建基线发运通知：数量一致，船期在预期日附近
func (g *Generator) BuildASN(po *model.PurchaseOrder) *model.ShipNotice {
	shipDate := po.ExpectedShipDate.AddDate(0, 0, g.IntBetween(-1, 2))

	asnNumber := "ASN-" + po.PONumber
	asn := &model.ShipNotice{
		ASNID:          model.DocumentID("asn", asnNumber),
		ASNNumber:      asnNumber,
		PONumber:       po.PONumber,
		BuyerCode:      po.BuyerCode,
		SupplierCode:   po.SupplierCode,
		ShipDate:       shipDate,
		CarrierCode:    po.CarrierCode,
		ShipToLocation: po.ShipToLocation,
		LineItems:      make([]model.ASNLineItem, 0, len(po.LineItems)),
	}
	for _, li := range po.LineItems {
		asn.LineItems = append(asn.LineItems, model.ASNLineItem{
			LineNumber:    li.LineNumber,
			SKU:           li.SKU,
			ShipQty:       li.Quantity,
			UnitOfMeasure: li.UnitOfMeasure,
		})
	}
	return asn
}

// BuildInvoice 从 PO/ASN 构建基线发票：数量跟 ASN（缺 ASN 跟 PO），价格跟 PO
func (g *Generator) BuildInvoice(po *model.PurchaseOrder, asn *model.ShipNotice) *model.Invoice {
	cfg := g.cfg

	baseDate := po.ExpectedShipDate
	if asn != nil {
		baseDate = asn.ShipDate
	}
	invDate := baseDate.AddDate(0, 0, g.IntBetween(cfg.InvoiceAfterShipDaysMin, cfg.InvoiceAfterShipDaysMax))

	invNumber := "INV-" + po.PONumber
	inv := &model.Invoice{
		InvoiceID:      model.DocumentID("inv", invNumber),
		InvoiceNumber:  invNumber,
		PONumber:       po.PONumber,
		BuyerCode:      po.BuyerCode,
		SupplierCode:   po.SupplierCode,
		InvoiceDate:    invDate,
		Currency:       po.Currency,
		LineItems:      make([]model.InvoiceLineItem, 0, len(po.LineItems)),
		FreightAmount:  po.FreightAmount,
		DiscountAmount: po.DiscountAmount,
		TaxAmount:      po.TaxAmount,
	}

	var asnQty map[string]int
	if asn != nil {
		asnQty = asn.QtyBySKU()
	}

	subtotal := 0.0
	for _, li := range po.LineItems {
		qty := li.Quantity
		if asnQty != nil {
			if q, ok := asnQty[li.SKU]; ok {
				qty = q
			}
		}
		inv.LineItems = append(inv.LineItems, model.InvoiceLineItem{
			LineNumber:    li.LineNumber,
			SKU:           li.SKU,
			Quantity:      qty,
			UnitOfMeasure: li.UnitOfMeasure,
			UnitPrice:     model.Round2(li.UnitPrice),
		})
		subtotal += float64(qty) * li.UnitPrice
	}

	inv.SubtotalAmount = model.Round2(subtotal)
	inv.TotalAmount = model.Round2(subtotal + inv.FreightAmount + inv.TaxAmount - inv.DiscountAmount)
	return inv
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func round(x float64) int {
	return int(math.Round(x))
}
