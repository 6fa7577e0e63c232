package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// 文档 ID 命名空间（固定值，保证同一业务单号生成相同 UUID）
var docNamespace = uuid.MustParse("8f3c1d52-5a50-4e58-9f0a-3f6bb4d70e11")

// DocumentID 由文档类型与业务单号派生确定性 UUID（v5）
func DocumentID(kind, number string) string {
	return uuid.NewSHA1(docNamespace, []byte(kind+":"+number)).String()
}

// Round2 金额统一保留两位小数
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// LineItem 采购订单行
type LineItem struct {
	LineNumber        int     `json:"line_number"`
	SKU               string  `json:"sku"`
	Quantity          int     `json:"quantity"`
	UnitOfMeasure     string  `json:"unit_of_measure"`
	UnitPrice         float64 `json:"unit_price"`
	ContractUnitPrice float64 `json:"contract_unit_price"`
	DiscountPct       float64 `json:"discount_pct"`
}

// PurchaseOrder 采购订单（850）
type PurchaseOrder struct {
	POID               string     `json:"po_id"`
	PONumber           string     `json:"po_number"`
	BuyerCode          string     `json:"buyer_code"`
	SupplierCode       string     `json:"supplier_code"`
	OrderDate          time.Time  `json:"order_date"`
	ExpectedShipDate   time.Time  `json:"expected_ship_date"`
	ShipToLocation     string     `json:"ship_to_location"`
	BillToLocation     string     `json:"bill_to_location"`
	PaymentTerms       string     `json:"payment_terms"`
	Currency           string     `json:"currency"`
	CarrierCode        string     `json:"carrier_code"`
	ToleranceProfileID string     `json:"tolerance_profile_id"`
	LineItems          []LineItem `json:"line_items"`
	FreightAmount      float64    `json:"freight_amount"`
	DiscountAmount     float64    `json:"discount_amount"`
	TaxAmount          float64    `json:"tax_amount"`
}

// Subtotal 行金额合计 Σ(quantity × unit_price)
func (p *PurchaseOrder) Subtotal() float64 {
	s := 0.0
	for _, li := range p.LineItems {
		s += float64(li.Quantity) * li.UnitPrice
	}
	if s < 0 {
		return 0
	}
	return s
}

// Total 总额 = 小计 + 运费 + 税 − 折扣
func (p *PurchaseOrder) Total() float64 {
	t := p.Subtotal() + p.FreightAmount + p.TaxAmount - p.DiscountAmount
	if t < 0 {
		return 0
	}
	return t
}

// Line 按 SKU 查找首个匹配的订单行
func (p *PurchaseOrder) Line(sku string) *LineItem {
	for i := range p.LineItems {
		if p.LineItems[i].SKU == sku {
			return &p.LineItems[i]
		}
	}
	return nil
}

// ASNLineItem 发运通知行
type ASNLineItem struct {
	LineNumber    int    `json:"line_number"`
	SKU           string `json:"sku"`
	ShipQty       int    `json:"ship_qty"`
	UnitOfMeasure string `json:"unit_of_measure"`
}

// ShipNotice 发运通知（856）
type ShipNotice struct {
	ASNID          string        `json:"asn_id"`
	ASNNumber      string        `json:"asn_number"`
	PONumber       string        `json:"po_number"`
	BuyerCode      string        `json:"buyer_code"`
	SupplierCode   string        `json:"supplier_code"`
	ShipDate       time.Time     `json:"ship_date"`
	CarrierCode    string        `json:"carrier_code"`
	ShipToLocation string        `json:"ship_to_location"`
	LineItems      []ASNLineItem `json:"line_items"`
}

// Clone 深拷贝（重复单据克隆用）
func (a *ShipNotice) Clone() *ShipNotice {
	dup := *a
	dup.LineItems = make([]ASNLineItem, len(a.LineItems))
	copy(dup.LineItems, a.LineItems)
	return &dup
}

// QtyBySKU 行发运数量按 SKU 建索引
func (a *ShipNotice) QtyBySKU() map[string]int {
	m := make(map[string]int, len(a.LineItems))
	for _, li := range a.LineItems {
		m[li.SKU] = li.ShipQty
	}
	return m
}

// InvoiceLineItem 发票行
type InvoiceLineItem struct {
	LineNumber    int     `json:"line_number"`
	SKU           string  `json:"sku"`
	Quantity      int     `json:"quantity"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	UnitPrice     float64 `json:"unit_price"`
}

// Invoice 发票（810）
type Invoice struct {
	InvoiceID      string            `json:"invoice_id"`
	InvoiceNumber  string            `json:"invoice_number"`
	PONumber       string            `json:"po_number"`
	BuyerCode      string            `json:"buyer_code"`
	SupplierCode   string            `json:"supplier_code"`
	InvoiceDate    time.Time         `json:"invoice_date"`
	Currency       string            `json:"currency"`
	LineItems      []InvoiceLineItem `json:"line_items"`
	FreightAmount  float64           `json:"freight_amount"`
	DiscountAmount float64           `json:"discount_amount"`
	TaxAmount      float64           `json:"tax_amount"`
	SubtotalAmount float64           `json:"subtotal_amount"`
	TotalAmount    float64           `json:"total_amount"`
}

// Clone 深拷贝（重复单据克隆用）
func (v *Invoice) Clone() *Invoice {
	dup := *v
	dup.LineItems = make([]InvoiceLineItem, len(v.LineItems))
	copy(dup.LineItems, v.LineItems)
	return &dup
}

// RecomputeTotals 行或费用被改写后重算小计与总额
// 注入异常后必须调用，保证 total = subtotal + freight + tax − discount 恒成立
func (v *Invoice) RecomputeTotals() {
	s := 0.0
	for _, li := range v.LineItems {
		s += float64(li.Quantity) * li.UnitPrice
	}
	v.SubtotalAmount = Round2(s)
	v.TotalAmount = Round2(s + v.FreightAmount + v.TaxAmount - v.DiscountAmount)
}
