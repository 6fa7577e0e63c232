package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentID(t *testing.T) {
	a := DocumentID("po", "PO-000001-1")
	b := DocumentID("po", "PO-000001-1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 36)

	// 类型参与派生，同号不同类型 ID 不同
	assert.NotEqual(t, a, DocumentID("asn", "PO-000001-1"))
	assert.NotEqual(t, a, DocumentID("po", "PO-000001-2"))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.2349))
	assert.Equal(t, 1.24, Round2(1.236))
	assert.Equal(t, -2.5, Round2(-2.499))
	assert.Equal(t, 0.0, Round2(0))
}

func TestPurchaseOrderTotals(t *testing.T) {
	po := &PurchaseOrder{
		LineItems: []LineItem{
			{SKU: "SKU-10001", Quantity: 10, UnitPrice: 2.5},
			{SKU: "SKU-10002", Quantity: 4, UnitPrice: 10.0},
		},
		FreightAmount:  5.0,
		TaxAmount:      3.0,
		DiscountAmount: 1.0,
	}

	assert.Equal(t, 65.0, po.Subtotal())
	assert.Equal(t, 72.0, po.Total())

	require.NotNil(t, po.Line("SKU-10002"))
	assert.Equal(t, 4, po.Line("SKU-10002").Quantity)
	assert.Nil(t, po.Line("SKU-99999"))

	// 折扣压穿时总额钳到 0
	po.DiscountAmount = 1000
	assert.Equal(t, 0.0, po.Total())
}

func TestShipNoticeClone(t *testing.T) {
	asn := &ShipNotice{
		ASNNumber: "ASN-PO-000001-1",
		LineItems: []ASNLineItem{{SKU: "SKU-10001", ShipQty: 7}},
	}
	dup := asn.Clone()
	dup.LineItems[0].ShipQty = 99

	assert.Equal(t, 7, asn.LineItems[0].ShipQty)
	assert.Equal(t, map[string]int{"SKU-10001": 7}, asn.QtyBySKU())
}

func TestInvoiceRecomputeTotals(t *testing.T) {
	inv := &Invoice{
		LineItems: []InvoiceLineItem{
			{SKU: "SKU-10001", Quantity: 3, UnitPrice: 10.0},
		},
		FreightAmount:  2.0,
		TaxAmount:      1.5,
		DiscountAmount: 0.5,
	}
	inv.RecomputeTotals()
	assert.Equal(t, 30.0, inv.SubtotalAmount)
	assert.Equal(t, 33.0, inv.TotalAmount)

	inv.LineItems[0].UnitPrice = 20.0
	inv.RecomputeTotals()
	assert.Equal(t, 60.0, inv.SubtotalAmount)
	assert.Equal(t, 63.0, inv.TotalAmount)
}

func TestInvoiceClone(t *testing.T) {
	inv := &Invoice{LineItems: []InvoiceLineItem{{SKU: "SKU-10001", Quantity: 1, UnitPrice: 5}}}
	dup := inv.Clone()
	dup.LineItems[0].Quantity = 100
	assert.Equal(t, 1, inv.LineItems[0].Quantity)
}

func TestLabelPayloadAddReasonCode(t *testing.T) {
	p := &LabelPayload{}
	p.AddReasonCode("MISSING_ASN")
	p.AddReasonCode("DUPLICATE_DOCUMENT_PATTERN")
	p.AddReasonCode("MISSING_ASN")
	assert.Equal(t, []string{"MISSING_ASN", "DUPLICATE_DOCUMENT_PATTERN"}, p.ReasonCodes)
}

func TestValidLabel(t *testing.T) {
	for _, l := range LabelSet {
		assert.True(t, ValidLabel(l))
	}
	assert.False(t, ValidLabel("NOT_A_LABEL"))
	assert.False(t, ValidLabel(""))
}
