package codec

// 从段序列提取三类单据的关键字段。
// 字段值保留原始字符串，数值转换由调用方按兜底策略处理。

// ExtractedLine 提取出的订单/发票行
type ExtractedLine struct {
	SKU       string
	Quantity  string
	UnitPrice string
}

// ExtractedPO 提取出的采购订单（850）
type ExtractedPO struct {
	PONumber  string
	LineItems []ExtractedLine
}

// ExtractPO 从 850 段序列提取 PO 单号与行项。
// BEG 第 3 元素为单号；PO1 第 2/4 元素为数量/单价，SKU 取第 8 元素，
// 空则回退第 7 元素。缺少单号或全部行项时返回 ok=false。
func ExtractPO(segs []Segment) (*ExtractedPO, bool) {
	var poNumber string
	var items []ExtractedLine

	for _, s := range segs {
		switch s.Tag {
		case "BEG":
			if len(s.Elements) > 3 {
				poNumber = element(s, 3)
			}
		case "PO1":
			qty := element(s, 2)
			price := element(s, 4)
			sku := element(s, 8)
			if sku == "" {
				sku = element(s, 7)
			}
			if sku != "" {
				items = append(items, ExtractedLine{SKU: sku, Quantity: qty, UnitPrice: price})
			}
		}
	}

	if poNumber == "" || len(items) == 0 {
		return nil, false
	}
	return &ExtractedPO{PONumber: poNumber, LineItems: items}, true
}

// ExtractedASNLine 提取出的发运行
type ExtractedASNLine struct {
	SKU           string
	ShipQty       string
	UnitOfMeasure string
}

// ExtractedASN 提取出的发运通知（856）
type ExtractedASN struct {
	ASNNumber string
	ShipDate  string
	LineItems []ExtractedASNLine
}

// ExtractASN 从 856 段序列提取 BSN 单号、发运日期（DTM 011/017）与
// LIN/SN1 行。LIN 在 BP/SK/VP 限定符后取 SKU。行项为空时返回 ok=false。
func ExtractASN(segs []Segment) (*ExtractedASN, bool) {
	var asnNumber, shipDate, currentSKU string
	var items []ExtractedASNLine

	for _, s := range segs {
		switch s.Tag {
		case "BSN":
			if len(s.Elements) > 2 {
				asnNumber = element(s, 2)
			}
		case "DTM":
			if len(s.Elements) > 2 {
				q := element(s, 1)
				if q == "011" || q == "017" {
					shipDate = element(s, 2)
				}
			}
		case "LIN":
			for i := 1; i < len(s.Elements)-1; i++ {
				q := element(s, i)
				if q == "BP" || q == "SK" || q == "VP" {
					currentSKU = element(s, i+1)
					break
				}
			}
		case "SN1":
			if currentSKU != "" {
				items = append(items, ExtractedASNLine{
					SKU:           currentSKU,
					ShipQty:       element(s, 2),
					UnitOfMeasure: element(s, 3),
				})
			}
		}
	}

	if len(items) == 0 {
		return nil, false
	}
	return &ExtractedASN{ASNNumber: asnNumber, ShipDate: shipDate, LineItems: items}, true
}

// ExtractedInvoice 提取出的发票（810）
type ExtractedInvoice struct {
	InvoiceNumber string
	LineItems     []ExtractedLine
}

// ExtractInvoice 从 810 段序列提取 BIG 单号与 IT1 行。
// IT1 第 2/4 元素为数量/单价，SKU 在 BP/SK/VP 限定符后。
// 缺少单号或全部行项时返回 ok=false。
func ExtractInvoice(segs []Segment) (*ExtractedInvoice, bool) {
	var invNumber string
	var items []ExtractedLine

	for _, s := range segs {
		switch s.Tag {
		case "BIG":
			if len(s.Elements) > 2 {
				invNumber = element(s, 2)
			}
		case "IT1":
			qty := element(s, 2)
			price := element(s, 4)
			sku := ""
			for i := 1; i < len(s.Elements)-1; i++ {
				q := element(s, i)
				if q == "BP" || q == "SK" || q == "VP" {
					sku = element(s, i+1)
					break
				}
			}
			if sku != "" {
				items = append(items, ExtractedLine{SKU: sku, Quantity: qty, UnitPrice: price})
			}
		}
	}

	if invNumber == "" || len(items) == 0 {
		return nil, false
	}
	return &ExtractedInvoice{InvoiceNumber: invNumber, LineItems: items}, true
}
