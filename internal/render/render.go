// Package render 把单据对象序列化回线格式（最小可解析的 X12 信封）。
package render

import (
	"fmt"
	"hash/crc32"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/atomic"

	"edigen/internal/codec"
	"edigen/internal/model"
)

// Sequence 交换控制号序列。
// 进程内单调递增计数器 + 时间锚点 + 业务单号稳定散列，
// 同一次运行内控制号唯一；计数器运行中不得重置。
type Sequence struct {
	counter atomic.Int64
	anchor  time.Time
}

// NewSequence 创建控制号序列
func NewSequence(anchor time.Time) *Sequence {
	return &Sequence{anchor: anchor}
}

// Next 派生下一组 (ISA, GS, ST) 控制号
func (s *Sequence) Next(businessKey string) (isaCtrl, gsCtrl, stCtrl string) {
	n := s.counter.Inc()
	base := s.anchor.UnixMilli() + int64(crc32.ChecksumIEEE([]byte(businessKey))) + n%1000000
	isaCtrl = ctrl9(base)
	gsCtrl = strconv.FormatInt((base/10)%100000, 10)
	stCtrl = ctrl4(base / 100)
	return
}

// ctrl9 交换层控制号：9 位零填充
func ctrl9(n int64) string {
	return fmt.Sprintf("%09d", n%1000000000)
}

// ctrl4 事务层控制号：4 位零填充
func ctrl4(n int64) string {
	return fmt.Sprintf("%04d", n%10000)
}

// Renderer 单据渲染器
type Renderer struct {
	seq    *Sequence
	anchor time.Time
}

// NewRenderer 创建渲染器（控制号序列随之创建一次）
func NewRenderer(anchor time.Time) *Renderer {
	return &Renderer{seq: NewSequence(anchor), anchor: anchor}
}

// envelope 拼 ISA/GS 头与 GE/IEA 尾，段以终止符连接并补尾终止符
func (r *Renderer) envelope(groupCode, isaCtrl, gsCtrl string, tx []string) string {
	isaDate := r.anchor.Format("060102")
	isaTime := r.anchor.Format("1504")
	gsDate := r.anchor.Format("20060102")

	lines := make([]string, 0, len(tx)+4)
	lines = append(lines,
		"ISA*00*          *00*          *ZZ*SENDER_ID       *ZZ*RECEIVER_ID     *"+
			isaDate+"*"+isaTime+"*U*00400*"+isaCtrl+"*0*P*"+codec.CompositeSeparator,
		"GS*"+groupCode+"*SENDER*RECEIVER*"+gsDate+"*"+isaTime+"*"+gsCtrl+"*X*004010",
	)
	lines = append(lines, tx...)
	lines = append(lines, "GE*1*"+gsCtrl, "IEA*1*"+isaCtrl)

	return strings.Join(lines, codec.DefaultSegmentTerminator) + codec.DefaultSegmentTerminator
}

// price 单价按最短无损十进制输出（与解析侧字符串比对兼容）
func price(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// amount 费用金额固定两位小数
func amount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// RenderPO 渲染采购订单为 850
func (r *Renderer) RenderPO(po *model.PurchaseOrder) string {
	isaCtrl, gsCtrl, stCtrl := r.seq.Next(po.PONumber)

	tx := []string{
		"ST*850*" + stCtrl,
		"BEG*00*SA*" + po.PONumber + "*" + po.OrderDate.Format("20060102"),
		"N1*BY*" + po.BuyerCode,
		"N1*SU*" + po.SupplierCode,
		"ITD*01******" + po.PaymentTerms,
	}

	tx = append(tx, "SAC*C*FREIGHT***"+amount(po.FreightAmount))
	if po.DiscountAmount > 0 {
		tx = append(tx, "SAC*A*DISCOUNT***"+amount(po.DiscountAmount))
	}
	if po.TaxAmount > 0 {
		tx = append(tx, "SAC*C*TAX***"+amount(po.TaxAmount))
	}

	for i, li := range po.LineItems {
		tx = append(tx, fmt.Sprintf("PO1*%d*%d*%s*%s****%s",
			i+1, li.Quantity, li.UnitOfMeasure, price(li.UnitPrice), li.SKU))
	}

	tx = append(tx, fmt.Sprintf("CTT*%d", len(po.LineItems)))
	tx = append(tx, fmt.Sprintf("SE*%d*%s", len(tx)+1, stCtrl))

	return r.envelope("PO", isaCtrl, gsCtrl, tx)
}

// RenderASN 渲染发运通知为 856
func (r *Renderer) RenderASN(asn *model.ShipNotice) string {
	isaCtrl, gsCtrl, stCtrl := r.seq.Next(asn.ASNNumber)
	shipDate := asn.ShipDate.Format("20060102")

	tx := []string{
		"ST*856*" + stCtrl,
		"BSN*00*" + asn.ASNNumber + "*" + shipDate + "*" + r.anchor.Format("1504"),
		"DTM*011*" + shipDate,
		"TD5*****" + asn.CarrierCode,
	}

	// 极简 HL 层级：每行一个 item 级节点
	for i, li := range asn.LineItems {
		tx = append(tx,
			fmt.Sprintf("HL*%d**I", i+1),
			"LIN**BP*"+li.SKU,
			fmt.Sprintf("SN1**%d*%s", li.ShipQty, li.UnitOfMeasure),
		)
	}

	tx = append(tx, fmt.Sprintf("CTT*%d", len(asn.LineItems)))
	tx = append(tx, fmt.Sprintf("SE*%d*%s", len(tx)+1, stCtrl))

	return r.envelope("SH", isaCtrl, gsCtrl, tx)
}

// RenderInvoice 渲染发票为 810
func (r *Renderer) RenderInvoice(inv *model.Invoice) string {
	isaCtrl, gsCtrl, stCtrl := r.seq.Next(inv.InvoiceNumber)

	tx := []string{
		"ST*810*" + stCtrl,
		"BIG*" + inv.InvoiceDate.Format("20060102") + "*" + inv.InvoiceNumber,
		"N1*BY*" + inv.BuyerCode,
		"N1*SU*" + inv.SupplierCode,
	}

	tx = append(tx, "SAC*C*FREIGHT***"+amount(inv.FreightAmount))
	if inv.DiscountAmount > 0 {
		tx = append(tx, "SAC*A*DISCOUNT***"+amount(inv.DiscountAmount))
	}
	if inv.TaxAmount > 0 {
		tx = append(tx, "SAC*C*TAX***"+amount(inv.TaxAmount))
	}

	for i, li := range inv.LineItems {
		tx = append(tx, fmt.Sprintf("IT1*%d*%d*%s*%s**BP*%s",
			i+1, li.Quantity, li.UnitOfMeasure, price(li.UnitPrice), li.SKU))
	}

	// TDS 金额单位为分
	tx = append(tx, fmt.Sprintf("TDS*%d", int64(math.Round(inv.TotalAmount*100))))
	tx = append(tx, fmt.Sprintf("SE*%d*%s", len(tx)+1, stCtrl))

	return r.envelope("IN", isaCtrl, gsCtrl, tx)
}
