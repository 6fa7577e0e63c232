package assemble

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"edigen/internal/model"
)

// OracleLabelVersion oracle 记录版本标识
const OracleLabelVersion = "optionB_flags_only_v1"

// BuildOracleFlags 为每张 PO 计算数据质量信号：
// 单据存在性、内容签名、关联单据计数。与训练标签无关，仅供审计。
func BuildOracleFlags(pos []*model.PurchaseOrder, asns []*model.ShipNotice, invs []*model.Invoice) map[string]model.OracleRecord {
	asnByPO := make(map[string]int)
	for _, a := range asns {
		asnByPO[a.PONumber]++
	}
	invByPO := make(map[string]int)
	for _, v := range invs {
		invByPO[v.PONumber]++
	}

	out := make(map[string]model.OracleRecord, len(pos))
	for _, po := range pos {
		pn := po.PONumber
		out[pn] = model.OracleRecord{
			OracleFlags: model.OracleFlags{
				MissingASN:     asnByPO[pn] == 0,
				MissingInvoice: invByPO[pn] == 0,
				POSignature:    poSignature(po),
				ASNCount:       asnByPO[pn],
				InvoiceCount:   invByPO[pn],
			},
			OracleLabelVersion: OracleLabelVersion,
		}
	}
	return out
}

// poSignature 稳定内容签名：买卖双方 + 排序后的行 (sku|qty|price)
func poSignature(po *model.PurchaseOrder) string {
	lines := make([]string, 0, len(po.LineItems))
	for _, li := range po.LineItems {
		lines = append(lines, fmt.Sprintf("%s|%d|%s",
			li.SKU, li.Quantity, strconv.FormatFloat(li.UnitPrice, 'f', -1, 64)))
	}
	sort.Strings(lines)

	payload := po.BuyerCode + "||" + po.SupplierCode + "||" + strings.Join(lines, "||")
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
