package model

// 标签集合（顺序即输出 label_set 的顺序）
const (
	LabelNormal            = "NORMAL"
	LabelMissingDoc        = "MISSING_DOC"
	LabelThreeWayQtyMism   = "THREE_WAY_QTY_MISMATCH"
	LabelThreeWayPriceMism = "THREE_WAY_PRICE_MISMATCH"
	LabelLateShipment      = "LATE_SHIPMENT"
	LabelShortShip         = "SHORT_SHIP"
	LabelOverbill          = "OVERBILL"
	LabelChargesAnomaly    = "CHARGES_ANOMALY"
	LabelDuplicateDoc      = "DUPLICATE_DOC"
)

// LabelSet 全量标签（有序）
var LabelSet = []string{
	LabelNormal,
	LabelMissingDoc,
	LabelThreeWayQtyMism,
	LabelThreeWayPriceMism,
	LabelLateShipment,
	LabelShortShip,
	LabelOverbill,
	LabelChargesAnomaly,
	LabelDuplicateDoc,
}

// ValidLabel 判断标签是否在固定集合内
func ValidLabel(s string) bool {
	for _, l := range LabelSet {
		if l == s {
			return true
		}
	}
	return false
}

// 严重度档位
const (
	SeverityLow  = "LOW"
	SeverityMed  = "MED"
	SeverityHigh = "HIGH"
)

// LabelPayload 每张 PO 的标签载荷
type LabelPayload struct {
	Label                 string   `json:"label"`
	Severity              string   `json:"severity"`
	RiskScore             float64  `json:"risk_score"`
	EstimatedDollarImpact float64  `json:"estimated_dollar_impact"`
	ReasonCodes           []string `json:"reason_codes"`
	OwnerTeam             string   `json:"owner_team"`
	RecommendedAction     string   `json:"recommended_action"`
	ToleranceProfileID    string   `json:"tolerance_profile_id"`
}

// AddReasonCode 追加 reason code（去重，保持稳定顺序）
func (p *LabelPayload) AddReasonCode(code string) {
	for _, c := range p.ReasonCodes {
		if c == code {
			return
		}
	}
	p.ReasonCodes = append(p.ReasonCodes, code)
}

// Link PO 与其关联单据的交叉引用
type Link struct {
	PONumber       string   `json:"po_number"`
	POID           string   `json:"po_id"`
	ASNNumbers     []string `json:"asn_numbers"`
	InvoiceNumbers []string `json:"invoice_numbers"`
}

// OracleFlags 数据质量信号（非训练标签）
type OracleFlags struct {
	MissingASN     bool   `json:"missing_asn"`
	MissingInvoice bool   `json:"missing_invoice"`
	POSignature    string `json:"po_signature"`
	ASNCount       int    `json:"asn_count"`
	InvoiceCount   int    `json:"invoice_count"`
}

// OracleRecord 每张 PO 的 oracle 记录
type OracleRecord struct {
	OracleFlags        OracleFlags `json:"oracle_flags"`
	OracleLabelVersion string      `json:"oracle_label_version"`
}
