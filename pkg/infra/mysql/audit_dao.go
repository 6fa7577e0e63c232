package mysql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"edigen/internal/model"
)

// LabelRecord 标签审计表行
type LabelRecord struct {
	PONumber              string         `gorm:"primaryKey;size:64;column:po_number"`
	Label                 string         `gorm:"size:32"`
	Severity              string         `gorm:"size:8"`
	RiskScore             float64        `gorm:"column:risk_score"`
	EstimatedDollarImpact float64        `gorm:"column:estimated_dollar_impact"`
	ReasonCodes           datatypes.JSON `gorm:"column:reason_codes"`
	OwnerTeam             string         `gorm:"size:32"`
	RecommendedAction     string         `gorm:"size:64"`
	ToleranceProfileID    string         `gorm:"size:16;column:tolerance_profile_id"`
	CreatedAt             time.Time
}

// TableName 指定表名
func (LabelRecord) TableName() string { return "match_labels" }

// LinkRecord 单据关联审计表行
type LinkRecord struct {
	PONumber       string         `gorm:"primaryKey;size:64;column:po_number"`
	POID           string         `gorm:"size:36;column:po_id"`
	ASNNumbers     datatypes.JSON `gorm:"column:asn_numbers"`
	InvoiceNumbers datatypes.JSON `gorm:"column:invoice_numbers"`
	CreatedAt      time.Time
}

// TableName 指定表名
func (LinkRecord) TableName() string { return "match_links" }

// AuditDAO 生成结果审计落库（可选，JSON 产物仍是规范输出）
type AuditDAO struct {
	db *gorm.DB
}

// NewAuditDAO 连接数据库并迁移审计表
func NewAuditDAO(dsn string) (*AuditDAO, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&LabelRecord{}, &LinkRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit tables: %w", err)
	}
	return &AuditDAO{db: db}, nil
}

// SaveRun 批量落库本次运行的标签与关联（按 PO 单号 upsert）
func (dao *AuditDAO) SaveRun(ctx context.Context, labels map[string]*model.LabelPayload, links []model.Link) error {
	labelRows := make([]LabelRecord, 0, len(labels))
	for pn, lp := range labels {
		reasons, err := json.Marshal(lp.ReasonCodes)
		if err != nil {
			return fmt.Errorf("failed to marshal reason codes for %s: %w", pn, err)
		}
		labelRows = append(labelRows, LabelRecord{
			PONumber:              pn,
			Label:                 lp.Label,
			Severity:              lp.Severity,
			RiskScore:             lp.RiskScore,
			EstimatedDollarImpact: lp.EstimatedDollarImpact,
			ReasonCodes:           reasons,
			OwnerTeam:             lp.OwnerTeam,
			RecommendedAction:     lp.RecommendedAction,
			ToleranceProfileID:    lp.ToleranceProfileID,
		})
	}

	linkRows := make([]LinkRecord, 0, len(links))
	for _, lk := range links {
		asns, err := json.Marshal(lk.ASNNumbers)
		if err != nil {
			return fmt.Errorf("failed to marshal asn numbers for %s: %w", lk.PONumber, err)
		}
		invs, err := json.Marshal(lk.InvoiceNumbers)
		if err != nil {
			return fmt.Errorf("failed to marshal invoice numbers for %s: %w", lk.PONumber, err)
		}
		linkRows = append(linkRows, LinkRecord{
			PONumber:       lk.PONumber,
			POID:           lk.POID,
			ASNNumbers:     asns,
			InvoiceNumbers: invs,
		})
	}

	upsert := clause.OnConflict{UpdateAll: true}

	if len(labelRows) > 0 {
		if err := dao.db.WithContext(ctx).Clauses(upsert).CreateInBatches(labelRows, 500).Error; err != nil {
			return fmt.Errorf("failed to save label records: %w", err)
		}
	}
	if len(linkRows) > 0 {
		if err := dao.db.WithContext(ctx).Clauses(upsert).CreateInBatches(linkRows, 500).Error; err != nil {
			return fmt.Errorf("failed to save link records: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库连接
func (dao *AuditDAO) Close() error {
	sqlDB, err := dao.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
