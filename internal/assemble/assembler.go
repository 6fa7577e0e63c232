// Package assemble 按配额编排整个数据集的生成与落盘。
package assemble

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"edigen/internal/dist"
	"edigen/internal/generate"
	"edigen/internal/master"
	"edigen/internal/model"
	"edigen/internal/render"
	"edigen/pkg/config"
	"edigen/pkg/errorutil"
	"edigen/pkg/logger"
)

const (
	// Mode 数据集模式标识
	Mode = "optionB_po_asn_invoice_3way"
	// GeneratorVersion 生成器版本号
	GeneratorVersion = "optionB_v1"
	// DatasetFileName 数据集产物文件名
	DatasetFileName = "training_dataset_full.json"
)

// Dataset 数据集产物（顶层 JSON 结构）
type Dataset struct {
	Mode             string                         `json:"mode"`
	GeneratorVersion string                         `json:"generator_version"`
	Seed             int64                          `json:"seed"`
	Dist             dist.Stats                     `json:"dist"`
	Cfg              *config.GenConfig              `json:"cfg"`
	LabelSet         []string                       `json:"label_set"`
	MasterData       *master.Data                   `json:"master_data"`
	POs              []*model.PurchaseOrder         `json:"pos"`
	ASNs             []*model.ShipNotice            `json:"asns"`
	Invoices         []*model.Invoice               `json:"invoices"`
	Links            []model.Link                   `json:"links"`
	Labels           map[string]*model.LabelPayload `json:"labels"`
	OracleFlags      map[string]model.OracleRecord  `json:"oracle_flags"`
}

// ParseQuotas 解析 "LABEL=count,..." 配额串。
// 未指定的标签补 0；未知标签是致命的参数错误，生成开始前即失败。
func ParseQuotas(s string) (map[string]int, error) {
	quotas := make(map[string]int, len(model.LabelSet))
	for _, l := range model.LabelSet {
		quotas[l] = 0
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, errorutil.Fatal(fmt.Sprintf("invalid quota entry: %q", part))
		}
		k := strings.TrimSpace(kv[0])
		if !model.ValidLabel(k) {
			return nil, errorutil.Fatal(fmt.Sprintf("unknown label in quotas: %s", k))
		}
		v, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil || v < 0 {
			return nil, errorutil.Fatal(fmt.Sprintf("invalid quota count for %s: %q", k, kv[1]))
		}
		quotas[k] = v
	}
	return quotas, nil
}

// poolEntry 重复单据池条目（ASN 与发票都在的 NORMAL 三联单）
type poolEntry struct {
	po  *model.PurchaseOrder
	asn *model.ShipNotice
	inv *model.Invoice
}

// Assembler 数据集组装器
type Assembler struct {
	cfg    *config.Config
	log    logger.Logger
	st     dist.Stats
	md     *master.Data
	gen    *generate.Generator
	seed   int64
	anchor time.Time
}

// NewAssembler 创建组装器
func NewAssembler(cfg *config.Config, log logger.Logger, st dist.Stats, md *master.Data, gen *generate.Generator, seed int64, anchor time.Time) *Assembler {
	return &Assembler{
		cfg:    cfg,
		log:    log,
		st:     st,
		md:     md,
		gen:    gen,
		seed:   seed,
		anchor: anchor,
	}
}

// Run 按配额生成完整数据集。
// 流程：逐标签生成基线三联单 → 注入异常 → 重复单据重采样 → oracle flags。
func (a *Assembler) Run(ctx context.Context, quotas map[string]int) (*Dataset, error) {
	ds := &Dataset{
		Mode:             Mode,
		GeneratorVersion: GeneratorVersion,
		Seed:             a.seed,
		Dist:             a.st,
		Cfg:              &a.cfg.Gen,
		LabelSet:         model.LabelSet,
		MasterData:       a.md,
		POs:              make([]*model.PurchaseOrder, 0),
		ASNs:             make([]*model.ShipNotice, 0),
		Invoices:         make([]*model.Invoice, 0),
		Links:            make([]model.Link, 0),
		Labels:           make(map[string]*model.LabelPayload),
		OracleFlags:      make(map[string]model.OracleRecord),
	}

	pool := make([]poolEntry, 0)
	linkIndex := make(map[string]int)
	i := 0

	// 1. 逐标签生成；DUPLICATE_DOC 不生成新三联单，完全由重采样满足
	for _, label := range model.LabelSet {
		n := quotas[label]
		if n <= 0 || label == model.LabelDuplicateDoc {
			continue
		}

		lctx := context.WithValue(ctx, "label", label)
		a.log.Infof(lctx, "generating %d triplets", n)

		for j := 0; j < n; j++ {
			po := a.gen.BuildPO(i)
			i++
			asn := a.gen.BuildASN(po)
			inv := a.gen.BuildInvoice(po, asn)

			// NORMAL 允许少量良性缺单
			if label == model.LabelNormal {
				if a.gen.Chance(a.cfg.Gen.PMissingASN) {
					asn = nil
				}
				if a.gen.Chance(a.cfg.Gen.PMissingInvoice) {
					inv = nil
				}
			}

			asn, inv, payload := a.gen.ApplyAnomaly(po, asn, inv, label)

			ds.POs = append(ds.POs, po)
			link := model.Link{
				PONumber:       po.PONumber,
				POID:           po.POID,
				ASNNumbers:     make([]string, 0, 1),
				InvoiceNumbers: make([]string, 0, 1),
			}
			if asn != nil {
				ds.ASNs = append(ds.ASNs, asn)
				link.ASNNumbers = append(link.ASNNumbers, asn.ASNNumber)
			}
			if inv != nil {
				ds.Invoices = append(ds.Invoices, inv)
				link.InvoiceNumbers = append(link.InvoiceNumbers, inv.InvoiceNumber)
			}
			linkIndex[po.PONumber] = len(ds.Links)
			ds.Links = append(ds.Links, link)

			p := payload
			ds.Labels[po.PONumber] = &p

			if label == model.LabelNormal && asn != nil && inv != nil {
				pool = append(pool, poolEntry{po: po, asn: asn, inv: inv})
			}
		}
	}

	// 2. 重复单据：从 NORMAL 池重采样克隆并改写标签
	if dupN := quotas[model.LabelDuplicateDoc]; dupN > 0 {
		if len(pool) == 0 {
			a.log.Warnf(ctx, "DUPLICATE_DOC quota is %d but NORMAL pool is empty, skipped", dupN)
		} else {
			a.log.Infof(ctx, "resampling %d duplicate-doc instances from pool of %d", dupN, len(pool))
			a.applyDuplicates(ds, pool, linkIndex, dupN)
		}
	}

	// 3. oracle flags（数据质量信号，独立于训练标签）
	ds.OracleFlags = BuildOracleFlags(ds.POs, ds.ASNs, ds.Invoices)

	a.log.Infof(ctx, "dataset built: pos=%d asns=%d invoices=%d labels=%d",
		len(ds.POs), len(ds.ASNs), len(ds.Invoices), len(ds.Labels))
	return ds, nil
}

// applyDuplicates 克隆 ASN/发票（各自 60% 概率）并把对应 PO 改写为 DUPLICATE_DOC
func (a *Assembler) applyDuplicates(ds *Dataset, pool []poolEntry, linkIndex map[string]int, dupN int) {
	for j := 0; j < dupN; j++ {
		src := pool[a.gen.IntBetween(0, len(pool)-1)]
		pn := src.po.PONumber
		li := linkIndex[pn]

		if a.gen.Chance(0.6) {
			dup := src.asn.Clone()
			dup.ASNNumber = fmt.Sprintf("%s-D%d", src.asn.ASNNumber, a.gen.IntBetween(10, 999))
			dup.ASNID = model.DocumentID("asn", dup.ASNNumber)
			ds.ASNs = append(ds.ASNs, dup)
			ds.Links[li].ASNNumbers = append(ds.Links[li].ASNNumbers, dup.ASNNumber)
		}

		if a.gen.Chance(0.6) {
			dup := src.inv.Clone()
			dup.InvoiceNumber = fmt.Sprintf("%s-D%d", src.inv.InvoiceNumber, a.gen.IntBetween(10, 999))
			dup.InvoiceID = model.DocumentID("inv", dup.InvoiceNumber)
			ds.Invoices = append(ds.Invoices, dup)
			ds.Links[li].InvoiceNumbers = append(ds.Links[li].InvoiceNumbers, dup.InvoiceNumber)
		}

		lp := ds.Labels[pn]
		lp.Label = model.LabelDuplicateDoc
		lp.AddReasonCode("DUPLICATE_DOCUMENT_PATTERN")
		lp.OwnerTeam = "OPERATIONS"
		lp.RecommendedAction = "DEDUPE_AND_CONFIRM_VALID_DOC"
		lp.RiskScore = clampRisk(lp.RiskScore + 0.10)
		lp.Severity = generate.Severity(&a.cfg.Gen, lp.RiskScore)
	}
}

func clampRisk(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// WriteDataset 序列化数据集并写入 outdir；目录不可建或写失败即致命
func (a *Assembler) WriteDataset(ctx context.Context, ds *Dataset, outdir string) (string, error) {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return "", fmt.Errorf("create outdir failed: %w", err)
	}

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal dataset failed: %w", err)
	}

	outPath := filepath.Join(outdir, DatasetFileName)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write dataset failed: %w", err)
	}

	a.log.Infof(ctx, "dataset written: %s", outPath)
	return outPath, nil
}

// WriteWireFiles 把每张单据渲染为线格式并逐个落盘
func (a *Assembler) WriteWireFiles(ctx context.Context, ds *Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create wire dir failed: %w", err)
	}

	r := render.NewRenderer(a.anchor)

	for _, po := range ds.POs {
		path := filepath.Join(dir, po.PONumber+".850")
		if err := os.WriteFile(path, []byte(r.RenderPO(po)), 0o644); err != nil {
			return fmt.Errorf("write %s failed: %w", path, err)
		}
	}
	for _, asn := range ds.ASNs {
		path := filepath.Join(dir, asn.ASNNumber+".856")
		if err := os.WriteFile(path, []byte(r.RenderASN(asn)), 0o644); err != nil {
			return fmt.Errorf("write %s failed: %w", path, err)
		}
	}
	for _, inv := range ds.Invoices {
		path := filepath.Join(dir, inv.InvoiceNumber+".810")
		if err := os.WriteFile(path, []byte(r.RenderInvoice(inv)), 0o644); err != nil {
			return fmt.Errorf("write %s failed: %w", path, err)
		}
	}

	a.log.Infof(ctx, "wire-format files written to %s: %d documents",
		dir, len(ds.POs)+len(ds.ASNs)+len(ds.Invoices))
	return nil
}
