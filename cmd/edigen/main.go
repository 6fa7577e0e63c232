package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"edigen/internal/assemble"
	"edigen/internal/dist"
	"edigen/internal/generate"
	"edigen/internal/master"
	"edigen/pkg/config"
	"edigen/pkg/infra/mysql"
	"edigen/pkg/logger"
)

// 默认配额沿用既有训练集比例
const defaultQuotas = "NORMAL=8000,THREE_WAY_QTY_MISMATCH=1200,THREE_WAY_PRICE_MISMATCH=1200," +
	"LATE_SHIPMENT=900,SHORT_SHIP=900,OVERBILL=900,CHARGES_ANOMALY=800,MISSING_DOC=600,DUPLICATE_DOC=500"

var (
	configPath   = flag.String("config", "", "配置文件路径（为空则使用默认配置）")
	seed         = flag.Int64("seed", 42, "随机种子")
	referenceDir = flag.String("reference-dir", "", "参考 PO 文档目录（缺省回退内置分布）")
	quotasFlag   = flag.String("quotas", defaultQuotas, "标签配额，LABEL=count 逗号分隔")
	outDir       = flag.String("outdir", "data_full/gold", "数据集输出目录")
	writeWire    = flag.Bool("write-wire", false, "同时输出线格式单据文件")
	wireDir      = flag.String("wire-dir", "data_full/bronze", "线格式输出目录")
	anchorDate   = flag.String("anchor", "", "时间锚点 yyyy-mm-dd（固定后可复现，默认当天）")
)

func main() {
	flag.Parse()

	// 1. 加载环境变量（MYSQL_DSN 等可放 .env）
	_ = godotenv.Load()

	log.Println("========================================")
	log.Println("  EDIGEN Dataset Generator Starting...")
	log.Println("========================================")

	// 2. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *anchorDate != "" {
		cfg.Gen.AnchorDate = *anchorDate
	}
	if cfg.MySQL.DSN == "" {
		cfg.MySQL.DSN = os.Getenv("MYSQL_DSN")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// 3. 初始化 Logger
	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	// 4. 解析配额（未知标签立即失败）
	quotas, err := assemble.ParseQuotas(*quotasFlag)
	if err != nil {
		log.Fatalf("Failed to parse quotas: %v", err)
	}

	anchor := cfg.Gen.Anchor()
	zapLogger.Infof(ctx, "run parameters: seed=%d anchor=%s outdir=%s", *seed, anchor.Format("2006-01-02"), *outDir)

	// 5. 分布抽取（一次）
	extractor := dist.NewExtractor(&cfg.Gen, zapLogger)
	st := extractor.Extract(ctx, *referenceDir)
	zapLogger.Infof(ctx, "dist: avg_lines=%d qty_mean=%.2f qty_std=%.2f price_mean=%.2f price_std=%.2f",
		st.AvgLines, st.QtyMean, st.QtyStd, st.PriceMean, st.PriceStd)

	// 6. 主数据合成（一次）
	md := master.Build(st, &cfg.Gen, *seed, anchor)

	// 7. 生成数据集
	gen := generate.New(&cfg.Gen, st, md, *seed, anchor)
	asm := assemble.NewAssembler(cfg, zapLogger, st, md, gen, *seed, anchor)

	ds, err := asm.Run(ctx, quotas)
	if err != nil {
		log.Fatalf("Dataset generation failed: %v", err)
	}

	// 8. 落盘 JSON 产物
	outPath, err := asm.WriteDataset(ctx, ds, *outDir)
	if err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}
	log.Printf("Dataset written: %s\n", outPath)

	// 9. 可选：线格式单据文件
	if *writeWire {
		if err := asm.WriteWireFiles(ctx, ds, *wireDir); err != nil {
			log.Fatalf("Failed to write wire-format files: %v", err)
		}
	}

	// 10. 可选：审计落库
	if cfg.MySQL.DSN != "" {
		dao, err := mysql.NewAuditDAO(cfg.MySQL.DSN)
		if err != nil {
			log.Fatalf("Failed to create AuditDAO: %v", err)
		}
		defer dao.Close()

		if err := dao.SaveRun(ctx, ds.Labels, ds.Links); err != nil {
			log.Fatalf("Failed to save audit records: %v", err)
		}
		zapLogger.Infof(ctx, "audit records saved: labels=%d links=%d", len(ds.Labels), len(ds.Links))
	}

	log.Println("========================================")
	log.Println("  Generation finished")
	log.Println("========================================")
}
