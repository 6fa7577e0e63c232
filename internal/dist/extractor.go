// Package dist 从参考 PO 文档目录估计生成分布。
package dist

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"edigen/internal/codec"
	"edigen/pkg/config"
	"edigen/pkg/logger"
)

// Stats 抽取出的分布统计
type Stats struct {
	AvgLines  int     `json:"avg_lines"`
	QtyMean   float64 `json:"qty_mean"`
	QtyStd    float64 `json:"qty_std"`
	PriceMean float64 `json:"price_mean"`
	PriceStd  float64 `json:"price_std"`
}

// Defaults 配置兜底分布
func Defaults(g *config.GenConfig) Stats {
	return Stats{
		AvgLines:  g.AvgLineItems,
		QtyMean:   g.QtyMean,
		QtyStd:    g.QtyStd,
		PriceMean: g.PriceMean,
		PriceStd:  g.PriceStd,
	}
}

// 二进制/图片类扩展名直接跳过
var skipExts = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Extractor 分布抽取器
type Extractor struct {
	cfg *config.GenConfig
	log logger.Logger
}

// NewExtractor 创建分布抽取器
func NewExtractor(cfg *config.GenConfig, log logger.Logger) *Extractor {
	return &Extractor{cfg: cfg, log: log}
}

// Extract 遍历参考目录，解析其中的 850 文档并估计分布。
// 目录缺失、为空或没有任何可解析 PO 时回退配置兜底值，只告警不报错。
func (e *Extractor) Extract(ctx context.Context, dir string) Stats {
	if dir == "" {
		e.log.Warnf(ctx, "reference dir not set, using default distribution")
		return Defaults(e.cfg)
	}
	if _, err := os.Stat(dir); err != nil {
		e.log.Warnf(ctx, "reference dir not found: %s, using default distribution", dir)
		return Defaults(e.cfg)
	}

	var qtys, prices, lineCounts []float64

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			e.log.Warnf(ctx, "walk %s failed: %v, skipped", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if skipExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			e.log.Warnf(ctx, "read reference file %s failed: %v, skipped", path, err)
			return nil
		}

		segs := codec.Parse(string(content))
		tx, ok := codec.TransactionType(segs)
		if !ok || tx != "850" {
			return nil
		}

		po, ok := codec.ExtractPO(segs)
		if !ok {
			e.log.Warnf(ctx, "reference file %s is not a parseable 850, skipped", path)
			return nil
		}

		lineCounts = append(lineCounts, float64(len(po.LineItems)))
		for _, li := range po.LineItems {
			if q := safeFloat(li.Quantity); q > 0 {
				qtys = append(qtys, q)
			}
			if p := safeFloat(li.UnitPrice); p > 0 {
				prices = append(prices, p)
			}
		}
		return nil
	})
	if walkErr != nil {
		e.log.Warnf(ctx, "walk reference dir failed: %v, using default distribution", walkErr)
		return Defaults(e.cfg)
	}

	if len(lineCounts) == 0 {
		e.log.Warnf(ctx, "no usable 850 documents under %s, using default distribution", dir)
		return Defaults(e.cfg)
	}

	out := Defaults(e.cfg)
	out.AvgLines = int(clamp(stat.Mean(lineCounts, nil), 1, float64(e.cfg.LineItemsMax)))
	if len(qtys) > 0 {
		out.QtyMean = clamp(stat.Mean(qtys, nil), 1, e.cfg.QtyMax)
		out.QtyStd = clamp(stat.PopStdDev(qtys, nil), 1.0, e.cfg.QtyMax)
	}
	if len(prices) > 0 {
		out.PriceMean = clamp(stat.Mean(prices, nil), 1, e.cfg.PriceMax)
		out.PriceStd = clamp(stat.PopStdDev(prices, nil), 0.5, e.cfg.PriceMax)
	}

	e.log.Infof(ctx, "distribution extracted from %d documents: avg_lines=%d qty_mean=%.2f qty_std=%.2f price_mean=%.2f price_std=%.2f",
		len(lineCounts), out.AvgLines, out.QtyMean, out.QtyStd, out.PriceMean, out.PriceStd)
	return out
}

// safeFloat 数值转换失败兜底为 0
func safeFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
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
