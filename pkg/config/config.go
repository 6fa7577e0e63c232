package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	App   AppConfig   `mapstructure:"app" json:"app"`
	MySQL MySQLConfig `mapstructure:"mysql" json:"-"`
	Gen   GenConfig   `mapstructure:"gen" json:"gen"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name" json:"name"`
	Env      string `mapstructure:"env" json:"env"`
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

// MySQLConfig MySQL 配置（可选的审计落库，DSN 为空则不启用）
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ToleranceProfile 容差档位（数量/价格/费用三个百分比阈值）
type ToleranceProfile struct {
	ID        string  `mapstructure:"id" json:"id"`
	QtyPct    float64 `mapstructure:"qty_pct" json:"qty_pct"`
	PricePct  float64 `mapstructure:"price_pct" json:"price_pct"`
	ChargePct float64 `mapstructure:"charge_pct" json:"charge_pct"`
}

// GenConfig 生成器配置（所有随机分布与异常注入的旋钮）
type GenConfig struct {
	// 时间锚点（yyyy-mm-dd），为空则取当天 UTC 零点；固定后整个数据集可复现
	AnchorDate string `mapstructure:"anchor_date" json:"anchor_date"`

	// 历史窗口 / 近期需求漂移
	HistoryDays   int     `mapstructure:"history_days" json:"history_days"`
	RecentDays    int     `mapstructure:"recent_days" json:"recent_days"`
	RecentQtyMult float64 `mapstructure:"recent_qty_mult" json:"recent_qty_mult"`

	// 基础分布（reference 目录解析失败时的兜底值）
	AvgLineItems int     `mapstructure:"avg_line_items" json:"avg_line_items"`
	LineItemsMax int     `mapstructure:"line_items_max" json:"line_items_max"`
	QtyMean      float64 `mapstructure:"qty_mean" json:"qty_mean"`
	QtyStd       float64 `mapstructure:"qty_std" json:"qty_std"`
	QtyMax       float64 `mapstructure:"qty_max" json:"qty_max"`
	PriceMean    float64 `mapstructure:"price_mean" json:"price_mean"`
	PriceStd     float64 `mapstructure:"price_std" json:"price_std"`
	PriceMax     float64 `mapstructure:"price_max" json:"price_max"`

	// 供应商交期与发运抖动
	SupplierLeadDaysMin int     `mapstructure:"supplier_lead_days_min" json:"supplier_lead_days_min"`
	SupplierLeadDaysMax int     `mapstructure:"supplier_lead_days_max" json:"supplier_lead_days_max"`
	ShipJitterMean      float64 `mapstructure:"ship_jitter_mean" json:"ship_jitter_mean"`
	ShipJitterStd       float64 `mapstructure:"ship_jitter_std" json:"ship_jitter_std"`
	ShipJitterMin       int     `mapstructure:"ship_jitter_min" json:"ship_jitter_min"`
	ShipJitterMax       int     `mapstructure:"ship_jitter_max" json:"ship_jitter_max"`

	// 开票时点
	InvoiceAfterShipDaysMin int `mapstructure:"invoice_after_ship_days_min" json:"invoice_after_ship_days_min"`
	InvoiceAfterShipDaysMax int `mapstructure:"invoice_after_ship_days_max" json:"invoice_after_ship_days_max"`

	// 费用项（占小计的百分比）
	FreightPctMean  float64 `mapstructure:"freight_pct_mean" json:"freight_pct_mean"`
	FreightPctStd   float64 `mapstructure:"freight_pct_std" json:"freight_pct_std"`
	DiscountPctMean float64 `mapstructure:"discount_pct_mean" json:"discount_pct_mean"`
	DiscountPctStd  float64 `mapstructure:"discount_pct_std" json:"discount_pct_std"`
	TaxPctMean      float64 `mapstructure:"tax_pct_mean" json:"tax_pct_mean"`
	TaxPctStd       float64 `mapstructure:"tax_pct_std" json:"tax_pct_std"`

	// NORMAL 样本中的良性缺单概率
	PMissingASN     float64 `mapstructure:"p_missing_asn" json:"p_missing_asn"`
	PMissingInvoice float64 `mapstructure:"p_missing_invoice" json:"p_missing_invoice"`

	// 容差档位目录
	TolProfiles []ToleranceProfile `mapstructure:"tol_profiles" json:"tol_profiles"`

	// 异常注入幅度（超出容差）
	AnomQtyMultMin    float64 `mapstructure:"anom_qty_mult_min" json:"anom_qty_mult_min"`
	AnomQtyMultMax    float64 `mapstructure:"anom_qty_mult_max" json:"anom_qty_mult_max"`
	AnomPriceMultMin  float64 `mapstructure:"anom_price_mult_min" json:"anom_price_mult_min"`
	AnomPriceMultMax  float64 `mapstructure:"anom_price_mult_max" json:"anom_price_mult_max"`
	AnomChargeMultMin float64 `mapstructure:"anom_charge_mult_min" json:"anom_charge_mult_min"`
	AnomChargeMultMax float64 `mapstructure:"anom_charge_mult_max" json:"anom_charge_mult_max"`

	// 风险评分 / 严重度映射
	// 下游标签语义依赖这几个常量，不要改默认值
	RiskImpactScale float64 `mapstructure:"risk_impact_scale" json:"risk_impact_scale"`
	SevLowRiskMax   float64 `mapstructure:"sev_low_risk_max" json:"sev_low_risk_max"`
	SevMedRiskMax   float64 `mapstructure:"sev_med_risk_max" json:"sev_med_risk_max"`
}

// setDefaults 注册全部默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "edigen")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("gen.anchor_date", "")
	v.SetDefault("gen.history_days", 120)
	v.SetDefault("gen.recent_days", 21)
	v.SetDefault("gen.recent_qty_mult", 1.10)

	v.SetDefault("gen.avg_line_items", 6)
	v.SetDefault("gen.line_items_max", 14)
	v.SetDefault("gen.qty_mean", 120.0)
	v.SetDefault("gen.qty_std", 70.0)
	v.SetDefault("gen.qty_max", 6000.0)
	v.SetDefault("gen.price_mean", 50.0)
	v.SetDefault("gen.price_std", 18.0)
	v.SetDefault("gen.price_max", 2500.0)

	v.SetDefault("gen.supplier_lead_days_min", 2)
	v.SetDefault("gen.supplier_lead_days_max", 14)
	v.SetDefault("gen.ship_jitter_mean", 0.0)
	v.SetDefault("gen.ship_jitter_std", 1.2)
	v.SetDefault("gen.ship_jitter_min", -2)
	v.SetDefault("gen.ship_jitter_max", 4)

	v.SetDefault("gen.invoice_after_ship_days_min", 0)
	v.SetDefault("gen.invoice_after_ship_days_max", 10)

	v.SetDefault("gen.freight_pct_mean", 0.028)
	v.SetDefault("gen.freight_pct_std", 0.012)
	v.SetDefault("gen.discount_pct_mean", 0.015)
	v.SetDefault("gen.discount_pct_std", 0.010)
	v.SetDefault("gen.tax_pct_mean", 0.020)
	v.SetDefault("gen.tax_pct_std", 0.008)

	v.SetDefault("gen.p_missing_asn", 0.03)
	v.SetDefault("gen.p_missing_invoice", 0.02)

	v.SetDefault("gen.anom_qty_mult_min", 1.05)
	v.SetDefault("gen.anom_qty_mult_max", 1.40)
	v.SetDefault("gen.anom_price_mult_min", 1.02)
	v.SetDefault("gen.anom_price_mult_max", 1.25)
	v.SetDefault("gen.anom_charge_mult_min", 1.6)
	v.SetDefault("gen.anom_charge_mult_max", 4.0)

	v.SetDefault("gen.risk_impact_scale", 2500.0)
	v.SetDefault("gen.sev_low_risk_max", 0.35)
	v.SetDefault("gen.sev_med_risk_max", 0.70)
}

// defaultTolProfiles 默认容差档位目录
func defaultTolProfiles() []ToleranceProfile {
	return []ToleranceProfile{
		{ID: "STRICT", QtyPct: 0.01, PricePct: 0.005, ChargePct: 0.01},
		{ID: "STANDARD", QtyPct: 0.02, PricePct: 0.01, ChargePct: 0.02},
		{ID: "LOOSE", QtyPct: 0.05, PricePct: 0.02, ChargePct: 0.04},
	}
}

// Load 加载配置文件；path 为空时仅使用默认值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	if len(cfg.Gen.TolProfiles) == 0 {
		cfg.Gen.TolProfiles = defaultTolProfiles()
	}

	return &cfg, nil
}

// Default 默认配置（测试用）
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	g := c.Gen
	if g.AvgLineItems < 1 || g.LineItemsMax < g.AvgLineItems {
		return fmt.Errorf("gen.avg_line_items/line_items_max out of range")
	}
	if g.QtyMean <= 0 || g.PriceMean <= 0 {
		return fmt.Errorf("gen.qty_mean and gen.price_mean must be positive")
	}
	if g.PMissingASN < 0 || g.PMissingASN > 1 || g.PMissingInvoice < 0 || g.PMissingInvoice > 1 {
		return fmt.Errorf("missing-doc probabilities must be within [0,1]")
	}
	if g.AnomQtyMultMin <= 1.0 || g.AnomQtyMultMax < g.AnomQtyMultMin {
		return fmt.Errorf("gen.anom_qty_mult bounds invalid")
	}
	if g.AnomPriceMultMin <= 1.0 || g.AnomPriceMultMax < g.AnomPriceMultMin {
		return fmt.Errorf("gen.anom_price_mult bounds invalid")
	}
	if !(g.SevLowRiskMax > 0 && g.SevLowRiskMax < g.SevMedRiskMax && g.SevMedRiskMax < 1.0) {
		return fmt.Errorf("severity thresholds must satisfy 0 < low < med < 1")
	}
	if g.RiskImpactScale <= 0 {
		return fmt.Errorf("gen.risk_impact_scale must be positive")
	}
	if len(g.TolProfiles) == 0 {
		return fmt.Errorf("at least one tolerance profile is required")
	}
	for _, p := range g.TolProfiles {
		if p.ID == "" || p.QtyPct <= 0 || p.PricePct <= 0 || p.ChargePct <= 0 {
			return fmt.Errorf("tolerance profile %q has non-positive thresholds", p.ID)
		}
	}
	if g.AnchorDate != "" {
		if _, err := time.Parse("2006-01-02", g.AnchorDate); err != nil {
			return fmt.Errorf("gen.anchor_date must be yyyy-mm-dd: %w", err)
		}
	}
	return nil
}

// Anchor 解析时间锚点；未配置时取当天 UTC 零点
func (g *GenConfig) Anchor() time.Time {
	if g.AnchorDate != "" {
		t, err := time.Parse("2006-01-02", g.AnchorDate)
		if err == nil {
			return t.UTC()
		}
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Profile 按 ID 查找容差档位，找不到回退 STANDARD
func (g *GenConfig) Profile(id string) ToleranceProfile {
	var std ToleranceProfile
	for _, p := range g.TolProfiles {
		if p.ID == id {
			return p
		}
		if p.ID == "STANDARD" {
			std = p
		}
	}
	if std.ID == "" && len(g.TolProfiles) > 0 {
		return g.TolProfiles[0]
	}
	return std
}
