// Package master 主数据合成：供应商、买方、物料、价格合同、库位。
// 给定 (分布统计, 种子) 必须产出完全一致的主数据。
package master

import (
	"math"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"edigen/internal/dist"
	"edigen/pkg/config"
)

// 固定目录（可替换为真实主数据）
var (
	SupplierCodes = []string{
		"SUPPLIER001",
		"SUPP_ACE_MFG",
		"WIDGET_CO",
		"ACME_PARTS",
		"INDUSTRIAL_GOODS_LTD",
		"TECH_SUPPLY_INT",
		"LOGISTICS_PLUS",
		"PREMIUM_GOODS",
	}

	BuyerCodes = []string{
		"BUYER_RETAIL_A",
		"BUYER_DISTRIB_B",
		"BUYER_WAREHOUSE_C",
		"BUYER_CHAIN_D",
		"BUYER_ECOMM_E",
	}

	SKUs = []string{
		"SKU-10001",
		"SKU-10002",
		"SKU-10003",
		"SKU-20001",
		"SKU-20002",
		"SKU-30001",
		"PART-XYZ-100",
		"PART-ABC-200",
		"WIDGET-BLUE-SM",
		"WIDGET-RED-LG",
	}

	UnitsOfMeasure = []string{"EA", "CS", "DZ", "BOX", "PLT", "CT"}
	PaymentTerms   = []string{"NET30", "NET45", "NET60", "2%10NET30"}
	Carriers       = []string{"UPS", "FEDEX", "DHL", "XPO", "OLD_DOMINION", "JB_HUNT"}
	CurrencyCodes  = []string{"USD"}

	Locations = []Location{
		{LocationCode: "WH-NE-01", Name: "Northeast DC", City: "Newark", State: "NJ", Timezone: "America/New_York"},
		{LocationCode: "WH-SE-01", Name: "Southeast DC", City: "Atlanta", State: "GA", Timezone: "America/New_York"},
		{LocationCode: "WH-MW-01", Name: "Midwest DC", City: "Chicago", State: "IL", Timezone: "America/Chicago"},
		{LocationCode: "WH-W-01", Name: "West DC", City: "Reno", State: "NV", Timezone: "America/Los_Angeles"},
	}
)

// Supplier 供应商主数据
type Supplier struct {
	SupplierCode        string `json:"supplier_code"`
	SupplierName        string `json:"supplier_name"`
	LeadTimeDays        int    `json:"lead_time_days"`
	DefaultPaymentTerms string `json:"default_payment_terms"`
	PreferredCarrier    string `json:"preferred_carrier"`
	DefaultTolProfile   string `json:"default_tol_profile"`
}

// Buyer 买方主数据
type Buyer struct {
	BuyerCode     string `json:"buyer_code"`
	BuyerName     string `json:"buyer_name"`
	DefaultShipTo string `json:"default_ship_to"`
	DefaultBillTo string `json:"default_bill_to"`
}

// Item 物料主数据
type Item struct {
	SKU         string `json:"sku"`
	Description string `json:"description"`
}

// PricingContract 价格合同，(supplier, sku) 唯一
type PricingContract struct {
	SupplierCode      string  `json:"supplier_code"`
	SKU               string  `json:"sku"`
	ContractUnitPrice float64 `json:"contract_unit_price"`
	DiscountPct       float64 `json:"discount_pct"`
	Currency          string  `json:"currency"`
	EffectiveStart    string  `json:"effective_start"`
	EffectiveEnd      string  `json:"effective_end"`
}

// Location 库位主数据
type Location struct {
	LocationCode string `json:"location_code"`
	Name         string `json:"name"`
	City         string `json:"city"`
	State        string `json:"state"`
	Timezone     string `json:"timezone"`
}

// Data 主数据集合
type Data struct {
	SupplierMaster   []Supplier                `json:"supplier_master"`
	BuyerMaster      []Buyer                   `json:"buyer_master"`
	ItemMaster       []Item                    `json:"item_master"`
	PricingContracts []PricingContract         `json:"pricing_contracts"`
	LocationMaster   []Location                `json:"location_master"`
	TolProfiles      []config.ToleranceProfile `json:"tol_profiles"`
}

// Build 从 (统计, 种子) 确定性合成主数据。
// 构造处重置随机源，重置顺序属于可复现性契约的一部分。
func Build(st dist.Stats, cfg *config.GenConfig, seed int64, anchor time.Time) *Data {
	rng := rand.New(rand.NewSource(uint64(seed)))

	suppliers := make([]Supplier, 0, len(SupplierCodes))
	for _, code := range SupplierCodes {
		lead := cfg.SupplierLeadDaysMin + rng.Intn(cfg.SupplierLeadDaysMax-cfg.SupplierLeadDaysMin+1)
		suppliers = append(suppliers, Supplier{
			SupplierCode:        code,
			SupplierName:        codeName(code),
			LeadTimeDays:        lead,
			DefaultPaymentTerms: PaymentTerms[rng.Intn(len(PaymentTerms))],
			PreferredCarrier:    Carriers[rng.Intn(len(Carriers))],
			DefaultTolProfile:   cfg.TolProfiles[rng.Intn(len(cfg.TolProfiles))].ID,
		})
	}

	buyers := make([]Buyer, 0, len(BuyerCodes))
	for _, code := range BuyerCodes {
		buyers = append(buyers, Buyer{
			BuyerCode:     code,
			BuyerName:     codeName(code),
			DefaultShipTo: Locations[rng.Intn(len(Locations))].LocationCode,
			DefaultBillTo: Locations[rng.Intn(len(Locations))].LocationCode,
		})
	}

	items := make([]Item, 0, len(SKUs))
	for _, sku := range SKUs {
		items = append(items, Item{SKU: sku, Description: skuName(sku)})
	}

	// 合同基价围绕抽取出的价格均值正态分布（σ = 20% 均值）
	priceSigma := st.PriceMean * 0.20
	if priceSigma < 1.0 {
		priceSigma = 1.0
	}
	priceDist := distuv.Normal{Mu: st.PriceMean, Sigma: priceSigma, Src: rng}
	discDist := distuv.Normal{Mu: 0.03, Sigma: 0.02, Src: rng}

	today := anchor
	contracts := make([]PricingContract, 0, len(SupplierCodes)*len(SKUs))
	for _, s := range SupplierCodes {
		for _, sku := range SKUs {
			basePrice := clamp(priceDist.Rand(), 1, cfg.PriceMax)
			discountPct := clamp(discDist.Rand(), 0.0, 0.15)
			contracts = append(contracts, PricingContract{
				SupplierCode:      s,
				SKU:               sku,
				ContractUnitPrice: round2(basePrice),
				DiscountPct:       round4(discountPct),
				Currency:          "USD",
				EffectiveStart:    today.AddDate(0, 0, -180).Format("2006-01-02"),
				EffectiveEnd:      today.AddDate(0, 0, 180).Format("2006-01-02"),
			})
		}
	}

	locations := make([]Location, len(Locations))
	copy(locations, Locations)

	return &Data{
		SupplierMaster:   suppliers,
		BuyerMaster:      buyers,
		ItemMaster:       items,
		PricingContracts: contracts,
		LocationMaster:   locations,
		TolProfiles:      cfg.TolProfiles,
	}
}

// codeName SUPP_ACE_MFG -> "Supp Ace Mfg"
func codeName(code string) string {
	return titleWords(strings.ReplaceAll(code, "_", " "))
}

// skuName SKU-10001 -> "Sku 10001"
func skuName(sku string) string {
	return titleWords(strings.ReplaceAll(sku, "-", " "))
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
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

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
