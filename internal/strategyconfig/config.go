package strategyconfig

// Config는 백테스트 1회 실행의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Cadence   Cadence   `yaml:"cadence" json:"cadence"`
	Policy    Policy    `yaml:"policy" json:"policy"`
	Benchmark string    `yaml:"benchmark" json:"benchmark"`
	Risk      Risk      `yaml:"risk" json:"risk"`
	Bootstrap Bootstrap `yaml:"bootstrap" json:"bootstrap"`
	Schedule  Schedule  `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Cadence 기간 단위
type Cadence struct {
	Name string `yaml:"name" json:"name"` // monthly | weekly

	// 0 = cadence default (12 monthly, 52 weekly)
	PeriodsPerYear int `yaml:"periods_per_year" json:"periods_per_year"`

	// inclusive upper bound on decision periods; empty = all
	Cutoff string `yaml:"cutoff" json:"cutoff"`
}

// Policy names
const (
	PolicyBuyAll             = "buy_all"
	PolicyTopNConfidence     = "top_n_confidence"
	PolicyTopNMarketCap      = "top_n_market_cap"
	PolicyLongShort          = "long_short"
	PolicyCarryHold          = "carry_hold"
	PolicyVolatilityWeighted = "volatility_weighted"
	PolicyTrailingStopLoss   = "trailing_stop_loss"
)

// PolicyNames lists every selectable policy in display order
var PolicyNames = []string{
	PolicyBuyAll,
	PolicyTopNConfidence,
	PolicyTopNMarketCap,
	PolicyLongShort,
	PolicyCarryHold,
	PolicyVolatilityWeighted,
	PolicyTrailingStopLoss,
}

// Weighting / ranking modes
const (
	WeightingEqual     = "equal"
	WeightingMarketCap = "market_cap"

	RankByMarketCap  = "market_cap"
	RankByConfidence = "confidence"
)

// Policy 종목 선택 규칙 + 파라미터
type Policy struct {
	Name string `yaml:"name" json:"name"`

	TopN                int  `yaml:"top_n" json:"top_n"`
	ConfidenceThreshold int  `yaml:"confidence_threshold" json:"confidence_threshold"` // 0 ~ 10
	ConfidenceFilter    bool `yaml:"confidence_filter" json:"confidence_filter"`       // top_n_market_cap only

	Weighting string `yaml:"weighting" json:"weighting"` // equal | market_cap
	RankBy    string `yaml:"rank_by" json:"rank_by"`     // market_cap | confidence

	StopLoss        float64 `yaml:"stop_loss" json:"stop_loss"` // forward drawdown threshold, e.g. 0.05
	VolatilityPower float64 `yaml:"volatility_power" json:"volatility_power"`
}

// Risk 성과 지표 파라미터
type Risk struct {
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// Bootstrap 랜덤 시그널 비교
type Bootstrap struct {
	Trials int   `yaml:"trials" json:"trials"`
	Seed   int64 `yaml:"seed" json:"seed"`
}

// Schedule 반복 실행 (serve/schedule 명령)
type Schedule struct {
	Cron string `yaml:"cron" json:"cron"` // robfig/cron 6-field spec; empty = not scheduled
}

// Default values
const (
	DefaultTopN            = 10
	DefaultStopLoss        = 0.05
	DefaultVolatilityPower = 1.0
	DefaultTrials          = 1000
	DefaultSeed            = 42
)

// ApplyDefaults fills zero values; explicit values are never touched
func ApplyDefaults(cfg *Config) {
	if cfg.Cadence.Name == "" {
		cfg.Cadence.Name = "monthly"
	}
	if cfg.Policy.Name == "" {
		cfg.Policy.Name = PolicyBuyAll
	}
	if cfg.Meta.StrategyID == "" {
		cfg.Meta.StrategyID = cfg.Policy.Name
	}
	if cfg.Policy.TopN == 0 {
		cfg.Policy.TopN = DefaultTopN
	}
	if cfg.Policy.Weighting == "" {
		cfg.Policy.Weighting = WeightingEqual
	}
	if cfg.Policy.RankBy == "" {
		cfg.Policy.RankBy = RankByMarketCap
	}
	if cfg.Policy.StopLoss == 0 {
		cfg.Policy.StopLoss = DefaultStopLoss
	}
	if cfg.Policy.VolatilityPower == 0 {
		cfg.Policy.VolatilityPower = DefaultVolatilityPower
	}
	if cfg.Bootstrap.Trials == 0 {
		cfg.Bootstrap.Trials = DefaultTrials
	}
	if cfg.Bootstrap.Seed == 0 {
		cfg.Bootstrap.Seed = DefaultSeed
	}
}

// DefaultPeriodsPerYear returns the cadence annualization factor
func DefaultPeriodsPerYear(cadence string) int {
	if cadence == "weekly" {
		return 52
	}
	return 12
}

// AnnualizationFactor is the override when set, otherwise the cadence default
func (c *Config) AnnualizationFactor() int {
	if c.Cadence.PeriodsPerYear > 0 {
		return c.Cadence.PeriodsPerYear
	}
	return DefaultPeriodsPerYear(c.Cadence.Name)
}
