package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/lemconn/exbridge/dispatch"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 EXBRIDGE_LOG_LEVEL
const EnvPrefix = "EXBRIDGE"

// Config 全局配置
type Config struct {
	Exchanges map[string]ExchangeConfig `mapstructure:"exchanges"`
	Markets   MarketsConfig             `mapstructure:"markets"`
	Redis     RedisConfig               `mapstructure:"redis"`
	Log       LogConfig                 `mapstructure:"log"`
	AWS       dispatch.AWSConfig        `mapstructure:"aws"`
}

// ExchangeConfig 单个交易所的连接配置
type ExchangeConfig struct {
	APIKey     string `mapstructure:"api_key"`
	SecretKey  string `mapstructure:"secret_key"`
	PartnerID  string `mapstructure:"partner_id"`
	PartnerKey string `mapstructure:"partner_key"`
	BaseURL    string `mapstructure:"base_url"`
	Proxy      string `mapstructure:"proxy"`
	Sandbox    bool   `mapstructure:"sandbox"`
	// Paper 为 true 时用模拟盘包装
	Paper bool `mapstructure:"paper"`

	Timeout time.Duration `mapstructure:"timeout"`

	// Capabilities 为空时使用内置默认能力
	Capabilities *model.Capabilities `mapstructure:"capabilities"`
	ClockSkew    dispatch.ClockSkew  `mapstructure:"clock_skew"`

	ProxyPool []dispatch.ProxyRange `mapstructure:"proxy_pool"`
	Relay     RelayConfig           `mapstructure:"relay"`
	RateLimit RateLimitConfig       `mapstructure:"rate_limit"`

	MaxMarketOrderAmount decimal.Decimal `mapstructure:"max_market_order_amount"`
	MarketTTL            time.Duration   `mapstructure:"market_ttl"`

	// PaperBalances 模拟盘初始余额
	PaperBalances map[string]decimal.Decimal `mapstructure:"paper_balances"`
}

// RelayConfig 函数中继，Functions 的 url 为函数名模板
type RelayConfig struct {
	Functions []dispatch.ProxyRange `mapstructure:"functions"`
}

// Enabled 是否配置了函数中继
func (r RelayConfig) Enabled() bool { return len(r.Functions) > 0 }

// RateLimitConfig 直连限速
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// MarketsConfig 市场缓存
type MarketsConfig struct {
	TTL              time.Duration `mapstructure:"ttl"`
	MinForceInterval time.Duration `mapstructure:"min_force_interval"`
	// Prefix redis 键前缀
	Prefix string `mapstructure:"prefix"`
}

// RedisConfig 共享市场缓存，Addr 为空时使用进程内缓存
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	MaxAge int    `mapstructure:"max_age"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("markets.ttl", time.Hour)
	v.SetDefault("markets.min_force_interval", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("aws.region", "ap-northeast-1")
}

// Load 读取配置文件
//
// 同目录下的 .env 先载入进程环境，随后 EXBRIDGE_ 前缀的环境变量覆盖文件中的值。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(filepath.Dir(path), ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v)
}

// LoadFromEnv 不读文件，只用默认值与环境变量
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		decimalHook,
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalized := make(map[string]ExchangeConfig, len(cfg.Exchanges))
	for name, ex := range cfg.Exchanges {
		ex.fillSecretsFromEnv(name)
		normalized[strings.ToLower(name)] = ex
	}
	cfg.Exchanges = normalized

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook 把字符串或数字解码为 decimal.Decimal
func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch d := data.(type) {
	case string:
		if d == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(d)
	case int:
		return decimal.NewFromInt(int64(d)), nil
	case int64:
		return decimal.NewFromInt(d), nil
	case float64:
		return decimal.NewFromFloat(d), nil
	}
	return data, nil
}

// fillSecretsFromEnv 密钥可只放在环境变量中：EXBRIDGE_<NAME>_API_KEY 等
func (c *ExchangeConfig) fillSecretsFromEnv(name string) {
	prefix := EnvPrefix + "_" + strings.ToUpper(name) + "_"
	for suffix, field := range map[string]*string{
		"API_KEY":     &c.APIKey,
		"SECRET_KEY":  &c.SecretKey,
		"PARTNER_ID":  &c.PartnerID,
		"PARTNER_KEY": &c.PartnerKey,
	} {
		if value, ok := os.LookupEnv(prefix + suffix); ok && *field == "" {
			*field = value
		}
	}
}

// Validate 检查配置的一致性
func (c *Config) Validate() error {
	for name, ex := range c.Exchanges {
		if err := ex.Validate(name); err != nil {
			return err
		}
	}
	if c.Markets.TTL < 0 || c.Markets.MinForceInterval < 0 {
		return fmt.Errorf("markets ttl and min_force_interval must not be negative")
	}
	return nil
}

// Validate 检查单个交易所配置
func (c ExchangeConfig) Validate(name string) error {
	if c.MaxMarketOrderAmount.IsNegative() {
		return fmt.Errorf("exchange %s: max_market_order_amount must not be negative", name)
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("exchange %s: rate_limit must not be negative", name)
	}
	if (c.PartnerID == "") != (c.PartnerKey == "") {
		return fmt.Errorf("exchange %s: partner_id and partner_key must be set together", name)
	}
	if c.ClockSkew != (dispatch.ClockSkew{}) {
		if err := c.ClockSkew.Validate(); err != nil {
			return fmt.Errorf("exchange %s: %w", name, err)
		}
	}
	for _, balance := range c.PaperBalances {
		if balance.IsNegative() {
			return fmt.Errorf("exchange %s: paper balances must not be negative", name)
		}
	}
	return nil
}

// Exchange 返回指定交易所的配置，名称不区分大小写
func (c *Config) Exchange(name string) (ExchangeConfig, bool) {
	ex, ok := c.Exchanges[strings.ToLower(name)]
	return ex, ok
}

// SkewOrDefault 未配置时使用默认窗口
func (c ExchangeConfig) SkewOrDefault() dispatch.ClockSkew {
	if c.ClockSkew == (dispatch.ClockSkew{}) {
		return dispatch.DefaultClockSkew
	}
	return c.ClockSkew
}
