package binance

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/lemconn/exbridge/common"
	"github.com/lemconn/exbridge/dispatch"
	"github.com/lemconn/exbridge/exchange"
	"github.com/lemconn/exbridge/model"
)

const (
	binanceFuturesName    = "binancefutures"
	binanceFapiBaseURL    = "https://fapi.binance.com"
	binanceFapiSandboxURL = "https://demo-fapi.binance.com"

	apiKeyHeader = "X-MBX-APIKEY"
)

// Options Binance U 本位合约客户端配置
type Options struct {
	APIKey    string
	SecretKey string
	// BaseURL 覆盖默认地址（测试或私有网关）
	BaseURL string
	// Sandbox 是否为模拟盘
	Sandbox bool
	// Proxy 直连时使用的固定代理
	Proxy   string
	Timeout time.Duration
	// Router 按请求选择代理/函数中继并限速，nil 表示直连
	Router *dispatch.Router
	// Capabilities 为零值时使用 binancefutures 的默认能力
	Capabilities *model.Capabilities
	// ClockSkew 时钟偏差备用签名窗口，零值使用默认窗口
	ClockSkew dispatch.ClockSkew
	// Partner 合作方签名，Capabilities.PartnerSignature 为 true 时使用
	Partner dispatch.PartnerSigner
}

// Client Binance U 本位永续合约协议客户端
//
// 只处理原生交易对（BTCUSDT）。充提与划转不在合约接口内，返回 ErrNotImplemented。
type Client struct {
	exchange.Unsupported

	http   *common.HTTPClient
	signer *Signer
	apiKey string
	caps   model.Capabilities
	clock  func() time.Time
}

var _ exchange.ProtocolClient = (*Client)(nil)

// NewClient 创建 Binance U 本位合约客户端
func NewClient(opts Options) (*Client, error) {
	baseURL := binanceFapiBaseURL
	if opts.Sandbox {
		baseURL = binanceFapiSandboxURL
	}
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}

	caps := model.DefaultCapabilities(binanceFuturesName)
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	}
	skew := opts.ClockSkew
	if skew == (dispatch.ClockSkew{}) {
		skew = dispatch.DefaultClockSkew
	}
	if caps.NeedsClockSkewRetry {
		if err := skew.Validate(); err != nil {
			return nil, err
		}
	}

	httpClient := common.NewHTTPClient(binanceFuturesName, baseURL)
	httpClient.SetErrorDecoder(decodeError)
	if opts.Router != nil {
		httpClient.SetRouter(opts.Router)
	}
	if opts.Proxy != "" {
		if err := httpClient.SetProxy(opts.Proxy); err != nil {
			return nil, err
		}
	}
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.APIKey != "" {
		httpClient.SetHeader(apiKeyHeader, opts.APIKey)
	}

	partner := opts.Partner
	if partner.Exchange == "" {
		partner.Exchange = binanceFuturesName
	}

	return &Client{
		Unsupported: exchange.Unsupported{Exchange: binanceFuturesName},
		http:        httpClient,
		signer: &Signer{
			secretKey:  opts.SecretKey,
			skew:       skew,
			pair:       caps.NeedsClockSkewRetry,
			partner:    partner,
			usePartner: caps.PartnerSignature,
		},
		apiKey: opts.APIKey,
		caps:   caps,
	}, nil
}

// Capabilities 客户端生效的能力
func (c *Client) Capabilities() model.Capabilities {
	return c.caps
}

// decodeError 解析 {"code":-2019,"msg":"Margin is insufficient."}
func decodeError(_ int, body []byte) (string, string) {
	var payload struct {
		Code json.Number `json:"code"`
		Msg  string      `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	code := payload.Code.String()
	if _, err := strconv.Atoi(code); err != nil {
		code = ""
	}
	return code, payload.Msg
}
