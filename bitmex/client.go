package bitmex

import (
	"encoding/json"
	"time"

	"github.com/lemconn/exbridge/common"
	"github.com/lemconn/exbridge/dispatch"
	"github.com/lemconn/exbridge/exchange"
)

const (
	bitmexName       = "bitmex"
	bitmexBaseURL    = "https://www.bitmex.com"
	bitmexSandboxURL = "https://testnet.bitmex.com"
	apiPrefix        = "/api/v1"

	// defaultExpiry 签名有效期
	defaultExpiry = 60 * time.Second
)

// Options BitMEX 客户端配置
type Options struct {
	APIKey    string
	SecretKey string
	BaseURL   string
	Sandbox   bool
	Proxy     string
	Timeout   time.Duration
	// Expiry api-expires 相对当前时间的偏移，零值为 60s
	Expiry time.Duration
	Router *dispatch.Router
}

// Client BitMEX 协议客户端
//
// 只处理原生交易对（XBTUSD）与原生资产代码（XBT）。
type Client struct {
	exchange.Unsupported

	http   *common.HTTPClient
	signer *Signer
	clock  func() time.Time
}

var _ exchange.ProtocolClient = (*Client)(nil)

// NewClient 创建 BitMEX 客户端
func NewClient(opts Options) (*Client, error) {
	baseURL := bitmexBaseURL
	if opts.Sandbox {
		baseURL = bitmexSandboxURL
	}
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = defaultExpiry
	}

	httpClient := common.NewHTTPClient(bitmexName, baseURL)
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

	return &Client{
		Unsupported: exchange.Unsupported{Exchange: bitmexName},
		http:        httpClient,
		signer:      NewSigner(opts.APIKey, opts.SecretKey, expiry),
	}, nil
}

// decodeError 解析 {"error":{"message":"...","name":"HTTPError"}}
func decodeError(_ int, body []byte) (string, string) {
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Name    string `json:"name"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	return payload.Error.Name, payload.Error.Message
}
