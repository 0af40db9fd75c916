package common

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lemconn/exbridge/dispatch"
	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/logger"
)

// Request 一次 HTTP 调用
type Request struct {
	Method string
	Path   string
	// Query 已编码的查询串（签名时使用的同一份字节）
	Query   string
	Body    []byte
	Headers map[string]string
	// Op 操作名，用于错误信息
	Op string
	// Mutating 是否改变账户状态
	Mutating bool
}

// ErrorDecoder 从非 2xx 响应中解析交易所错误码与信息
type ErrorDecoder func(status int, body []byte) (code, message string)

// HTTPClient HTTP客户端
type HTTPClient struct {
	client   *http.Client
	baseURL  string
	exchange string
	headers  map[string]string
	proxy    string
	router   *dispatch.Router
	decode   ErrorDecoder
	log      *logger.Entry

	// 中继地址 -> transport，复用连接
	transports sync.Map
}

// NewHTTPClient 创建HTTP客户端
func NewHTTPClient(exchange, baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  baseURL,
		exchange: exchange,
		headers:  make(map[string]string),
		log:      logger.GetLogger().WithComponent("http").WithFields(logger.Fields{"exchange": exchange}),
	}
}

// SetRouter 设置中继路由，nil 表示直连
func (c *HTTPClient) SetRouter(r *dispatch.Router) {
	c.router = r
}

// SetErrorDecoder 设置错误解析
func (c *HTTPClient) SetErrorDecoder(d ErrorDecoder) {
	c.decode = d
}

// SetProxy 设置直连时使用的固定代理
func (c *HTTPClient) SetProxy(proxyURL string) error {
	if proxyURL == "" {
		c.client.Transport = nil
		c.proxy = ""
		return nil
	}
	proxy, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}
	c.client.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	c.proxy = proxyURL
	return nil
}

// GetProxy 获取当前代理设置
func (c *HTTPClient) GetProxy() string {
	return c.proxy
}

// SetHeader 设置请求头
func (c *HTTPClient) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetTimeout 设置超时时间
func (c *HTTPClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// BaseURL 返回基础地址
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Do 发送请求
//
// 每次调用由路由选择直连、中继地址或函数中继；直连时先等待本地限速。
// 非 2xx 响应返回 ExchangeError，中继本身失败返回 UpstreamError。
func (c *HTTPClient) Do(ctx context.Context, req Request) ([]byte, error) {
	rc := dispatch.RequestContext{Mode: dispatch.ModeDirect}
	if c.router != nil {
		var err error
		if rc, err = c.router.Next(); err != nil {
			return nil, err
		}
		if err := c.router.Throttle(ctx, rc); err != nil {
			return nil, errs.WrapExchange(c.exchange, req.Op, req.Mutating, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	fullURL := c.baseURL + req.Path
	if req.Query != "" {
		fullURL += "?" + req.Query
	}
	headers := make(map[string]string, len(c.headers)+len(req.Headers)+1)
	for k, v := range c.headers {
		headers[k] = v
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	if len(req.Body) > 0 {
		if _, ok := headers["Content-Type"]; !ok {
			headers["Content-Type"] = "application/json"
		}
	}

	started := time.Now()
	var (
		status int
		body   []byte
		err    error
	)
	switch rc.Mode {
	case dispatch.ModeRelay:
		status, body, err = c.doRelay(ctx, rc, req.Method, fullURL, headers, req.Body)
	default:
		status, body, err = c.doHTTP(ctx, rc, req.Method, fullURL, headers, req.Body)
	}
	c.log.LogDuration("http", started, logger.Fields{
		"method": req.Method,
		"path":   req.Path,
		"mode":   string(rc.Mode),
		"status": status,
	})
	if err != nil {
		return nil, errs.WrapExchange(c.exchange, req.Op, req.Mutating, err)
	}
	if status < 200 || status >= 300 {
		exErr := &errs.ExchangeError{
			Exchange: c.exchange,
			Op:       req.Op,
			Code:     strconv.Itoa(status),
			Mutating: req.Mutating,
			Err:      fmt.Errorf("http error %d: %s", status, string(body)),
		}
		if c.decode != nil {
			if code, msg := c.decode(status, body); code != "" || msg != "" {
				if code != "" {
					exErr.Code = code
				}
				if msg != "" {
					exErr.Err = fmt.Errorf("http error %d: %s", status, msg)
				}
			}
		}
		return nil, exErr
	}
	return body, nil
}

func (c *HTTPClient) doRelay(ctx context.Context, rc dispatch.RequestContext, method, fullURL string, headers map[string]string, body []byte) (int, []byte, error) {
	relay := c.router.Relay()
	resp, err := relay.DispatchTo(ctx, rc.Function, dispatch.RelayRequest{
		Method:  method,
		URL:     fullURL,
		Headers: headers,
		Body:    string(body),
	})
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, resp.Body, nil
}

func (c *HTTPClient) doHTTP(ctx context.Context, rc dispatch.RequestContext, method, fullURL string, headers map[string]string, body []byte) (int, []byte, error) {
	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	client := c.client
	if rc.Mode == dispatch.ModeProxy {
		client, err = c.proxyClient(rc)
		if err != nil {
			return 0, nil, &errs.UpstreamError{Target: rc.ProxyURL, Reason: "invalid proxy", Err: err}
		}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if rc.Mode == dispatch.ModeProxy {
			return 0, nil, &errs.UpstreamError{Target: rc.ProxyURL, Reason: "send request", Err: err}
		}
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WithError(closeErr).Debug("failed to close response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// proxyClient 按中继地址与凭证取得（或创建）客户端
func (c *HTTPClient) proxyClient(rc dispatch.RequestContext) (*http.Client, error) {
	key := rc.ProxyURL + "|" + rc.Credential
	if cached, ok := c.transports.Load(key); ok {
		return cached.(*http.Client), nil
	}
	proxy, err := url.Parse(rc.ProxyURL)
	if err != nil {
		return nil, err
	}
	if rc.Credential != "" {
		if user, pass, ok := strings.Cut(rc.Credential, ":"); ok {
			proxy.User = url.UserPassword(user, pass)
		} else {
			proxy.User = url.User(rc.Credential)
		}
	}
	client := &http.Client{
		Timeout:   c.client.Timeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(proxy)},
	}
	actual, _ := c.transports.LoadOrStore(key, client)
	return actual.(*http.Client), nil
}
