package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/logger"
)

// RelayRequest 需要通过函数中继发送的请求
type RelayRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	// Query 附加的查询参数，与 url 一起放入 queryStringParameters
	Query map[string]string
	Body  string
}

// RelayResponse 中继返回的响应
type RelayResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

type relayEnvelope struct {
	HTTPMethod            string            `json:"httpMethod"`
	Headers               map[string]string `json:"headers"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
	URL                   string            `json:"url"`
	Body                  string            `json:"body"`
	IsBase64Encoded       bool              `json:"isBase64Encoded"`
}

// InvokeResult 函数调用结果
type InvokeResult struct {
	Payload []byte
	// FunctionError 函数执行出错时非空
	FunctionError string
}

// FunctionInvoker 函数即服务调用
type FunctionInvoker interface {
	Invoke(ctx context.Context, function string, payload []byte) (InvokeResult, error)
}

// LambdaAPI aws lambda 客户端中用到的部分
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaInvoker 通过 AWS Lambda 调用中继函数
type LambdaInvoker struct {
	client LambdaAPI
}

// NewLambdaInvoker 使用给定客户端创建调用器
func NewLambdaInvoker(client LambdaAPI) *LambdaInvoker {
	return &LambdaInvoker{client: client}
}

// AWSConfig Lambda 调用的 AWS 配置
type AWSConfig struct {
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint"`
}

// NewLambdaInvokerFromConfig 加载 AWS 默认配置（可用静态密钥覆盖）并创建调用器
func NewLambdaInvokerFromConfig(ctx context.Context, cfg AWSConfig) (*LambdaInvoker, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := lambda.NewFromConfig(awsCfg, func(o *lambda.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewLambdaInvoker(client), nil
}

func (l *LambdaInvoker) Invoke(ctx context.Context, function string, payload []byte) (InvokeResult, error) {
	out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(function),
		Payload:      payload,
	})
	if err != nil {
		return InvokeResult{}, err
	}
	return InvokeResult{Payload: out.Payload, FunctionError: aws.ToString(out.FunctionError)}, nil
}

// Relay 函数中继：从函数池中抽取一个函数并转发请求
type Relay struct {
	functions *Pool
	invoker   FunctionInvoker
	rng       Rand
	log       *logger.Entry
}

// NewRelay 创建函数中继；函数池中的 URL 模板即函数名模板
func NewRelay(functions *Pool, invoker FunctionInvoker) *Relay {
	return &Relay{
		functions: functions,
		invoker:   invoker,
		rng:       globalRand{},
		log:       logger.GetLogger().WithComponent("relay"),
	}
}

// SelectFunction 抽取一个函数
func (r *Relay) SelectFunction() (Selection, error) {
	return r.functions.Select(r.rng)
}

// Dispatch 抽取函数并转发
func (r *Relay) Dispatch(ctx context.Context, req RelayRequest) (*RelayResponse, error) {
	sel, err := r.SelectFunction()
	if err != nil {
		return nil, err
	}
	return r.DispatchTo(ctx, sel.URL, req)
}

// DispatchTo 通过指定函数转发；调用失败或返回信封缺少 statusCode/headers/body 时返回 UpstreamError
func (r *Relay) DispatchTo(ctx context.Context, function string, req RelayRequest) (*RelayResponse, error) {
	payload, err := json.Marshal(newEnvelope(req))
	if err != nil {
		return nil, &errs.UpstreamError{Target: function, Reason: "encode relay request", Err: err}
	}
	r.log.WithFields(logger.Fields{"function": function, "method": req.Method, "url": req.URL}).Debug("relay dispatch")

	res, err := r.invoker.Invoke(ctx, function, payload)
	if err != nil {
		return nil, &errs.UpstreamError{Target: function, Reason: "invoke failed", Err: err}
	}
	if res.FunctionError != "" {
		return nil, &errs.UpstreamError{Target: function, Reason: "function error " + res.FunctionError + ": " + string(res.Payload)}
	}
	resp, err := decodeRelayResponse(res.Payload)
	if err != nil {
		return nil, &errs.UpstreamError{Target: function, Reason: "malformed relay response", Err: err}
	}
	return resp, nil
}

func newEnvelope(req RelayRequest) relayEnvelope {
	query := make(map[string]string, len(req.Query)+1)
	for k, v := range req.Query {
		query[k] = v
	}
	query["url"] = req.URL
	headers := req.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = "GET"
	}
	return relayEnvelope{
		HTTPMethod:            method,
		Headers:               headers,
		QueryStringParameters: query,
		URL:                   req.URL,
		Body:                  req.Body,
	}
}

func decodeRelayResponse(payload []byte) (*RelayResponse, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, err
	}
	for _, key := range []string{"statusCode", "headers", "body"} {
		if _, ok := envelope[key]; !ok {
			return nil, fmt.Errorf("missing %s", key)
		}
	}

	resp := &RelayResponse{Headers: make(map[string]string)}
	status, err := decodeStatus(envelope["statusCode"])
	if err != nil {
		return nil, err
	}
	resp.StatusCode = status

	var headers map[string]any
	if err := json.Unmarshal(envelope["headers"], &headers); err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}
	for k, v := range headers {
		resp.Headers[k] = fmt.Sprint(v)
	}

	var encoded bool
	if raw, ok := envelope["isBase64Encoded"]; ok {
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("isBase64Encoded: %w", err)
		}
	}
	var body string
	if err := json.Unmarshal(envelope["body"], &body); err != nil {
		// 非字符串的 body 原样返回
		resp.Body = []byte(envelope["body"])
		return resp, nil
	}
	if encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		resp.Body = decoded
		return resp, nil
	}
	resp.Body = []byte(body)
	return resp, nil
}

func decodeStatus(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("statusCode: %w", err)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("statusCode: %w", err)
	}
	return n, nil
}
