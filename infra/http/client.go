package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// Config 内部 REST 服务的连接配置。
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	Token              string // 非空时以 Bearer 方式携带
	InsecureSkipVerify bool
}

// Client 以 JSON 收发请求的 HTTP 客户端。
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *log.Log
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

func (c *Client) WithLogger(logger *log.Log) *Client {
	c.logger = logger
	return c
}

// StdClient 测试中用于挂载 mock transport。
func (c *Client) StdClient() *http.Client {
	return c.httpClient
}

// StatusError 服务端返回非 2xx。
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s 返回状态码 %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsStatus 判断 err 是否为指定状态码的 StatusError。
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// PostJSON 以 JSON 发送 body，2xx 时把响应解析到 out（out 为 nil 时忽略响应体）。
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (err error) {
	var payload []byte
	var reader io.Reader
	if body != nil {
		if payload, err = sonic.Marshal(body); err != nil {
			return errors.Wrap(err, "序列化请求体失败")
		}
		reader = bytes.NewReader(payload)
	}

	var (
		statusCode int
		respBody   []byte
	)
	defer func(start time.Time) {
		if c.logger == nil {
			return
		}
		c.logger.Debugw("HTTP",
			"method", method,
			"path", path,
			"request_body", string(payload),
			"status_code", statusCode,
			"response_body", string(respBody),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
	}(time.Now())

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "创建请求失败")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "请求失败")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	statusCode = resp.StatusCode
	if respBody, err = io.ReadAll(resp.Body); err != nil {
		return errors.Wrap(err, "读取响应失败")
	}

	if statusCode < 200 || statusCode >= 300 {
		return &StatusError{Method: method, Path: path, StatusCode: statusCode, Body: string(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err = sonic.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "解析响应失败")
	}
	return nil
}
