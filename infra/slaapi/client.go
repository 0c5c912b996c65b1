package slaapi

import (
	"context"
	"net/http"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	httpx "devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/http"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"github.com/pkg/errors"
)

const sliPath = "/api/sla/v1/sli"

// SLAAPIConfig SLA 报表服务配置。
type SLAAPIConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Token              string        `mapstructure:"token"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// sliRequest 查询单个 SLA 在一个周期内的 SLI。
type sliRequest struct {
	SLAID      uint64 `json:"slaid"`
	ServiceID  uint64 `json:"serviceid"`
	PeriodFrom int64  `json:"period_from"`
	PeriodTo   int64  `json:"period_to"`
}

type sliResponse struct {
	SLI *float64 `json:"sli"`
}

// Client 通过 SLA 报表服务获取 SLI。
type Client struct {
	http *httpx.Client
}

func NewClient(cfg SLAAPIConfig) *Client {
	client := httpx.NewClient(httpx.Config{
		BaseURL:            cfg.BaseURL,
		Timeout:            cfg.Timeout,
		Token:              cfg.Token,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}).WithLogger(log.Logger)
	return &Client{http: client}
}

// HTTPClient 底层 HTTP 客户端。
func (c *Client) HTTPClient() *httpx.Client {
	return c.http
}

// GetSLI 查询 window 这一个周期的 SLI。SLA 或服务不存在（404）以及没有数据时返回 nil。
func (c *Client) GetSLI(ctx context.Context, slaID, serviceID uint64, window domain.TimeWindow) (*float64, error) {
	var out sliResponse
	err := c.http.PostJSON(ctx, sliPath, sliRequest{
		SLAID:      slaID,
		ServiceID:  serviceID,
		PeriodFrom: window.From,
		PeriodTo:   window.To,
	}, &out)
	if httpx.IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "查询 SLA %d 的 SLI 失败", slaID)
	}
	return out.SLI, nil
}

var _ core.SLIClient = (*Client)(nil)
