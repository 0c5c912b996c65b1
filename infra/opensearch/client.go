package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	opensearchsdk "github.com/opensearch-project/opensearch-go/v2"
	opensearchapi "github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/pkg/errors"
)

const defaultTimeout = 10 * time.Second

type OpenSearchConfig struct {
	Protocol           string        `mapstructure:"protocol"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Username           string        `mapstructure:"user"`
	Password           string        `mapstructure:"password"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// Addresses 拼接访问地址，host 可以是逗号分隔的多个节点。
func (c OpenSearchConfig) Addresses() []string {
	protocol := c.Protocol
	if protocol == "" {
		protocol = "http"
	}
	var addresses []string
	for _, host := range strings.Split(c.Host, ",") {
		host = strings.TrimRight(strings.TrimSpace(host), "/")
		if host == "" {
			continue
		}
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = protocol + "://" + host
		}
		if c.Port > 0 && strings.Count(host, ":") == 1 {
			host = fmt.Sprintf("%s:%d", host, c.Port)
		}
		addresses = append(addresses, host)
	}
	return addresses
}

// NewClient 基于配置初始化 OpenSearch SDK 客户端。
func NewClient(cfg OpenSearchConfig) (*opensearchsdk.Client, error) {
	addresses := cfg.Addresses()
	if len(addresses) == 0 {
		return nil, errors.New("opensearch host 不能为空")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	client, err := opensearchsdk.NewClient(opensearchsdk.Config{
		Addresses: addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, "初始化 OpenSearch SDK 失败")
	}
	return client, nil
}

// Ping 检查集群可用性。
func Ping(ctx context.Context, client *opensearchsdk.Client) error {
	if client == nil {
		return errors.New("opensearch client 未初始化")
	}
	res, err := opensearchapi.PingRequest{}.Do(ctx, client)
	if err != nil {
		return errors.Wrap(err, "连接 OpenSearch 失败")
	}
	_, err = readResponse(res)
	return err
}
