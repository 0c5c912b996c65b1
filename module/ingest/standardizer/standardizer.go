package standardizer

import (
	"context"
	"strings"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"github.com/pkg/errors"
)

// Status 上游事件状态。
type Status string

const (
	StatusProblem  Status = "PROBLEM"
	StatusResolved Status = "RESOLVED"
)

// Update 一条上游消息对应的索引变更。
// PROBLEM 只有 Problem；RESOLVED 同时带恢复事件，Problem.REventID/RClock 已填好。
type Update struct {
	Status   Status
	Problem  domain.ProblemEvent
	Recovery *domain.ProblemEvent
}

// Standardizer 将上游 payload 转换为索引变更，不同来源各自实现。
type Standardizer interface {
	Standardize(ctx context.Context, payload []byte) (Update, error)
}

// Factory 创建具体标准化器。
type Factory func() Standardizer

type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register 数据源名称不区分大小写。
func (r *Registry) Register(source string, factory Factory) {
	key := strings.TrimSpace(strings.ToLower(source))
	if key == "" || factory == nil {
		return
	}
	r.factories[key] = factory
}

func (r *Registry) Resolve(source string) (Standardizer, error) {
	factory, ok := r.factories[strings.TrimSpace(strings.ToLower(source))]
	if !ok {
		return nil, errors.Errorf("unsupported source type: %s", source)
	}
	return factory(), nil
}

// Build 按数据源类型创建内置标准化器，为空时使用 zabbix_webhook。
func Build(source string) (Standardizer, error) {
	if strings.TrimSpace(source) == "" {
		source = SourceZabbixWebhook
	}
	return defaultRegistry().Resolve(source)
}

func defaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(SourceZabbixWebhook, func() Standardizer {
		return NewZabbixWebhookStandardizer()
	})
	return r
}
