package config

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
)

// reloadDelay 等待编辑器写完文件。
const reloadDelay = 100 * time.Millisecond

// ConfigManager 配置管理器
type ConfigManager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	listeners  []func(*Config)

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewConfigManager 创建配置管理器
func NewConfigManager(configPath string) (*ConfigManager, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "初始加载配置失败")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "创建文件 watcher 失败")
	}
	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "添加配置文件到 watch 列表失败")
	}

	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
		watcher:    watcher,
		stopCh:     make(chan struct{}),
	}, nil
}

// Start 监听配置文件直到 ctx 取消。
func (m *ConfigManager) Start(ctx context.Context) error {
	m.watchConfigFile(ctx)
	return ctx.Err()
}

// Stop 停止配置管理，可重复调用。
func (m *ConfigManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		if m.watcher != nil {
			m.watcher.Close()
		}
	})
}

// GetConfig 获取当前配置（线程安全）
func (m *ConfigManager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnChange 注册配置变更回调，在重新加载成功后按注册顺序调用。
func (m *ConfigManager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// watchConfigFile 监控配置文件变动
func (m *ConfigManager) watchConfigFile(ctx context.Context) {
	log.Info("启动配置文件 watch 协程")

	for {
		select {
		case <-ctx.Done():
			log.Info("配置文件 watch 协程收到停止信号")
			return
		case <-m.stopCh:
			log.Info("配置文件 watch 协程收到停止信号")
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Infof("检测到配置文件变动: %s", event.Name)
			time.Sleep(reloadDelay)
			if err := m.reload(); err != nil {
				log.Errorf("重新加载配置失败: %v", err)
			} else {
				log.Info("配置重新加载成功")
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("配置文件 watch 错误: %v", err)
		}
	}
}

// reload 重新加载配置，失败时保留原配置。
func (m *ConfigManager) reload() error {
	cfg, err := Load(m.configPath)
	if err != nil {
		return errors.Wrap(err, "加载配置失败")
	}

	m.mu.Lock()
	m.config = cfg
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}
