package config

import (
	"context"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const testConfigYAML = `
api:
  port: 13047
recurrence:
  search_limit: 1000
`

// waitFor 轮询直到条件满足或超时。
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestNewConfigManager(t *testing.T) {
	Convey("TestNewConfigManager", t, func() {
		Convey("正常创建配置管理器", func() {
			configPath := writeRawConfig(t, testConfigYAML)

			manager, err := NewConfigManager(configPath)
			So(err, ShouldBeNil)
			So(manager.configPath, ShouldEqual, configPath)
			So(manager.watcher, ShouldNotBeNil)
			So(manager.GetConfig().API.Port, ShouldEqual, 13047)

			manager.Stop()
			manager.Stop()
		})

		Convey("配置文件不存在时返回错误", func() {
			manager, err := NewConfigManager("/non/existent/config.yaml")
			So(err, ShouldNotBeNil)
			So(manager, ShouldBeNil)
			So(err.Error(), ShouldContainSubstring, "初始加载配置失败")
		})
	})
}

func TestConfigManager_reload(t *testing.T) {
	Convey("TestConfigManager_reload", t, func() {
		configPath := writeRawConfig(t, testConfigYAML)
		manager, err := NewConfigManager(configPath)
		So(err, ShouldBeNil)
		defer manager.Stop()

		var notified []int
		manager.OnChange(func(cfg *Config) { notified = append(notified, cfg.Recurrence.SearchLimit) })

		Convey("重新加载并通知监听者", func() {
			So(os.WriteFile(configPath, []byte("recurrence:\n  search_limit: 200\n"), 0644), ShouldBeNil)
			So(manager.reload(), ShouldBeNil)
			So(manager.GetConfig().Recurrence.SearchLimit, ShouldEqual, 200)
			So(notified, ShouldResemble, []int{200})
		})

		Convey("回调中注册的监听者从下一次重新加载开始生效", func() {
			var late []int
			manager.OnChange(func(*Config) {
				manager.OnChange(func(cfg *Config) { late = append(late, cfg.Recurrence.SearchLimit) })
			})

			So(os.WriteFile(configPath, []byte("recurrence:\n  search_limit: 300\n"), 0644), ShouldBeNil)
			So(manager.reload(), ShouldBeNil)
			So(notified, ShouldResemble, []int{300})
			So(late, ShouldBeEmpty)

			So(os.WriteFile(configPath, []byte("recurrence:\n  search_limit: 400\n"), 0644), ShouldBeNil)
			So(manager.reload(), ShouldBeNil)
			So(notified, ShouldResemble, []int{300, 400})
			So(late, ShouldResemble, []int{400})
		})

		Convey("配置文件损坏时保留原配置", func() {
			So(os.WriteFile(configPath, []byte("api: [\n"), 0644), ShouldBeNil)
			err := manager.reload()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "加载配置失败")
			So(manager.GetConfig().API.Port, ShouldEqual, 13047)
			So(notified, ShouldBeEmpty)
		})
	})
}

func TestConfigManager_watchConfigFile(t *testing.T) {
	Convey("TestConfigManager_watchConfigFile", t, func() {
		configPath := writeRawConfig(t, testConfigYAML)
		manager, err := NewConfigManager(configPath)
		So(err, ShouldBeNil)

		Convey("文件修改触发重新加载", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go manager.watchConfigFile(ctx)
			time.Sleep(50 * time.Millisecond)

			So(os.WriteFile(configPath, []byte("api:\n  port: 9999\n"), 0644), ShouldBeNil)
			So(waitFor(3*time.Second, func() bool { return manager.GetConfig().API.Port == 9999 }), ShouldBeTrue)

			manager.Stop()
		})

		Convey("通过 context 取消停止 watch", func() {
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() { done <- manager.Start(ctx) }()
			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				So(err, ShouldEqual, context.Canceled)
			case <-time.After(time.Second):
				t.Fatal("Start 未能在预期时间内退出")
			}
			manager.Stop()
		})

		Convey("通过 Stop 停止 watch", func() {
			done := make(chan struct{})
			go func() {
				manager.watchConfigFile(context.Background())
				close(done)
			}()
			time.Sleep(50 * time.Millisecond)
			manager.Stop()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("watchConfigFile 未能在预期时间内退出")
			}
		})
	})
}
