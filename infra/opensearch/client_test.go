package opensearch

import (
	"context"
	"io"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOpenSearchConfig_Addresses(t *testing.T) {
	Convey("TestOpenSearchConfig_Addresses", t, func() {
		Convey("按协议与端口拼接", func() {
			cfg := OpenSearchConfig{Protocol: "https", Host: "opensearch-master", Port: 9200}
			So(cfg.Addresses(), ShouldResemble, []string{"https://opensearch-master:9200"})
		})

		Convey("默认使用 http", func() {
			cfg := OpenSearchConfig{Host: "localhost", Port: 9200}
			So(cfg.Addresses(), ShouldResemble, []string{"http://localhost:9200"})
		})

		Convey("多个节点，已带端口的不再追加", func() {
			cfg := OpenSearchConfig{Host: " node1:9201/, node2 ,, http://node3:9203", Port: 9200}
			So(cfg.Addresses(), ShouldResemble, []string{
				"http://node1:9201",
				"http://node2:9200",
				"http://node3:9203",
			})
		})

		Convey("host 为空", func() {
			So(OpenSearchConfig{Host: " , "}.Addresses(), ShouldBeNil)
		})
	})
}

func TestNewClient(t *testing.T) {
	Convey("TestNewClient", t, func() {
		Convey("host 为空返回错误", func() {
			client, err := NewClient(OpenSearchConfig{})
			So(err, ShouldNotBeNil)
			So(client, ShouldBeNil)
			So(err.Error(), ShouldContainSubstring, "opensearch host 不能为空")
		})

		Convey("成功创建客户端", func() {
			client, err := NewClient(OpenSearchConfig{Host: "localhost", Port: 9200, Timeout: -time.Second})
			So(err, ShouldBeNil)
			So(client, ShouldNotBeNil)
		})
	})
}

func TestPing(t *testing.T) {
	Convey("TestPing", t, func() {
		ctx := context.Background()

		Convey("client 为 nil", func() {
			err := Ping(ctx, nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "opensearch client 未初始化")
		})

		Convey("集群可用", func() {
			So(Ping(ctx, newMockClient(200, `{}`)), ShouldBeNil)
		})

		Convey("连接失败", func() {
			err := Ping(ctx, newMockClientWithError(io.ErrUnexpectedEOF))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "连接 OpenSearch 失败")
		})
	})
}
