package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	Convey("TestNewLogger", t, func() {
		Convey("写入滚动文件", func() {
			logPath := filepath.Join(t.TempDir(), "test.log")
			logger := NewLogger(&LogCfg{Filepath: logPath, Level: "info", MaxSize: 1})
			logger.Infow("写入测试", "key", "value")
			logger.Debug("不会输出")
			_ = logger.Sync()

			data, err := os.ReadFile(logPath)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "写入测试")
			So(string(data), ShouldContainSubstring, "serviceName")
			So(strings.Contains(string(data), "不会输出"), ShouldBeFalse)
		})

		Convey("非法级别回退为 info", func() {
			logger := NewLogger(&LogCfg{Level: "verbose"})
			So(logger.Desugar().Core().Enabled(zapcore.InfoLevel), ShouldBeTrue)
			So(logger.Desugar().Core().Enabled(zapcore.DebugLevel), ShouldBeFalse)
		})
	})
}

func TestSetLevel(t *testing.T) {
	Convey("TestSetLevel", t, func() {
		SetDefaultLog(&LogCfg{Level: "info"})
		So(Logger.Desugar().Core().Enabled(zapcore.DebugLevel), ShouldBeFalse)

		So(SetLevel("debug"), ShouldBeNil)
		So(Logger.Desugar().Core().Enabled(zapcore.DebugLevel), ShouldBeTrue)

		So(SetLevel("loud"), ShouldNotBeNil)
		So(Logger.Desugar().Core().Enabled(zapcore.DebugLevel), ShouldBeTrue)

		SetDefaultLog(&LogCfg{Level: "info", Development: true})
	})
}
