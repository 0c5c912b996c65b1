package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "itops-recurring-incident"

type Log = zap.SugaredLogger

type LogCfg struct {
	Filepath    string `mapstructure:"filepath"`    // 日志文件路径，为空时只输出到标准输出
	Level       string `mapstructure:"level"`       // 日志级别 debug info warn error
	MaxSize     int    `mapstructure:"max_size"`    // 每个日志文件最大空间(单位：MB)
	MaxAge      int    `mapstructure:"max_age"`     // 文件最多保留多少天
	MaxBackups  int    `mapstructure:"max_backups"` // 文件最多保留多少备份
	Compress    bool   `mapstructure:"compress"`    // 是否压缩
	Development bool   `mapstructure:"development"` // 开发模式，打印更详细的堆栈信息
}

var (
	Logger *Log

	defaultLevel zap.AtomicLevel
)

func SetDefaultLog(logConf *LogCfg) {
	Logger, defaultLevel = newLogger(logConf)
}

// SetLevel 调整默认日志对象的级别，无需重建。
func SetLevel(level string) error {
	return defaultLevel.UnmarshalText([]byte(level))
}

// NewLogger 按配置构造日志对象，同时输出到控制台与滚动文件。
func NewLogger(logConf *LogCfg) *Log {
	logger, _ := newLogger(logConf)
	return logger
}

func newLogger(logConf *LogCfg) (*Log, zap.AtomicLevel) {
	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if logConf.Filepath != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   logConf.Filepath,
			LocalTime:  true,
			MaxAge:     logConf.MaxAge,
			MaxBackups: logConf.MaxBackups,
			MaxSize:    logConf.MaxSize,
			Compress:   logConf.Compress,
		}))
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "linenum",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	atomicLevel, err := zap.ParseAtomicLevel(logConf.Level)
	if err != nil {
		atomicLevel = zap.NewAtomicLevel()
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(writers...),
		atomicLevel,
	)

	opts := []zap.Option{
		zap.AddCaller(),
		// 跳过 log 包自身的调用栈
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("serviceName", serviceName)),
	}
	if logConf.Development {
		opts = append(opts, zap.Development())
	}

	return zap.New(core, opts...).Sugar(), atomicLevel
}

func init() {
	SetDefaultLog(&LogCfg{
		Level:       "info",
		Development: true,
	})
}

func Debug(args ...interface{}) {
	Logger.Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	Logger.Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	Logger.Debugw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	Logger.Info(args...)
}

func Infof(template string, args ...interface{}) {
	Logger.Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	Logger.Infow(msg, keysAndValues...)
}

func Warn(args ...interface{}) {
	Logger.Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	Logger.Warnf(template, args...)
}

func Error(args ...interface{}) {
	Logger.Error(args...)
}

func Errorf(template string, args ...interface{}) {
	Logger.Errorf(template, args...)
}

func Fatal(args ...interface{}) {
	Logger.Fatal(args...)
}

func Fatalf(template string, args ...interface{}) {
	Logger.Fatalf(template, args...)
}

func Sync() error {
	if Logger != nil {
		return Logger.Sync()
	}
	return nil
}
