package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOption 日志初始化参数
type LogOption struct {
	Format   string // "console" 或 "json"
	LogDir   string // 日志目录，为空时输出到 stdout
	Level    string // debug / info / warn / error
	Compress bool   // 是否压缩轮转后的旧日志
	Stderr   bool   // LogDir 为空时输出到 stderr，stdout 留给命令输出
}

const (
	logFileName   = "indexer.log"
	maxSizeMB     = 200
	maxBackups    = 10
	maxAgeDays    = 7
	defaultFormat = "console"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	current.Store(newSugar(LogOption{Level: "info"}))
}

// Init 按配置替换全局 logger，可重复调用
func Init(opt LogOption) {
	old := current.Swap(newSugar(opt))
	if old != nil {
		_ = old.Sync()
	}
}

// Sync 刷新缓冲日志，进程退出前调用
func Sync() {
	_ = current.Load().Sync()
}

// L 返回底层 SugaredLogger，便于挂载字段
func L() *zap.SugaredLogger {
	return current.Load()
}

func Debugf(format string, args ...any) { current.Load().Debugf(format, args...) }
func Infof(format string, args ...any)  { current.Load().Infof(format, args...) }
func Warnf(format string, args ...any)  { current.Load().Warnf(format, args...) }
func Errorf(format string, args ...any) { current.Load().Errorf(format, args...) }

func newSugar(opt LogOption) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(opt.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, buildWriter(opt), parseLevel(opt.Level))
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func buildWriter(opt LogOption) zapcore.WriteSyncer {
	console := os.Stdout
	if opt.Stderr {
		console = os.Stderr
	}
	if opt.LogDir == "" {
		return zapcore.Lock(console)
	}
	if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
		// 目录不可用时退回控制台
		return zapcore.Lock(console)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opt.LogDir, logFileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   opt.Compress,
		LocalTime:  true,
	})
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
