package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields 日志字段
type Fields map[string]interface{}

// Log 包装 logrus.Logger
type Log struct {
	*logrus.Logger
}

// Entry 包装 logrus.Entry
type Entry struct {
	*logrus.Entry
}

var (
	globalMu     sync.RWMutex
	globalLogger = New()
)

// New 创建默认日志：JSON 输出到 stderr，级别取自 LOG_LEVEL（默认 info）
func New() *Log {
	l := &Log{Logger: logrus.New()}
	l.Logger.SetOutput(os.Stderr)
	l.Logger.SetReportCaller(true)

	level := os.Getenv("LOG_LEVEL")
	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil && level != "" {
		l.Logger.SetLevel(lvl)
	} else {
		l.Logger.SetLevel(logrus.InfoLevel)
	}
	l.Logger.SetFormatter(jsonFormatter())
	return l
}

// GetLogger 返回全局日志
func GetLogger() *Log {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger 替换全局日志
func SetLogger(l *Log) {
	if l == nil {
		return
	}
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// Discard 返回丢弃所有输出的日志，测试中使用
func Discard() *Log {
	l := New()
	l.Logger.SetOutput(io.Discard)
	return l
}

func callerPrettyfier(f *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
		CallerPrettyfier: callerPrettyfier,
	}
}

// Configure 按配置设置级别、格式与输出
//
// output 为 stdout/stderr 或文件路径；maxAge > 0 时文件由 lumberjack 轮转。
func (l *Log) Configure(level, format, output string, maxAge int) error {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level '%s'", level)
	}
	l.Logger.SetLevel(lvl)

	switch format {
	case "json", "":
		l.Logger.SetFormatter(jsonFormatter())
	case "text":
		l.Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	default:
		return fmt.Errorf("invalid log format '%s'", format)
	}

	switch output {
	case "stderr", "":
		l.Logger.SetOutput(os.Stderr)
	case "stdout":
		l.Logger.SetOutput(os.Stdout)
	default:
		if maxAge > 0 {
			l.Logger.SetOutput(&lumberjack.Logger{
				Filename: output,
				MaxAge:   maxAge,
				MaxSize:  100,
				Compress: true,
			})
			return nil
		}
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file '%s': %w", output, err)
		}
		l.Logger.SetOutput(file)
	}
	return nil
}

// WithComponent 附加 component 字段
func (l *Log) WithComponent(component string) *Entry {
	return &Entry{Entry: l.Logger.WithField("component", component)}
}

// WithFields 附加字段
func (l *Log) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(logrus.Fields(fields))}
}

// WithError 附加错误
func (l *Log) WithError(err error) *Entry {
	return &Entry{Entry: l.Logger.WithError(err)}
}

func (e *Entry) WithComponent(component string) *Entry {
	return &Entry{Entry: e.Entry.WithField("component", component)}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

// LogDuration 记录一次操作的耗时
func (e *Entry) LogDuration(operation string, started time.Time, fields Fields) {
	if fields == nil {
		fields = make(Fields)
	}
	fields["operation"] = operation
	fields["duration_ms"] = float64(time.Since(started).Nanoseconds()) / 1e6
	e.WithFields(fields).Debug("operation finished")
}
