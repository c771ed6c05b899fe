package logger

import (
	"context"
	"sync"

	"dcim/pkg/core/consts"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

type Log struct {
	*logrus.Entry
}

var (
	log *Log
	mu  sync.Mutex
)

func newLogrus(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(level)
	return l
}

// InitLogger 按配置级别初始化全局日志
func InitLogger(level string) *Log {
	mu.Lock()
	defer mu.Unlock()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log = &Log{Entry: logrus.NewEntry(newLogrus(logLevel))}
	return log
}

// GetLogger 未初始化时返回一个 debug 级别的临时日志，便于单元测试
func GetLogger() *Log {
	mu.Lock()
	defer mu.Unlock()
	if log != nil {
		return log
	}
	return &Log{Entry: logrus.NewEntry(newLogrus(logrus.DebugLevel))}
}

func (l *Log) WithField(key string, value interface{}) *Log {
	return &Log{l.Entry.WithField(key, value)}
}

func (l *Log) WithFields(fields logrus.Fields) *Log {
	return &Log{l.Entry.WithFields(fields)}
}

func (l *Log) GetLogger() *logrus.Entry {
	return l.Entry
}

func (l *Log) WithEntryName(entryName string) *Log {
	return l.WithField("EntryName", entryName)
}

func (l *Log) WithErr(err error) *Log {
	if err == nil {
		return l
	}
	return l.WithField("Err", err.Error())
}

func (l *Log) WithTrace(ctx context.Context) *Log {
	if ctx == nil {
		return l
	}
	traceID, ok := ctx.Value(consts.TraceKey).(string)
	if !ok {
		traceID = uuid.NewV4().String()
	}
	return l.WithField("TraceId", traceID)
}

func (l *Log) WithUserID(userId interface{}) *Log {
	return l.WithField("UserId", userId)
}
