package errorc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"dcim/pkg/core/consts"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	enableFullStack = true
	stackBufferPool = sync.Pool{
		New: func() interface{} {
			return make([]byte, 4096)
		},
	}
)

// ErrorBuilder 按组件名构造错误，组件名会进入日志的 Entry 字段
type ErrorBuilder struct {
	entryName string
}

func NewErrorBuilder(entryName string) *ErrorBuilder {
	return &ErrorBuilder{entryName: entryName}
}

func (e *ErrorBuilder) New(msg string, err error) *Error {
	stack := caller(2)
	stack.Msg = msg
	stack.Cause = err
	stack.Entry = e.entryName
	stack.ErrorCode = codeOf(err)
	return stack
}

// New err 和 msg 都可以为空
func New(msg string, err error) *Error {
	stack := caller(2)
	stack.Msg = msg
	stack.Cause = err
	stack.ErrorCode = codeOf(err)
	return stack
}

func (e *Error) WithTraceID(ctx context.Context) *Error {
	e.TraceID = ""
	if ctx != nil {
		if traceID, ok := ctx.Value(consts.TraceKey).(string); ok {
			e.TraceID = traceID
		}
	}
	return e
}

func (e *Error) WithEntry(entry string) *Error {
	e.Entry = entry
	return e
}

func (e *Error) WithCode(code *ErrorCode) *Error {
	e.ErrorCode = code
	return e
}

func (e *Error) DB() *Error {
	if e.ErrorCode != nil && e.Code == ErrorCodeNotFound.Code {
		return e
	}
	e.ErrorCode = ErrorCodeDB
	return e
}

func (e *Error) Third() *Error {
	e.ErrorCode = ErrorCodeThird
	return e
}

func (e *Error) ValidWithCtx() *Error {
	e.ErrorCode = ErrorCodeValid
	return e
}

func (e *Error) NotFound() *Error {
	e.ErrorCode = ErrorCodeNotFound
	return e
}

func (e *Error) Unavailable() *Error {
	e.ErrorCode = ErrorCodeUnavailable
	return e
}

// InvalidTransition 告警状态不允许的流转
func (e *Error) InvalidTransition() *Error {
	e.ErrorCode = ErrorCodeInvalidTransition
	return e
}

// Config 阈值或告警配置不合法
func (e *Error) Config() *Error {
	e.ErrorCode = ErrorCodeConfig
	return e
}

// SampleUnavailable 指标采样缺失或无法解析
func (e *Error) SampleUnavailable() *Error {
	e.ErrorCode = ErrorCodeSampleUnavailable
	return e
}

// DeliveryFailure 推送给订阅者失败
func (e *Error) DeliveryFailure() *Error {
	e.ErrorCode = ErrorCodeDeliveryFailure
	return e
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// chain 由外到内收集 *Error 链
func (e *Error) chain() []*Error {
	var errChain []*Error
	for curr := e; curr != nil; {
		errChain = append(errChain, curr)
		cause, ok := curr.Cause.(*Error)
		if !ok {
			break
		}
		curr = cause
	}
	return errChain
}

// rootCause 返回最内层包装了第三方错误的节点，以及该第三方错误
func rootCause(errChain []*Error) (*Error, error) {
	for i := len(errChain) - 1; i >= 0; i-- {
		if errChain[i].Cause != nil {
			if _, ok := errChain[i].Cause.(*Error); !ok {
				return errChain[i], errChain[i].Cause
			}
		}
	}
	if len(errChain) == 0 {
		return nil, nil
	}
	last := errChain[len(errChain)-1]
	return last, last.Cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	errChain := e.chain()
	root, original := rootCause(errChain)

	var sb strings.Builder
	sb.WriteString("========================= Root Cause =========================\n")
	if root != nil {
		if original != nil {
			sb.WriteString(fmt.Sprintf("Error: %s\n", original.Error()))
		}
		if root.FileName != "" {
			sb.WriteString(fmt.Sprintf("Location: %s:%d\n", root.FileName, root.Line))
		}
		if root.Msg != "" {
			sb.WriteString(fmt.Sprintf("Message: %s\n", root.Msg))
		}
		if root.TraceID != "" {
			sb.WriteString(fmt.Sprintf("Trace ID: %s\n", root.TraceID))
		}
	}

	sb.WriteString("\n======================= Full Error Trace =======================\n")
	for i, err := range errChain {
		sb.WriteString(fmt.Sprintf("%d: ", i+1))
		if err.ErrorCode != nil {
			sb.WriteString(fmt.Sprintf("[%s] ", err.ErrorCode.String()))
		}
		sb.WriteString(err.Msg)
		if err.FileName != "" {
			sb.WriteString(fmt.Sprintf("\n   at %s:%d", err.FileName, err.Line))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("==============================================================\n")
	return sb.String()
}

// RootCause 返回根因的简短描述
func (e *Error) RootCause() string {
	if e == nil {
		return ""
	}
	root, original := rootCause(e.chain())
	if root == nil {
		return e.Msg
	}

	var sb strings.Builder
	sb.WriteString(root.Msg)
	if original != nil {
		sb.WriteString(fmt.Sprintf(": %v", original))
	}
	if root.FileName != "" {
		sb.WriteString(fmt.Sprintf(" at %s:%d", root.FileName, root.Line))
	}
	return sb.String()
}

// ToLog 以结构化字段输出整条错误链
func (e *Error) ToLog(log *logrus.Entry, msgs ...string) *Error {
	if e == nil {
		return nil
	}

	errChain := e.chain()
	root, original := rootCause(errChain)

	fields := logrus.Fields{}
	if root != nil {
		fields["root_cause_file"] = root.FileName
		fields["root_cause_line"] = root.Line
		fields["root_cause_func"] = root.FuncName
		fields["root_cause_msg"] = root.Msg
		if original != nil {
			fields["root_cause_original_error"] = original.Error()
		}
		if root.ErrorCode != nil {
			fields["root_cause_error_code"] = root.ErrorCode.String()
		}
	}

	levels := make([]map[string]interface{}, 0, len(errChain))
	for _, err := range errChain {
		level := map[string]interface{}{
			"file": err.FileName,
			"line": err.Line,
			"func": err.FuncName,
			"msg":  err.Msg,
		}
		if err.ErrorCode != nil {
			level["code"] = err.ErrorCode.String()
		}
		if err == e && enableFullStack {
			if stack := err.fullStack(); stack != "" {
				level["stack_trace"] = stack
			}
		}
		levels = append(levels, level)
	}
	fields["error_chain"] = levels
	if e.TraceID != "" {
		fields["trace_id"] = e.TraceID
	}

	finalMsg := errChain[0].Msg
	if len(msgs) > 0 {
		finalMsg = strings.Join(msgs, ", ")
	}
	log.WithFields(fields).Error(finalMsg)
	return e
}

func caller(skip int) *Error {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return &Error{FileName: "<unknown>", FuncName: "<unknown>"}
	}
	funcName := "<unknown>"
	if details := runtime.FuncForPC(pc); details != nil {
		funcName = details.Name()
	}
	return &Error{FileName: file, Line: line, FuncName: funcName}
}

// fullStack 延迟获取完整堆栈
func (e *Error) fullStack() string {
	if e.Stack != "" || !enableFullStack {
		return e.Stack
	}
	buf := stackBufferPool.Get().([]byte)
	defer stackBufferPool.Put(buf)
	n := runtime.Stack(buf, false)
	e.Stack = string(buf[:n])
	return e.Stack
}

// SetStackTraceEnabled 控制是否记录完整堆栈
func SetStackTraceEnabled(enabled bool) {
	enableFullStack = enabled
}

var notfounds = []error{gorm.ErrRecordNotFound, redis.Nil}

func codeOf(err error) *ErrorCode {
	if err == nil {
		return ErrorCodeUnknown
	}
	var inner *Error
	if errors.As(err, &inner) && inner.ErrorCode != nil {
		return inner.ErrorCode
	}
	for _, target := range notfounds {
		if errors.Is(err, target) {
			return ErrorCodeNotFound
		}
	}
	return ErrorCodeUnknown
}

// Quick 不采集调用位置，适用于热路径
func (e *ErrorBuilder) Quick(msg string, err error) *Error {
	return &Error{Msg: msg, Cause: err, Entry: e.entryName, ErrorCode: codeOf(err)}
}

func Quick(msg string, err error) *Error {
	return &Error{Msg: msg, Cause: err, ErrorCode: codeOf(err)}
}

func (e *ErrorBuilder) NotFound(msg string) *Error {
	return &Error{Msg: msg, Entry: e.entryName, ErrorCode: ErrorCodeNotFound}
}

func (e *ErrorBuilder) BadRequest(msg string) *Error {
	return &Error{Msg: msg, Entry: e.entryName, ErrorCode: ErrorCodeValid}
}

func (e *ErrorBuilder) Internal(msg string) *Error {
	return &Error{Msg: msg, Entry: e.entryName, ErrorCode: ErrorCodeInternal}
}

func ParseError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Quick(err.Error(), err)
}

// IsCode 判断错误链上是否存在指定错误码
func IsCode(err error, code *ErrorCode) bool {
	if err == nil || code == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.ErrorCode != nil {
		return e.Code == code.Code && e.Name == code.Name
	}
	return false
}

func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if IsCode(err, ErrorCodeNotFound) {
		return true
	}
	for _, target := range notfounds {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
