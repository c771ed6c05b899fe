package errorc

import (
	"fmt"
)

type Error struct {
	*ErrorCode
	Msg      string
	Cause    error  `json:"-"`
	Stack    string `json:"-"`
	TraceID  string
	Entry    string `json:"-"`
	FileName string `json:"-"`
	Line     int    `json:"-"`
	FuncName string `json:"-"`
}

type ErrorCode struct {
	Code int
	Name string
}

func (c *ErrorCode) String() string {
	return fmt.Sprintf("%d: %s", c.Code, c.Name)
}

var (
	ErrorCodeUnknown     = &ErrorCode{500, "Unknown"}
	ErrorCodeDB          = &ErrorCode{501, "DB"}
	ErrorCodeThird       = &ErrorCode{502, "Third"}
	ErrorCodeValid       = &ErrorCode{400, "ValidWithCtx"}
	ErrorCodeNotFound    = &ErrorCode{404, "NotFound"}
	ErrorCodeUnavailable = &ErrorCode{503, "Unavailable"}
	ErrorCodeInternal    = &ErrorCode{503, "InternalError"}

	// 告警领域
	ErrorCodeInvalidTransition = &ErrorCode{409, "InvalidTransition"}
	ErrorCodeDeliveryFailure   = &ErrorCode{410, "DeliveryFailure"}
	ErrorCodeConfig            = &ErrorCode{422, "ConfigError"}
	ErrorCodeSampleUnavailable = &ErrorCode{424, "SampleUnavailable"}
)
