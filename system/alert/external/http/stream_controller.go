package http

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"dcim/pkg/broadcast"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/util"
	"dcim/system/alert/api/dto"
	"dcim/system/alert/internal/app"
	"dcim/system/alert/internal/service"
	"dcim/utils"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StreamController 告警实时推送，所有订阅范围共用一个 SSE 接口
type StreamController struct {
	app *app.App
	log *logger.Log
	err *errorc.ErrorBuilder
}

func NewStreamController(app *app.App) *StreamController {
	return &StreamController{
		app: app,
		log: logger.GetLogger().WithEntryName("StreamController"),
		err: errorc.NewErrorBuilder("StreamController"),
	}
}

func (c *StreamController) RegisterRoutes(api fiber.Router) {
	api.Get("/alerts/stream", c.Stream)
}

type StreamRequest struct {
	Scope string `query:"scope" validate:"omitempty,oneof=ALL EQUIPMENT RACK SERVER_ROOM DATA_CENTER" comment:"订阅范围"`
	ID    int64  `query:"id" validate:"omitempty,gt=0" comment:"目标ID"`
}

func (c *StreamController) Stream(ctx *fiber.Ctx) error {
	var req StreamRequest
	if err := ctx.QueryParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}
	scope, err := service.ParseScope(req.Scope, req.ID)
	if err != nil {
		return err
	}

	reqCtx := util.Context(ctx)
	sub, err := c.app.NotificationSvc.Subscribe(reqCtx, scope)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	log := c.log.WithTrace(reqCtx).WithField("subscription", sub.ID)
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		if err := writeComment(w, "connected "+sub.Key); err != nil {
			return
		}
		for {
			msg, err := sub.Next(context.Background())
			if err != nil {
				log.WithErr(err).Debug("订阅已关闭")
				return
			}
			if err := writeMessage(w, msg); err != nil {
				log.WithErr(err).Debug("推送失败，断开订阅")
				return
			}
		}
	}))
	return nil
}

func writeComment(w *bufio.Writer, comment string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", comment); err != nil {
		return err
	}
	return w.Flush()
}

// writeMessage 心跳写成注释帧，EventSource 客户端不会收到事件
func writeMessage(w *bufio.Writer, msg broadcast.Message) error {
	if msg.Heartbeat {
		return writeComment(w, "heartbeat")
	}
	if err := encodeEvent(w, msg); err != nil {
		return err
	}
	return w.Flush()
}

func encodeEvent(w io.Writer, msg broadcast.Message) error {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}
	if n, ok := msg.Payload.(*dto.AlertNotificationDTO); ok {
		if _, err := fmt.Fprintf(w, "id: %d\n", n.ID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
	return err
}
