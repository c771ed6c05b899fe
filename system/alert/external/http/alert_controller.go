package http

import (
	"context"
	"time"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/mvc"
	"dcim/pkg/core/result"
	"dcim/pkg/core/util"
	"dcim/system/alert/api/dto"
	"dcim/system/alert/internal/app"
	"dcim/system/alert/internal/dao"
	"dcim/system/alert/internal/model"
	"dcim/system/alert/internal/service"
	"dcim/utils"

	"github.com/gofiber/fiber/v2"
)

// AlertController 告警查询、确认与解决，以及采样推送
type AlertController struct {
	app *app.App
	log *logger.Log
	err *errorc.ErrorBuilder
}

func NewAlertController(app *app.App) *AlertController {
	return &AlertController{
		app: app,
		log: logger.GetLogger().WithEntryName("AlertController"),
		err: errorc.NewErrorBuilder("AlertController"),
	}
}

func (c *AlertController) RegisterRoutes(api fiber.Router) {
	alerts := api.Group("/alerts")
	alerts.Get("/", c.List)
	alerts.Post("/acknowledge", c.AcknowledgeMany)
	alerts.Post("/resolve", c.ResolveMany)
	alerts.Post("/samples", c.PushSamples)
	alerts.Get("/:id", c.Get)
	alerts.Post("/:id/acknowledge", c.Acknowledge)
	alerts.Post("/:id/resolve", c.Resolve)
}

type ListAlertsRequest struct {
	mvc.Page
	Status     string `query:"status" validate:"omitempty,oneof=TRIGGERED ACKNOWLEDGED RESOLVED" comment:"状态"`
	TargetType string `query:"targetType" validate:"omitempty,oneof=EQUIPMENT RACK SERVER_ROOM DATA_CENTER" comment:"目标类型"`
	TargetID   int64  `query:"targetId" validate:"omitempty,gt=0" comment:"目标ID"`
}

func (c *AlertController) List(ctx *fiber.Ctx) error {
	var req ListAlertsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}

	page := req.Page
	list, total, err := c.app.AlertStoreSvc.FindPage(util.Context(ctx), &page, dao.AlertQuery{
		Status:     model.AlertStatus(req.Status),
		TargetType: model.TargetType(req.TargetType),
		TargetID:   req.TargetID,
	})
	if err != nil {
		return err
	}
	content := make([]*dto.AlertNotificationDTO, 0, len(list))
	for _, a := range list {
		content = append(content, dto.NewAlertNotification(a))
	}
	return result.Page(ctx, content, total)
}

func (c *AlertController) Get(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.err.New("告警ID不合法", err).ValidWithCtx()
	}
	alert, err := c.app.AlertStoreSvc.Get(util.Context(ctx), int64(id))
	if err != nil {
		return err
	}
	return result.OK(ctx, dto.NewAlertNotification(alert))
}

type TransitionRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0" comment:"操作人"`
}

func (c *AlertController) Acknowledge(ctx *fiber.Ctx) error {
	return c.transition(ctx, c.app.AlertStoreSvc.Acknowledge)
}

func (c *AlertController) Resolve(ctx *fiber.Ctx) error {
	return c.transition(ctx, c.app.AlertStoreSvc.Resolve)
}

func (c *AlertController) transition(ctx *fiber.Ctx, op func(context.Context, int64, int64) (*model.AlertHistory, error)) error {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.err.New("告警ID不合法", err).ValidWithCtx()
	}
	var req TransitionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}

	alert, err := op(util.Context(ctx), int64(id), req.UserID)
	if err != nil {
		return err
	}
	return result.OK(ctx, dto.NewAlertNotification(alert))
}

type BatchTransitionRequest struct {
	IDs    []int64 `json:"ids" validate:"required,min=1,max=500,dive,gt=0" comment:"告警ID列表"`
	UserID int64   `json:"userId" validate:"required,gt=0" comment:"操作人"`
}

func (c *AlertController) AcknowledgeMany(ctx *fiber.Ctx) error {
	return c.batch(ctx, c.app.AlertStoreSvc.AcknowledgeMany)
}

func (c *AlertController) ResolveMany(ctx *fiber.Ctx) error {
	return c.batch(ctx, c.app.AlertStoreSvc.ResolveMany)
}

func (c *AlertController) batch(ctx *fiber.Ctx, op func(context.Context, []int64, int64) []service.BatchResult) error {
	var req BatchTransitionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}

	results := op(util.Context(ctx), req.IDs, req.UserID)
	items := make([]dto.BatchItemResult, 0, len(results))
	for _, r := range results {
		item := dto.BatchItemResult{ID: r.AlertID, Success: r.Err == nil}
		if r.Err != nil {
			e := errorc.ParseError(r.Err)
			item.Error = e.Msg
			item.Code = e.Code
		} else {
			item.Alert = dto.NewAlertNotification(r.Alert)
		}
		items = append(items, item)
	}
	return result.OK(ctx, items)
}

type SampleRequest struct {
	TargetType string     `json:"targetType" validate:"required,oneof=EQUIPMENT RACK SERVER_ROOM DATA_CENTER" comment:"目标类型"`
	TargetID   int64      `json:"targetId" validate:"required,gt=0" comment:"目标ID"`
	TargetName string     `json:"targetName" validate:"max=128" comment:"目标名称"`
	MetricType string     `json:"metricType" validate:"required,oneof=CPU MEMORY DISK TEMPERATURE HUMIDITY NETWORK" comment:"指标类型"`
	MetricName string     `json:"metricName" validate:"max=64" comment:"指标名称"`
	Value      *float64   `json:"value" validate:"required" comment:"测量值"`
	Timestamp  *time.Time `json:"timestamp" comment:"采样时间"`
}

type PushSamplesRequest struct {
	Samples []SampleRequest `json:"samples" validate:"required,min=1,max=5000,dive" comment:"采样"`
}

// PushSamples 采样进入缓冲区，由下一轮评估处理
func (c *AlertController) PushSamples(ctx *fiber.Ctx) error {
	var req PushSamplesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}

	now := time.Now()
	samples := make([]model.Sample, 0, len(req.Samples))
	for _, s := range req.Samples {
		ts := now
		if s.Timestamp != nil {
			ts = *s.Timestamp
		}
		samples = append(samples, model.Sample{
			Target:    model.Target{Type: model.TargetType(s.TargetType), ID: s.TargetID, Name: s.TargetName},
			Metric:    model.MetricKey{Type: model.MetricType(s.MetricType), Name: s.MetricName},
			Value:     *s.Value,
			Timestamp: ts,
		})
	}
	pending := c.app.Buffer.Push(samples...)
	return result.OK(ctx, fiber.Map{"accepted": len(samples), "pending": pending})
}
