package http

import (
	"context"
	"fmt"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/result"
	"dcim/pkg/core/util"
	"dcim/system/alert/internal/app"
	"dcim/system/alert/internal/model"
	"dcim/utils"

	"github.com/gofiber/fiber/v2"
)

// SettingsController 告警阈值配置与引擎诊断
type SettingsController struct {
	app *app.App
	log *logger.Log
	err *errorc.ErrorBuilder
}

func NewSettingsController(app *app.App) *SettingsController {
	return &SettingsController{
		app: app,
		log: logger.GetLogger().WithEntryName("SettingsController"),
		err: errorc.NewErrorBuilder("SettingsController"),
	}
}

func (c *SettingsController) RegisterRoutes(admin fiber.Router) {
	admin.Get("/alert-settings", c.GetSettings)
	admin.Put("/alert-settings", c.UpdateSettings)

	thresholds := admin.Group("/alert-thresholds")
	thresholds.Get("/", c.ListOverrides)
	thresholds.Post("/", c.SaveOverride)
	thresholds.Delete("/:id", c.DeleteOverride)

	admin.Get("/alert-trackers", c.Trackers)
	admin.Post("/alert-engine/run", c.RunEngine)
}

func (c *SettingsController) GetSettings(ctx *fiber.Ctx) error {
	settings, err := c.app.SettingsSvc.GetSettings(util.Context(ctx))
	return result.Once(ctx, settings, err)
}

type UpdateSettingsRequest struct {
	CpuWarning              *float64 `json:"cpuWarning" validate:"omitempty,gte=0" comment:"CPU预警阈值"`
	CpuCritical             *float64 `json:"cpuCritical" validate:"omitempty,gte=0" comment:"CPU严重阈值"`
	MemoryWarning           *float64 `json:"memoryWarning" validate:"omitempty,gte=0" comment:"内存预警阈值"`
	MemoryCritical          *float64 `json:"memoryCritical" validate:"omitempty,gte=0" comment:"内存严重阈值"`
	DiskWarning             *float64 `json:"diskWarning" validate:"omitempty,gte=0" comment:"磁盘预警阈值"`
	DiskCritical            *float64 `json:"diskCritical" validate:"omitempty,gte=0" comment:"磁盘严重阈值"`
	TemperatureWarning      *float64 `json:"temperatureWarning" comment:"温度预警阈值"`
	TemperatureCritical     *float64 `json:"temperatureCritical" comment:"温度严重阈值"`
	HumidityWarning         *float64 `json:"humidityWarning" validate:"omitempty,gte=0" comment:"湿度预警阈值"`
	HumidityCritical        *float64 `json:"humidityCritical" validate:"omitempty,gte=0" comment:"湿度严重阈值"`
	NetworkWarning          *float64 `json:"networkWarning" validate:"omitempty,gte=0" comment:"网络预警阈值"`
	NetworkCritical         *float64 `json:"networkCritical" validate:"omitempty,gte=0" comment:"网络严重阈值"`
	DefaultConsecutiveCount int      `json:"defaultConsecutiveCount" validate:"required,gte=1" comment:"默认连续违规次数"`
	DefaultCooldownMinutes  *int     `json:"defaultCooldownMinutes" validate:"required,gte=0" comment:"默认冷却分钟数"`
}

// UpdateSettings 整体覆盖全局设置，下一轮评估生效
func (c *SettingsController) UpdateSettings(ctx *fiber.Ctx) error {
	var req UpdateSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}

	settings, err := c.app.SettingsSvc.UpdateSettings(util.Context(ctx), &model.AlertSettings{
		CpuWarning:              req.CpuWarning,
		CpuCritical:             req.CpuCritical,
		MemoryWarning:           req.MemoryWarning,
		MemoryCritical:          req.MemoryCritical,
		DiskWarning:             req.DiskWarning,
		DiskCritical:            req.DiskCritical,
		TemperatureWarning:      req.TemperatureWarning,
		TemperatureCritical:     req.TemperatureCritical,
		HumidityWarning:         req.HumidityWarning,
		HumidityCritical:        req.HumidityCritical,
		NetworkWarning:          req.NetworkWarning,
		NetworkCritical:         req.NetworkCritical,
		DefaultConsecutiveCount: req.DefaultConsecutiveCount,
		DefaultCooldownMinutes:  *req.DefaultCooldownMinutes,
	})
	return result.Once(ctx, settings, err)
}

type ListOverridesRequest struct {
	TargetType string `query:"targetType" validate:"omitempty,oneof=EQUIPMENT RACK SERVER_ROOM DATA_CENTER" comment:"目标类型"`
	TargetID   int64  `query:"targetId" validate:"omitempty,gt=0" comment:"目标ID"`
}

func (c *SettingsController) ListOverrides(ctx *fiber.Ctx) error {
	var req ListOverridesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}
	list, err := c.app.SettingsSvc.ListOverrides(util.Context(ctx), model.TargetType(req.TargetType), req.TargetID)
	return result.Once(ctx, list, err)
}

type SaveOverrideRequest struct {
	TargetType       string   `json:"targetType" validate:"required,oneof=EQUIPMENT RACK SERVER_ROOM DATA_CENTER" comment:"目标类型"`
	TargetID         int64    `json:"targetId" validate:"required,gt=0" comment:"目标ID"`
	MetricType       string   `json:"metricType" validate:"required,oneof=CPU MEMORY DISK TEMPERATURE HUMIDITY NETWORK" comment:"指标类型"`
	Warning          *float64 `json:"warning" comment:"预警阈值"`
	Critical         *float64 `json:"critical" comment:"严重阈值"`
	ConsecutiveCount *int     `json:"consecutiveCount" validate:"omitempty,gte=1" comment:"连续违规次数"`
	CooldownMinutes  *int     `json:"cooldownMinutes" validate:"omitempty,gte=0" comment:"冷却分钟数"`
	Enabled          *bool    `json:"enabled" comment:"是否生效"`
}

// SaveOverride 同一目标同一指标类型重复提交时覆盖原配置
func (c *SettingsController) SaveOverride(ctx *fiber.Ctx) error {
	var req SaveOverrideRequest
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	reqCtx := util.Context(ctx)
	if err := c.checkTarget(reqCtx, req.TargetType, req.TargetID); err != nil {
		return err
	}
	saved, err := c.app.SettingsSvc.SaveOverride(reqCtx, &model.ThresholdOverride{
		TargetType:       model.TargetType(req.TargetType),
		TargetID:         req.TargetID,
		MetricType:       model.MetricType(req.MetricType),
		Warning:          req.Warning,
		Critical:         req.Critical,
		ConsecutiveCount: req.ConsecutiveCount,
		CooldownMinutes:  req.CooldownMinutes,
		Enabled:          enabled,
	})
	return result.Once(ctx, saved, err)
}

func (c *SettingsController) checkTarget(ctx context.Context, targetType string, targetID int64) error {
	_, err := c.app.ResolveLineage(ctx, targetType, targetID)
	return err
}

func (c *SettingsController) DeleteOverride(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.err.New("阈值覆盖ID不合法", err).ValidWithCtx()
	}
	if err := c.app.SettingsSvc.DeleteOverride(util.Context(ctx), int64(id)); err != nil {
		return err
	}
	return result.OK(ctx, nil)
}

type TrackerQuery struct {
	TargetType string `query:"targetType" validate:"omitempty,oneof=EQUIPMENT RACK SERVER_ROOM DATA_CENTER" comment:"目标类型"`
	TargetID   int64  `query:"targetId" validate:"omitempty,gt=0" comment:"目标ID"`
	MetricType string `query:"metricType" validate:"omitempty,oneof=CPU MEMORY DISK TEMPERATURE HUMIDITY NETWORK" comment:"指标类型"`
	MetricName string `query:"metricName" comment:"指标名称"`
}

// prefix 按给定条件拼出跟踪键前缀，条件不完整时截断在已知部分
func (q TrackerQuery) prefix() string {
	switch {
	case q.TargetType == "":
		return ""
	case q.TargetID <= 0:
		return q.TargetType + ":"
	case q.MetricType == "":
		return fmt.Sprintf("%s:%d|", q.TargetType, q.TargetID)
	case q.MetricName == "":
		return fmt.Sprintf("%s:%d|%s:", q.TargetType, q.TargetID, q.MetricType)
	}
	target := model.Target{Type: model.TargetType(q.TargetType), ID: q.TargetID}
	return model.TrackerKey(target, model.MetricKey{Type: model.MetricType(q.MetricType), Name: q.MetricName})
}

// Trackers 只读查看违规跟踪状态
func (c *SettingsController) Trackers(ctx *fiber.Ctx) error {
	var q TrackerQuery
	if err := ctx.QueryParser(&q); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&q); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}
	return result.OK(ctx, c.app.Engine.TrackerSnapshot(q.prefix()))
}

// RunEngine 立即执行一轮评估
func (c *SettingsController) RunEngine(ctx *fiber.Ctx) error {
	report, err := c.app.Engine.RunCycle(util.Context(ctx))
	return result.Once(ctx, report, err)
}
