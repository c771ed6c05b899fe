package service

import (
	"context"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/mvc"
	"dcim/system/alert/internal/dao"
	"dcim/system/alert/internal/model"
)

// SettingsService 全局告警设置与目标阈值覆盖，写入时校验
type SettingsService struct {
	mvc.IBaseService[model.ThresholdOverride]
	settingsDao *dao.AlertSettingsDao
	overrideDao *dao.ThresholdOverrideDao
	log         *logger.Log
	err         *errorc.ErrorBuilder
}

func NewSettingsService(settingsDao *dao.AlertSettingsDao, overrideDao *dao.ThresholdOverrideDao, log *logger.Log) *SettingsService {
	return &SettingsService{
		IBaseService: mvc.NewBaseService[model.ThresholdOverride](overrideDao),
		settingsDao:  settingsDao,
		overrideDao:  overrideDao,
		log:          log.WithEntryName("SettingsService"),
		err:          errorc.NewErrorBuilder("SettingsService"),
	}
}

// EnsureDefaultSettings 全局设置不存在时写入默认值
func (s *SettingsService) EnsureDefaultSettings(ctx context.Context) error {
	created, err := s.settingsDao.CreateIfAbsent(ctx, model.DefaultAlertSettings())
	if err != nil {
		return err
	}
	if created {
		s.log.Info("已写入默认告警设置")
	}
	return nil
}

// GetSettings 不存在时返回默认值，不落库
func (s *SettingsService) GetSettings(ctx context.Context) (*model.AlertSettings, error) {
	settings, err := s.settingsDao.GetGlobal(ctx)
	if errorc.IsNotFound(err) {
		return model.DefaultAlertSettings(), nil
	}
	return settings, err
}

func (s *SettingsService) UpdateSettings(ctx context.Context, settings *model.AlertSettings) (*model.AlertSettings, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := s.settingsDao.SaveGlobal(ctx, settings); err != nil {
		return nil, err
	}
	s.log.WithTrace(ctx).Info("全局告警设置已更新，下一轮评估生效")
	return s.settingsDao.GetGlobal(ctx)
}

func (s *SettingsService) ListOverrides(ctx context.Context, targetType model.TargetType, targetID int64) ([]*model.ThresholdOverride, error) {
	if targetType != "" && targetID > 0 {
		return s.overrideDao.FindByTarget(ctx, targetType, targetID)
	}
	return s.overrideDao.FindAll(ctx)
}

func (s *SettingsService) SaveOverride(ctx context.Context, o *model.ThresholdOverride) (*model.ThresholdOverride, error) {
	if !o.TargetType.Valid() {
		return nil, s.err.New("不支持的目标类型: "+string(o.TargetType), nil).Config()
	}
	if !o.MetricType.Valid() {
		return nil, s.err.New("不支持的指标类型: "+string(o.MetricType), nil).Config()
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return s.overrideDao.Upsert(ctx, o)
}

func (s *SettingsService) DeleteOverride(ctx context.Context, id int64) error {
	return s.overrideDao.HardDelete(ctx, id)
}

// LoadConfig 读取本轮评估使用的阈值快照
func (s *SettingsService) LoadConfig(ctx context.Context) (*model.ThresholdConfig, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	overrides, err := s.overrideDao.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	valid := overrides[:0]
	for _, o := range overrides {
		if err := o.Validate(); err != nil {
			s.log.WithErr(err).WithField("overrideId", o.ID).Warn("忽略非法的阈值覆盖")
			continue
		}
		valid = append(valid, o)
	}
	return model.NewThresholdConfig(*settings, valid), nil
}
