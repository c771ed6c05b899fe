package mvc

import (
	"context"
	"errors"

	errorc "dcim/pkg/core/err"

	"gorm.io/gorm"
)

// GormDaoImpl GORM数据访问实现
type GormDaoImpl[T any] struct {
	db *gorm.DB
}

func NewGormDao[T any](db *gorm.DB) IBaseDao[T] {
	return &GormDaoImpl[T]{db: db}
}

func (d *GormDaoImpl[T]) WithTx(tx interface{}) IBaseDao[T] {
	if gormDB, ok := tx.(*gorm.DB); ok {
		return &GormDaoImpl[T]{db: gormDB}
	}
	return d
}

func wrapQueryErr(msg string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorc.New("记录不存在", err).NotFound()
	}
	return errorc.New(msg, err).DB()
}

func (d *GormDaoImpl[T]) Create(ctx context.Context, entity *T) error {
	if err := d.db.WithContext(ctx).Create(entity).Error; err != nil {
		return errorc.New("数据库操作失败", err).DB()
	}
	return nil
}

func (d *GormDaoImpl[T]) DeleteById(ctx context.Context, id interface{}) error {
	result := d.db.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return errorc.New("删除记录失败", result.Error).DB()
	}
	if result.RowsAffected == 0 {
		return errorc.New("要删除的记录不存在", nil).NotFound()
	}
	return nil
}

func (d *GormDaoImpl[T]) UpdateById(ctx context.Context, id interface{}, entity *T) (int64, error) {
	result := d.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(entity)
	if result.Error != nil {
		return 0, errorc.New("更新记录失败", result.Error).DB()
	}
	if result.RowsAffected == 0 {
		return 0, errorc.New("要更新的记录不存在", nil).NotFound()
	}
	return result.RowsAffected, nil
}

func (d *GormDaoImpl[T]) FindById(ctx context.Context, id interface{}) (*T, error) {
	var entity T
	if err := d.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		return nil, wrapQueryErr("查询记录失败", err)
	}
	return &entity, nil
}

func (d *GormDaoImpl[T]) FindByMap(ctx context.Context, conditions map[string]interface{}) ([]*T, error) {
	var entities []*T
	if err := d.db.WithContext(ctx).Where(conditions).Find(&entities).Error; err != nil {
		return nil, errorc.New("查询记录失败", err).DB()
	}
	return entities, nil
}

func (d *GormDaoImpl[T]) FindOneByMap(ctx context.Context, conditions map[string]interface{}) (*T, error) {
	var entity T
	if err := d.db.WithContext(ctx).Where(conditions).First(&entity).Error; err != nil {
		return nil, wrapQueryErr("查询记录失败", err)
	}
	return &entity, nil
}

func (d *GormDaoImpl[T]) FindPageByMap(ctx context.Context, page *Page, conditions map[string]interface{}) ([]*T, int64, error) {
	var entities []*T
	var total int64

	db := d.db.WithContext(ctx).Model(new(T))
	if len(conditions) > 0 {
		db = db.Where(conditions)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, errorc.New("查询记录失败", err).DB()
	}

	db = db.Scopes(Paginate(page))
	if page.Sort != "" {
		db = db.Order(page.Sort)
	}
	if err := db.Find(&entities).Error; err != nil {
		return nil, 0, errorc.New("查询记录失败", err).DB()
	}
	return entities, total, nil
}

func (d *GormDaoImpl[T]) CountByMap(ctx context.Context, conditions map[string]interface{}) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(new(T)).Where(conditions).Count(&count).Error; err != nil {
		return 0, errorc.New("查询记录失败", err).DB()
	}
	return count, nil
}
