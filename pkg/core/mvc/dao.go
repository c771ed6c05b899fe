package mvc

import "context"

// IBaseDao 通用数据访问接口
type IBaseDao[T any] interface {
	Create(ctx context.Context, entity *T) error
	DeleteById(ctx context.Context, id interface{}) error
	UpdateById(ctx context.Context, id interface{}, entity *T) (int64, error)
	FindById(ctx context.Context, id interface{}) (*T, error)
	FindByMap(ctx context.Context, conditions map[string]interface{}) ([]*T, error)
	FindOneByMap(ctx context.Context, conditions map[string]interface{}) (*T, error)
	FindPageByMap(ctx context.Context, page *Page, conditions map[string]interface{}) ([]*T, int64, error)
	CountByMap(ctx context.Context, conditions map[string]interface{}) (int64, error)
	// WithTx 绑定到事务上的临时实例
	WithTx(tx interface{}) IBaseDao[T]
}
