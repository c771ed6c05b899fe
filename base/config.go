package base

import (
	"dcim/pkg/core/logger"
	"dcim/pkg/core/rocketmq"
	"dcim/pkg/core/start"
	"dcim/pkg/scheduler"

	"github.com/bsm/redislock"
	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	Configures *start.Configures
	Logger     *logger.Log
	ENV        string
	DB         *gorm.DB
	RDB        redis.UniversalClient
	Cache      *cache.Cache
	Locker     *redislock.Client
	Scheduler  *scheduler.Scheduler
	RocketMQ   *rocketmq.RocketMQManager
	Zap        *zap.Logger
)
