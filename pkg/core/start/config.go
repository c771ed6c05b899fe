package start

import (
	"fmt"
	"time"

	"dcim/pkg/core/config"
	"dcim/pkg/core/logger"

	"github.com/bsm/redislock"
	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Config struct {
	AppName  string             `yaml:"app-name"`
	Env      string             `yaml:"env"`
	Port     int                `yaml:"port"`
	Log      config.LogConfig   `yaml:"log"`
	Redis    config.RedisConfig `yaml:"redis"`
	Database config.Database    `yaml:"db"`
	RocketMQ config.RocketMQ    `yaml:"rocketmq"`
	Alert    config.AlertConfig `yaml:"alert"`
}

type Configures struct {
	Config Config
	Logger *logger.Log
}

func NewConfigures(file []byte, env string) *Configures {
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		panic(fmt.Sprintf("读取文件信息失败，因为%v", err))
	}
	cfg.Env = env
	cfg.Alert = cfg.Alert.WithDefaults()
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	return &Configures{
		Config: cfg,
		Logger: logger.InitLogger(cfg.Log.Level),
	}
}

// EnableRedis 未配置 redis 时返回 nil
func (c *Configures) EnableRedis() redis.UniversalClient {
	if !c.Config.Redis.Enabled() {
		c.Logger.Info("未配置 redis，缓存与锁仅在本进程内生效")
		return nil
	}
	return config.InitRDB(c.Config.Redis)
}

func (c *Configures) EnableCache(rdb redis.UniversalClient) *cache.Cache {
	return config.InitCache(rdb, 1000, time.Minute)
}

func (c *Configures) EnableLocker(rdb redis.UniversalClient) *redislock.Client {
	if rdb == nil {
		return nil
	}
	return redislock.New(rdb)
}

func (c *Configures) EnableDB() *gorm.DB {
	db, err := config.Open(c.Config.Database)
	if err != nil {
		c.Logger.WithField("driver", c.Config.Database.Driver).
			WithField("database", c.Config.Database.Host).
			WithErr(err).Panic("failed connect database")
	}
	c.Logger.Info("connect database success")
	return db
}
