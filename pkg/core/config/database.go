package config

import (
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Database struct {
	Driver   string `yaml:"driver" json:"driver,omitempty"`
	Host     string `yaml:"host" json:"host,omitempty"`
	Port     int64  `yaml:"port" json:"port,omitempty"`
	User     string `yaml:"user" json:"user,omitempty"`
	Password string `yaml:"password" json:"password,omitempty"`
	DbName   string `yaml:"db-name" json:"db-name,omitempty"`
	// Path sqlite 文件路径，":memory:" 为内存库
	Path     string `yaml:"path" json:"path,omitempty"`
	LogLevel string `yaml:"log-level" json:"log-level,omitempty"`
}

// Open 按 driver 打开数据库连接，默认 mysql
func Open(database Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch database.Driver {
	case "postgres":
		dialector = postgres.Open(fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable password=%s",
			database.Host, database.Port, database.User, database.DbName, database.Password))
	case "sqlite":
		path := database.Path
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(path)
	default:
		cfg := mysqldriver.NewConfig()
		cfg.User = database.User
		cfg.Passwd = database.Password
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", database.Host, database.Port)
		cfg.DBName = database.DbName
		cfg.ParseTime = true
		cfg.Loc = time.Local
		cfg.Params = map[string]string{"charset": "utf8mb4"}
		dialector = mysql.Open(cfg.FormatDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormLevel(database.LogLevel))})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if database.Driver == "sqlite" {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func gormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "info":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	case "silent":
		return gormlogger.Silent
	default:
		return gormlogger.Warn
	}
}
