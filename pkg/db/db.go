package db

import (
	"fmt"
	"time"

	"sfu-globe/internal/model"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 初始化数据库连接
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// 内存库每个连接是独立的数据库，只保留一个连接
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logger.L.Info("Database connected", zap.String("driver", cfg.Driver))
	return conn, nil
}

// gorm 日志写入 zap。查不到记录是正常分支，不记录
func newGormLogger() gormlogger.Interface {
	l := logger.L.Named("gorm")
	writer, err := zap.NewStdLogAt(l, zap.WarnLevel)
	if err != nil {
		writer = zap.NewStdLog(l)
	}
	return gormlogger.New(
		writer,
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// 自动迁移模式
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&model.Profile{},
		&model.Club{},
		&model.ClubMembership{},
		&model.ClubMessage{},
		&model.AttendanceCode{},
		&model.AttendanceRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.L.Info("Database migrated successfully")
	return nil
}
