package db

import (
	"context"
	"fmt"
	"testing"

	"sfu-globe/internal/model"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestOpenRoutesGormLogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.L
	logger.L = zap.New(core)
	t.Cleanup(func() { logger.L = prev })

	conn, err := Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))
	ctx := context.Background()

	// 查不到记录不应该产生日志
	var profile model.Profile
	err = conn.WithContext(ctx).First(&profile, "email = ?", "nobody@sfu.ca").Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, logs.FilterLoggerName("gorm").All())

	// 真正的错误仍然记录
	err = conn.WithContext(ctx).Table("missing_table").Count(new(int64)).Error
	require.Error(t, err)
	assert.NotEmpty(t, logs.FilterLoggerName("gorm").All())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}
