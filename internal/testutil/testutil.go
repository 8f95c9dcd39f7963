// Package testutil 测试用的数据库和数据构造帮助函数
package testutil

import (
	"context"
	"fmt"
	"testing"

	"sfu-globe/internal/model"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Config 读取 config.test.yaml
func Config(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadTest()
	require.NoError(t, err, "Failed to load test config")
	return cfg
}

// NewDB 每个测试一个独立的内存 SQLite 库
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := Config(t)
	cfg.Database.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	conn, err := db.Open(cfg.Database)
	require.NoError(t, err, "Failed to open test database")
	require.NoError(t, db.Migrate(conn), "Failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// CreateProfile 直接写库创建用户，密码不做哈希
func CreateProfile(t *testing.T, conn *gorm.DB, name string) *model.Profile {
	t.Helper()
	profile := &model.Profile{
		Email:     fmt.Sprintf("%s@sfu.ca", name),
		Password:  "not-a-hash",
		FullName:  name,
		Username:  name,
		StudentID: uuid.NewString()[:12],
		Major:     "Computing Science",
		Batch:     "2025",
	}
	require.NoError(t, conn.WithContext(context.Background()).Create(profile).Error)
	return profile
}

func CreateClub(t *testing.T, conn *gorm.DB, name string) *model.Club {
	t.Helper()
	club := &model.Club{
		Name:        name,
		Description: name + " club",
		Icon:        "users",
		Location:    "AQ 3000",
		MeetingTime: "Fridays 5pm",
		Activities:  []string{"Workshops", "Socials"},
	}
	require.NoError(t, conn.WithContext(context.Background()).Create(club).Error)
	return club
}
