package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Messaging  MessagingConfig  `mapstructure:"messaging"`
	Log        LogConfig        `mapstructure:"log"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	File       FileConfig       `mapstructure:"file"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// mysql / postgres / sqlite
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type WebSocketConfig struct {
	BroadcastBufferSize int `mapstructure:"broadcast_buffer_size"`
	SendBufferSize      int `mapstructure:"send_buffer_size"`

	WriteWaitSeconds int `mapstructure:"write_wait_seconds"`
	PongWaitSeconds  int `mapstructure:"pong_wait_seconds"`
	MaxMessageSize   int `mapstructure:"max_message_size"`
	// 重试相关配置
	MessageRetryCount      int `mapstructure:"message_retry_count"`
	MessageRetryIntervalMs int `mapstructure:"message_retry_interval_ms"`
}

type MessagingConfig struct {
	// channel / kafka / nats
	Provider string      `mapstructure:"provider"`
	Kafka    KafkaConfig `mapstructure:"kafka"`
	NATS     NATSConfig  `mapstructure:"nats"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	TopicPrefix   string   `mapstructure:"topic_prefix"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type LogConfig struct {
	Level          string `mapstructure:"level"`
	ProductionMode bool   `mapstructure:"production_mode"`
}

type ChatConfig struct {
	MaxMessageLength int     `mapstructure:"max_message_length"`
	RatePerSecond    float64 `mapstructure:"rate_per_second"`
	Burst            int     `mapstructure:"burst"`
}

type AttendanceConfig struct {
	CodeTTL time.Duration `mapstructure:"code_ttl"`
}

type FileConfig struct {
	StoragePath string `mapstructure:"storage_path"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

// Validate 检查必填项和枚举值
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.Messaging.Provider {
	case "channel":
	case "kafka":
		if len(c.Messaging.Kafka.Brokers) == 0 {
			return errors.New("messaging.kafka.brokers is required for kafka provider")
		}
	case "nats":
		if c.Messaging.NATS.URL == "" {
			return errors.New("messaging.nats.url is required for nats provider")
		}
	default:
		return fmt.Errorf("unsupported messaging provider %q", c.Messaging.Provider)
	}
	if c.Chat.MaxMessageLength <= 0 {
		return errors.New("chat.max_message_length must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "mysql")

	v.SetDefault("jwt.expiration", 24*time.Hour)

	v.SetDefault("websocket.broadcast_buffer_size", 256)
	v.SetDefault("websocket.send_buffer_size", 256)
	v.SetDefault("websocket.write_wait_seconds", 10)
	v.SetDefault("websocket.pong_wait_seconds", 60)
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.message_retry_count", 3)
	v.SetDefault("websocket.message_retry_interval_ms", 100)

	v.SetDefault("messaging.provider", "channel")
	v.SetDefault("messaging.kafka.topic_prefix", "sfu_globe")
	v.SetDefault("messaging.kafka.consumer_group", "sfu-globe")
	v.SetDefault("messaging.nats.subject_prefix", "sfu_globe")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.production_mode", false)

	v.SetDefault("chat.max_message_length", 2000)
	v.SetDefault("chat.rate_per_second", 2.0)
	v.SetDefault("chat.burst", 5)

	v.SetDefault("attendance.code_ttl", 5*time.Minute)

	v.SetDefault("file.storage_path", "uploads")
	v.SetDefault("file.max_file_size", 5*1024*1024)
}

// 项目根目录下的 config 目录
func configDir() string {
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	return filepath.Join(basepath, "config")
}

// Load 读取配置文件。path 为空时使用 config/config.yaml
func Load(path string) (*Config, error) {
	if path == "" {
		path = filepath.Join(configDir(), "config.yaml")
	}

	// .env 中的值不覆盖已经存在的环境变量
	if envMap, err := godotenv.Read(filepath.Join(filepath.Dir(path), ".env")); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// 测试用的配置文件
func LoadTest() (*Config, error) {
	return Load(filepath.Join(configDir(), "config.test.yaml"))
}
