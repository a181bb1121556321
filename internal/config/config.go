// config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Redis
	RedisURL      string `mapstructure:"redis_url"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	StreamName    string `mapstructure:"redis_stream"`
	ConsumerGroup string `mapstructure:"redis_consumer_group"`

	// RethinkDB
	RethinkDBURL      string `mapstructure:"rethinkdb_url"`
	DBName            string `mapstructure:"db_name"`
	PlanTableName     string `mapstructure:"plan_table"`
	MachineTableName  string `mapstructure:"machine_table"`
	SnapshotTableName string `mapstructure:"snapshot_table"`

	// Server
	ServerPort string `mapstructure:"server_port"`
	HealthPort string `mapstructure:"health_port"`

	// Worker
	WorkerCount int           `mapstructure:"worker_count"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`

	// Seed the machine park on first start
	SeedMachines bool `mapstructure:"seed_machines"`
}

func Load() (*Config, error) {
	// Устанавливаем значения по умолчанию
	viper.SetDefault("redis_url", "localhost:6379")
	viper.SetDefault("redis_password", "")
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("redis_stream", "plans-stream")
	viper.SetDefault("redis_consumer_group", "plans-workers")
	viper.SetDefault("rethinkdb_url", "localhost:28015")
	viper.SetDefault("db_name", "texhub_planning")
	viper.SetDefault("plan_table", "dyeing_plans")
	viper.SetDefault("machine_table", "machine_schedules")
	viper.SetDefault("snapshot_table", "plan_snapshots")
	viper.SetDefault("server_port", ":8081")
	viper.SetDefault("health_port", ":8082")
	viper.SetDefault("worker_count", 1)
	viper.SetDefault("task_timeout", 5*time.Minute)
	viper.SetDefault("max_retries", 3)
	viper.SetDefault("seed_machines", true)

	// Чтение из файлов конфигурации (необязательно)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/texhub/")

	// Чтение переменных окружения
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Пытаемся прочитать конфигурационный файл (если есть)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("ошибка чтения конфигурационного файла: %w", err)
		}
		// Файл не найден - это нормально, используем значения по умолчанию и env
	}

	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	return &cfg, nil
}
