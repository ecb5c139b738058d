package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"10000" validate:"min=1000,max=65535"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory" validate:"oneof=memory postgres redis mongo"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"liveshare_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"liveshare_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"liveshare_db"`

	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort uint16 `env:"REDIS_PORT" envDefault:"6379" validate:"min=1000,max=65535"`

	MongoURL        string `env:"MONGODB_URL"        envDefault:"mongodb://localhost:27017"`
	MongoDatabase   string `env:"MONGODB_DATABASE"   envDefault:"liveshare"`
	MongoCollection string `env:"MONGODB_COLLECTION" envDefault:"codeblocks"`

	// Quiet period before an edited room is written back.
	SaveDebounce      time.Duration `env:"SAVE_DEBOUNCE"       envDefault:"1500ms" validate:"gt=0"`
	StoreTimeout      time.Duration `env:"STORE_TIMEOUT"       envDefault:"5s"     validate:"gt=0"`
	FinalFlushTimeout time.Duration `env:"FINAL_FLUSH_TIMEOUT" envDefault:"5s"     validate:"gt=0"`
	StorePingInterval time.Duration `env:"STORE_PING_INTERVAL" envDefault:"30s"    validate:"gt=0"`

	WsSendBuffer int   `env:"WS_SEND_BUFFER" envDefault:"64"      validate:"min=1"`
	WsReadLimit  int64 `env:"WS_READ_LIMIT"  envDefault:"1048576" validate:"min=512"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
