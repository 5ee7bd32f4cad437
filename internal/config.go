package internal

import (
	"fmt"
	"strings"
	"time"

	"roomchat/domain/mimetypes"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	StoreBadger = "badger"
	StoreSQLite = "sqlite3"
	StorePgx    = "pgx"
)

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080" validate:"min=1,max=65535"`
	GrpcPort int    `env:"GRPC_PORT,default=0" validate:"min=0,max=65535"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	StoreDriver    string `env:"STORE_DRIVER,default=badger" validate:"oneof=badger sqlite3 pgx"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/badger" validate:"required"`
	SQLDSN         string `env:"SQL_DSN" validate:"required_unless=StoreDriver badger"`

	UploadDir         string `env:"UPLOAD_DIR,default=./data/uploads" validate:"required"`
	MaxPayloadBytes   int64  `env:"MAX_PAYLOAD_BYTES,default=10485760" validate:"min=1"`
	AllowedMediaTypes string `env:"ALLOWED_MEDIA_TYPES"`
	MediaWorkers      int    `env:"MEDIA_WORKERS,default=2" validate:"min=1"`
	MediaQueueSize    int    `env:"MEDIA_QUEUE_SIZE,default=64" validate:"min=1"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"min=1"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=250ms" validate:"min=0"`
	MaxMessageLength     int           `env:"MAX_MESSAGE_LENGTH,default=4096" validate:"min=1"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND,default=20" validate:"min=0"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST,default=40" validate:"min=0"`

	AuthEnabled       bool          `env:"AUTH_ENABLED,default=false"`
	AuthSecret        string        `env:"AUTH_SECRET" validate:"required_if=AuthEnabled true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	CensoredWords        string `env:"CENSORED_WORDS"`
	CharacterReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	SearchEnabled bool   `env:"SEARCH_ENABLED,default=false"`
	BlugeFilepath string `env:"BLUGE_FILEPATH,default=./data/bluge" validate:"required_if=SearchEnabled true"`

	HealthInterval  time.Duration `env:"HEALTH_INTERVAL,default=5s" validate:"min=1ms"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=1s"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS"`
}

var validate = validator.New()

// LoadConfig reads the optional .env file then the environment.
func LoadConfig(files ...string) (Config, error) {
	// .env is best effort, the environment always wins
	_ = godotenv.Load(files...)

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := CharacterRune(config.CharacterReplacement); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) GrpcAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GrpcPort)
}

func (c Config) Words() []string {
	return SplitList(c.CensoredWords)
}

func (c Config) Origins() []string {
	return SplitList(c.AllowedOrigins)
}

func (c Config) MediaTypes() []mimetypes.MIME {
	return mimetypes.Parse(c.AllowedMediaTypes)
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(value string) []string {
	return lo.FilterMap(strings.Split(value, ","), func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	})
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
