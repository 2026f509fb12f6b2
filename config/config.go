package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

// minBlockSize 边框是半格，格子至少2像素
const minBlockSize = 2

var (
	ErrInvalidBlockSize = errors.New("blocksize must be at least 2")
	ErrInvalidSpeed     = errors.New("initial_speed must be positive")
)

// AppConfig holds the structure of the configuration.
// Every field can be overridden from the environment.
type AppConfig struct {
	SelfPath       string  `json:"selfpath" env:"SNAKE_SELFPATH" env-default:"127.0.0.1:38870"`
	Port           string  `json:"port" env:"SNAKE_PORT" env-default:"38870"`
	Blocksize      int     `json:"blocksize" env:"SNAKE_BLOCKSIZE" env-default:"50"`
	InitialSpeed   float64 `json:"initial_speed" env:"SNAKE_INITIAL_SPEED" env-default:"5"`
	ViewportWidth  int     `json:"viewport_width" env:"SNAKE_VIEWPORT_WIDTH" env-default:"1280"`
	ViewportHeight int     `json:"viewport_height" env:"SNAKE_VIEWPORT_HEIGHT" env-default:"720"`
	HeaderHeight   int     `json:"header_height" env:"SNAKE_HEADER_HEIGHT" env-default:"100"`
	DBPath         string  `json:"db_path" env:"SNAKE_DB_PATH" env-default:"game.db"`
	SpriteDir      string  `json:"sprite_dir" env:"SNAKE_SPRITE_DIR" env-default:"./sprites"`
	StaticDir      string  `json:"static_dir" env:"SNAKE_STATIC_DIR" env-default:"./static"`
	LogLevel       string  `json:"log_level" env:"SNAKE_LOG_LEVEL" env-default:"info"`
}

var (
	instance *AppConfig
	once     sync.Once
)

// LoadConfig initializes and returns the process-wide instance of AppConfig
func LoadConfig(filePath string) *AppConfig {
	once.Do(func() {
		cfg, err := Load(filePath)
		if err != nil {
			panic(err)
		}
		instance = cfg
	})
	return instance
}

// Load reads the config file, creating it with defaults if it does not exist.
// Environment overrides apply on every load but are never written to the file.
func Load(filePath string) (*AppConfig, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := saveDefaults(filePath); err != nil {
			return nil, err
		}
	}

	cfg := &AppConfig{}
	if err := cleanenv.ReadConfig(filePath, cfg); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaults 由 env-default 标签生成的配置，数字字段的默认值直接作为JSON数字
func defaults() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	t := reflect.TypeOf(AppConfig{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := strings.Split(field.Tag.Get("json"), ",")[0]
		def := field.Tag.Get("env-default")
		if field.Type.Kind() == reflect.String {
			quoted, _ := json.Marshal(def)
			out[key] = quoted
			continue
		}
		out[key] = json.RawMessage(def)
	}
	return out
}

// saveDefaults saves the default settings to the file
func saveDefaults(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("unable to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(defaults()); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if c.Blocksize < minBlockSize {
		return fmt.Errorf("%w: got %d", ErrInvalidBlockSize, c.Blocksize)
	}
	if c.InitialSpeed <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidSpeed, c.InitialSpeed)
	}
	return nil
}
