package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Бэкенды хранилища стран.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

// Типы клиентов нарративной модели. Оба обращаются к удаленному API.
const (
	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"
)

// Config holds the application configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING"` // пусто: console в development, иначе json
	// Пустой путь - stdout
	LogOutputPath string `envconfig:"LOG_OUTPUT_PATH"`
	SecretsDir    string `envconfig:"SECRETS_DIR" default:"/run/secrets"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8000"`

	StoreBackend  string `envconfig:"STORE_BACKEND" default:"postgres"`
	SeedOnStartup bool   `envconfig:"SEED_ON_STARTUP" default:"true"`

	// Database
	DBHost         string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort         string        `envconfig:"DB_PORT" default:"5432"`
	DBUser         string        `envconfig:"DB_USER" default:"postgres"`
	DBName         string        `envconfig:"DB_NAME" default:"samguk"`
	DBSSLMode      string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBPassword     string        `envconfig:"DB_PASSWORD"` // если пусто, читается секрет db_password
	DBMaxConns     int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdleTimeout  time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`

	// Redis
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"` // необязательный, иначе секрет redis_password

	// RabbitMQ. Пустой URL отключает публикацию событий.
	RabbitMQURL     string `envconfig:"RABBITMQ_URL"`
	TurnEventsQueue string `envconfig:"TURN_EVENTS_QUEUE" default:"turn_events"`

	// AI
	AIClientType      string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL         string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel           string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout         time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AITemperature     float64       `envconfig:"AI_TEMPERATURE" default:"0.8"`
	AIMaxTokens       int           `envconfig:"AI_MAX_TOKENS" default:"1024"`
	AIAPIKey          string        `envconfig:"AI_API_KEY"` // если пусто, читается секрет ai_api_key
	NarrativeLanguage string        `envconfig:"NARRATIVE_LANGUAGE" default:"Korean"`

	// Image generation. Пустой BaseURL отключает генерацию.
	ImageServiceBaseURL    string        `envconfig:"IMAGE_SERVICE_BASE_URL"`
	ImageServicePath       string        `envconfig:"IMAGE_SERVICE_PATH" default:"/generate"`
	ImageTimeout           time.Duration `envconfig:"IMAGE_TIMEOUT" default:"60s"`
	ImagePromptStyleSuffix string        `envconfig:"IMAGE_PROMPT_STYLE_SUFFIX" default:", ancient korean three kingdoms era, ink painting style"`

	// CORS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
// Пустой результат означает "разрешить все".
func (c *Config) GetAllowedOrigins() []string {
	raw := strings.ReplaceAll(c.CORSAllowedOrigins, " ", "")
	if raw == "" || raw == "*" {
		return nil
	}
	return strings.Split(raw, ",")
}

// PostgresDSN собирает строку подключения для pgxpool. Логин и пароль экранируются.
func (c *Config) PostgresDSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.DBSSLMode}}.Encode(),
	}
	return dsn.String()
}

// Validate проверяет значения, которые envconfig не может проверить сам.
func (c *Config) Validate() error {
	switch strings.ToLower(c.StoreBackend) {
	case StoreBackendPostgres, StoreBackendRedis:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	switch strings.ToLower(c.AIClientType) {
	case AIClientOpenAI:
		if c.AIAPIKey == "" {
			return fmt.Errorf("AI_API_KEY (or secret ai_api_key) is required for AI_CLIENT_TYPE=%s", c.AIClientType)
		}
	case AIClientOllama:
	default:
		return fmt.Errorf("unsupported AI_CLIENT_TYPE %q", c.AIClientType)
	}
	if c.AIModel == "" {
		return fmt.Errorf("AI_MODEL is required")
	}
	if c.ImageTimeout <= 0 {
		return fmt.Errorf("IMAGE_TIMEOUT must be positive")
	}
	return nil
}

// LoadConfig loads configuration from environment variables and secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if _, err := os.Stat(envFilePath); err == nil {
		if err = godotenv.Load(envFilePath); err != nil {
			log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
		} else {
			log.Printf("Loaded configuration from %s", envFilePath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	// Секреты из файлов подхватываются, только если переменная окружения не задана
	cfg.AIAPIKey = cfg.secretFallback(cfg.AIAPIKey, "ai_api_key")
	cfg.DBPassword = cfg.secretFallback(cfg.DBPassword, "db_password")
	cfg.RedisPassword = cfg.secretFallback(cfg.RedisPassword, "redis_password")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Println("Configuration loaded successfully.")
	return &cfg, nil
}

func (c *Config) secretFallback(current, secretName string) string {
	if current != "" {
		return current
	}
	secret, err := readSecret(c.SecretsDir, secretName)
	if err != nil {
		log.Printf("Optional secret '%s' not found or failed to read: %v", secretName, err)
		return ""
	}
	log.Printf("Secret '%s' loaded from file.", secretName)
	return secret
}

// maxSecretSize ограничивает размер файла секрета: ключи и пароли короткие.
const maxSecretSize = 4 << 10

// readSecret читает Docker secret из каталога SECRETS_DIR.
// Имя секрета не может выходить за пределы каталога, значение обрезается
// и не может быть пустым или многострочным.
func readSecret(dir, secretName string) (string, error) {
	if secretName == "" || secretName != filepath.Base(secretName) || strings.HasPrefix(secretName, ".") {
		return "", fmt.Errorf("invalid secret name %q", secretName)
	}
	filePath := filepath.Join(dir, secretName)

	info, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat secret file %s: %w", filePath, err)
	}
	if info.IsDir() || info.Size() > maxSecretSize {
		return "", fmt.Errorf("secret file %s is not a small regular file", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	if strings.ContainsAny(secret, "\r\n") {
		return "", fmt.Errorf("secret file %s contains more than one line", filePath)
	}
	return secret, nil
}
