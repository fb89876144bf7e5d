// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек бота
type Config struct {
	Env                     string        `yaml:"env" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string        `yaml:"migrations_path" env-default:"./migrations"`
	MeaningsPath            string        `yaml:"meanings_path" env-default:"./data/card_meanings.json"`
	RabbitMQURL             string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries      int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay      time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Telegram                `yaml:"telegram"`
	GigaChat                `yaml:"gigachat"`
	Admin                   `yaml:"admin"`
}

// HTTPServer структура для настройки административного HTTP-сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном административного API
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Telegram структура с настройками чат-транспорта
type Telegram struct {
	Token         string        `yaml:"token" env:"TELEGRAM_TOKEN"`
	BotName       string        `yaml:"bot_name"`
	AdminChatID   int64         `yaml:"admin_chat_id" env:"ADMIN_CHAT_ID"`
	AdminUsername string        `yaml:"admin_username" env:"ADMIN_USERNAME"`
	PollTimeout   time.Duration `yaml:"poll_timeout" env-default:"30s"`
}

// GigaChat структура для настройки клиента генерации интерпретаций
type GigaChat struct {
	AuthKey         string        `yaml:"auth_key" env:"GIGACHAT_AUTH_KEY"`
	Scope           string        `yaml:"scope" env-default:"GIGACHAT_API_PERS"`
	OAuthURL        string        `yaml:"oauth_url" env-default:"https://ngw.devices.sberbank.ru:9443/api/v2/oauth"`
	APIURL          string        `yaml:"api_url" env-default:"https://gigachat.devices.sberbank.ru/api/v1"`
	CACertPath      string        `yaml:"ca_cert_path"`
	GenerateTimeout time.Duration `yaml:"generate_timeout" env-default:"30s"`
}

// Admin структура с учетными данными административного API
type Admin struct {
	APIUser         string `yaml:"api_user" env-default:"admin"`
	APIPasswordHash string `yaml:"api_password_hash" env:"ADMIN_API_PASSWORD_HASH"`
}

// MustLoad функция для загрузки конфига, путь берется из переменной CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
