package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the complete configuration for the chatbot services
type AppConfig struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	ServiceName string         `mapstructure:"service_name"`
	Timezone    string         `mapstructure:"timezone"`
	MongoDB     MongoConfig    `mapstructure:"mongodb"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	WhatsApp    WhatsAppConfig `mapstructure:"whatsapp"`
	Bot         BotConfig      `mapstructure:"bot"`
	Notifier    NotifierConfig `mapstructure:"notifier"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Archiver    ArchiverConfig `mapstructure:"archiver"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	OpTimeout      time.Duration `mapstructure:"op_timeout"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	OutboundTopic string   `mapstructure:"outbound_topic"`
	GroupID       string   `mapstructure:"group_id"`
}

type WhatsAppConfig struct {
	Token       string `mapstructure:"token"`
	PhoneID     string `mapstructure:"phone_id"`
	VerifyToken string `mapstructure:"verify_token"`
	APIBase     string `mapstructure:"api_base"`
}

type BotConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Tesseract  string `mapstructure:"tesseract"`
}

type NotifierConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

type PostgresConfig struct {
	URI      string `mapstructure:"uri"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

type ArchiverConfig struct {
	ResumeTokenPath string        `mapstructure:"resume_token_path"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisKey        string        `mapstructure:"redis_key"`
	BatchSize       int           `mapstructure:"batch_size"`
	FlushInterval   time.Duration `mapstructure:"flush_interval"`
}

// Load loads configuration from file and environment variables
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	// Default values
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "Europe/London")
	v.SetDefault("mongodb.database", "PlusWord")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("mongodb.op_timeout", 5*time.Second)
	v.SetDefault("kafka.outbound_topic", "plusword.outbound")
	v.SetDefault("kafka.group_id", "plusword-sender")
	v.SetDefault("whatsapp.api_base", "https://graph.facebook.com/v21.0")
	v.SetDefault("bot.listen_addr", ":8080")
	v.SetDefault("bot.tesseract", "tesseract")
	v.SetDefault("notifier.tick_interval", time.Minute)
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("archiver.resume_token_path", "resume_token.bin")
	v.SetDefault("archiver.redis_key", "plusword:archiver:resume_token")
	v.SetDefault("archiver.batch_size", 100)
	v.SetDefault("archiver.flush_interval", time.Second)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// Bind environment variables explicitly for nested structs so Unmarshal picks them up
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("timezone", "TIMEZONE")
	v.BindEnv("mongodb.uri", "MONGODB_URI")
	v.BindEnv("mongodb.database", "MONGODB_DATABASE")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.outbound_topic", "KAFKA_OUTBOUND_TOPIC")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("whatsapp.token", "WHATSAPP_TOKEN")
	v.BindEnv("whatsapp.phone_id", "WHATSAPP_PHONE_ID")
	v.BindEnv("whatsapp.verify_token", "WHATSAPP_VERIFY_TOKEN")
	v.BindEnv("whatsapp.api_base", "WHATSAPP_API_BASE")
	v.BindEnv("bot.listen_addr", "BOT_LISTEN_ADDR")
	v.BindEnv("bot.tesseract", "BOT_TESSERACT")
	v.BindEnv("notifier.tick_interval", "NOTIFIER_TICK_INTERVAL")
	v.BindEnv("postgres.uri", "POSTGRES_URI")
	v.BindEnv("archiver.resume_token_path", "ARCHIVER_RESUME_TOKEN_PATH")
	v.BindEnv("archiver.redis_addr", "ARCHIVER_REDIS_ADDR")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Manual check for Kafka brokers if they came as a single string from env
	brokers := v.GetString("kafka.brokers")
	if brokers != "" && len(config.Kafka.Brokers) == 0 {
		config.Kafka.Brokers = strings.Split(brokers, ",")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.Timezone == "" {
		return errors.New("timezone is required")
	}
	if c.MongoDB.URI == "" {
		return errors.New("mongodb.uri is required")
	}
	if c.MongoDB.Database == "" {
		return errors.New("mongodb.database is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required")
	}
	if c.Kafka.OutboundTopic == "" {
		return errors.New("kafka.outbound_topic is required")
	}
	return nil
}

// Location resolves the configured reference timezone. Day boundaries for
// submissions are midnight in this zone.
func (c *AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
