package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"crosspost/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Scheduler   Scheduler   `json:"scheduler"`
	Platforms   Platforms   `json:"platforms"`
	Storage     Storage     `json:"storage"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

// Scheduler holds the timing knobs for the background jobs. Every value has a
// default; config files and env only override.
type Scheduler struct {
	TokenRefreshInterval  time.Duration `json:"tokenRefreshInterval"`
	TokenRefreshLookahead time.Duration `json:"tokenRefreshLookahead"`
	PublishInterval       time.Duration `json:"publishInterval"`
	PollInitialInterval   time.Duration `json:"pollInitialInterval"`
	PollMaxInterval       time.Duration `json:"pollMaxInterval"`
	PollTimeout           time.Duration `json:"pollTimeout"`
	MaxInFlight           int64         `json:"maxInFlight"`
	StopGrace             time.Duration `json:"stopGrace"`
}

// Platforms holds third-party OAuth client credentials per platform.
type Platforms struct {
	TikTok    OAuthClient `json:"tiktok"`
	YouTube   OAuthClient `json:"youtube"`
	Instagram OAuthClient `json:"instagram"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

// Storage holds the S3-compatible blob storage settings for video objects.
type Storage struct {
	Region    string        `json:"region"`
	Bucket    string        `json:"bucket"`
	Endpoint  string        `json:"endpoint"` // optional, for MinIO/compatible stores
	AccessKey string        `json:"accessKey"`
	SecretKey string        `json:"secretKey"`
	URLTTL    time.Duration `json:"urlTTL"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initScheduler(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}

	// Optional MSSQL config via environment variables (for Azure SQL in production)
	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = os.Getenv("MSSQL_HOST")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = os.Getenv("MSSQL_USER")
	}
	if C.Database.Mssql.Port == "" {
		if v := os.Getenv("MSSQL_PORT"); v != "" {
			C.Database.Mssql.Port = v
		} else {
			C.Database.Mssql.Port = "1433"
		}
	}
}

func initApp(C *Config) {
	// Prefer SECRET_KEY from environment for JWT verification; overrides config file when provided
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10002
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10002
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
}

func initScheduler(C *Config) {
	s := &C.Scheduler
	if s.TokenRefreshInterval <= 0 {
		s.TokenRefreshInterval = 12 * time.Hour
	}
	if s.TokenRefreshLookahead <= 0 {
		s.TokenRefreshLookahead = 6 * time.Hour
	}
	if s.PublishInterval <= 0 {
		s.PublishInterval = time.Minute
	}
	if s.PollInitialInterval <= 0 {
		s.PollInitialInterval = 2 * time.Second
	}
	if s.PollMaxInterval <= 0 {
		s.PollMaxInterval = 30 * time.Second
	}
	if s.PollTimeout <= 0 {
		s.PollTimeout = 10 * time.Minute
	}
	if s.MaxInFlight <= 0 {
		s.MaxInFlight = 4
	}
	if s.StopGrace <= 0 {
		s.StopGrace = 30 * time.Second
	}
	if C.Storage.URLTTL <= 0 {
		C.Storage.URLTTL = time.Hour
	}
}
