// internal/config/config.go
package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type JWTConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	Issuer    string `mapstructure:"issuer"`
}

type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ProgressConfig は進捗判定のしきい値
type ProgressConfig struct {
	PassThreshold float64 `mapstructure:"pass_threshold"`
	PassiveCap    float64 `mapstructure:"passive_cap"`
	Checkpoints   []int   `mapstructure:"checkpoints"`
}

// SyncConfig は学習者側の同期クライアント設定
type SyncConfig struct {
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
	RemoteBaseURL  string        `mapstructure:"remote_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type CacheConfig struct {
	Path string `mapstructure:"path"`
}

type CertificateConfig struct {
	MinAverageScore float64 `mapstructure:"min_average_score"`
	NotifyOnUnlock  bool    `mapstructure:"notify_on_unlock"`
	// PortalURL は通知メールに載せる証明書ページのURL (空ならリンクなし)
	PortalURL string `mapstructure:"portal_url"`
}

type DashboardConfig struct {
	RefreshCron string `mapstructure:"refresh_cron"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type MailerConfig struct {
	Type string `mapstructure:"type"` // "log", "smtp", "ses"
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	From string `mapstructure:"from"`
}

type SESConfig struct {
	Region          string `mapstructure:"region"`
	From            string `mapstructure:"from"`
	AuthType        string `mapstructure:"auth_type"` // "static_credentials", "iam_role"
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// ConfigurationSet は配信イベントを記録する SES の設定セット (任意)
	ConfigurationSet string `mapstructure:"configuration_set"`
}

type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	CORS        CORSConfig        `mapstructure:"cors"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Progress    ProgressConfig    `mapstructure:"progress"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Certificate CertificateConfig `mapstructure:"certificate"`
	Dashboard   DashboardConfig   `mapstructure:"dashboard"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Mailer      MailerConfig      `mapstructure:"mailer"`
	SMTP        SMTPConfig        `mapstructure:"smtp"`
	SES         SESConfig         `mapstructure:"ses"`
}

var Cfg Config

func LoadConfig(path string) error {
	// .env があれば先に読み込む (なくてもエラーにしない)
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using config file and environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(".")

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	v.BindEnv("auth.enabled", "AUTH_ENABLED")
	v.BindEnv("sync.remote_base_url", "REMOTE_BASE_URL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}
	normalize(&cfg)
	if err := validate(&cfg); err != nil {
		log.Printf("Invalid config: %s\n", err)
		return err
	}
	Cfg = cfg

	if Cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Auth Enabled: %t", Cfg.Auth.Enabled)
	log.Printf("Pass Threshold: %.2f", Cfg.Progress.PassThreshold)
	log.Printf("Debounce Window: %s", Cfg.Sync.DebounceWindow)

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("auth.enabled", DefaultAuthEnabled)
	v.SetDefault("progress.pass_threshold", DefaultPassThreshold)
	v.SetDefault("progress.passive_cap", DefaultPassiveCap)
	v.SetDefault("progress.checkpoints", DefaultCheckpoints)
	v.SetDefault("sync.debounce_window", DefaultDebounceWindow)
	v.SetDefault("sync.request_timeout", DefaultRequestTimeout)
	v.SetDefault("cache.path", DefaultCachePath)
	v.SetDefault("dashboard.refresh_cron", DefaultDashboardRefreshCron)
	v.SetDefault("catalog.path", DefaultCatalogPath)
	v.SetDefault("mailer.type", "log")
}

// validate はデフォルトで補えない設定の不足を検出する
func validate(cfg *Config) error {
	// 空の鍵での署名検証は許可しない
	if cfg.Auth.Enabled && cfg.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key (JWT_SECRET_KEY) must be set when auth.enabled is true")
	}
	return nil
}

// normalize は不正値をデフォルトに戻す (設定ファイルで 0 や空が明示された場合)
func normalize(cfg *Config) {
	if cfg.Server.Port == "" {
		log.Printf("Server port not set, using default '%s'", DefaultServerPort)
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Progress.PassThreshold <= 0 || cfg.Progress.PassThreshold > 100 {
		log.Printf("Pass threshold invalid, using default '%.0f'", DefaultPassThreshold)
		cfg.Progress.PassThreshold = DefaultPassThreshold
	}
	if cfg.Progress.PassiveCap <= 0 || cfg.Progress.PassiveCap >= 100 {
		cfg.Progress.PassiveCap = DefaultPassiveCap
	}
	if len(cfg.Progress.Checkpoints) == 0 {
		cfg.Progress.Checkpoints = append([]int(nil), DefaultCheckpoints...)
	}
	if cfg.Sync.DebounceWindow <= 0 {
		cfg.Sync.DebounceWindow = DefaultDebounceWindow
	}
	if cfg.Sync.RequestTimeout <= 0 {
		cfg.Sync.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Certificate.MinAverageScore < 0 {
		cfg.Certificate.MinAverageScore = 0
	}
}
