package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "INKFORGE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "INKFORGE_DB_DSN"
	EnvDBHost = "INKFORGE_DB_HOST"
	EnvDBUser = "INKFORGE_DB_USER"
	EnvDBName = "INKFORGE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	SMTP          SMTPConfig
	Storage       StorageConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PrintFile     PrintFileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INKFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"INKFORGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INKFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INKFORGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"INKFORGE_DB_DSN"`
	Driver string `envconfig:"INKFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"INKFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"INKFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INKFORGE_DB_USER"`
	LegacyPassword string `envconfig:"INKFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"INKFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"INKFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INKFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INKFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INKFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INKFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INKFORGE_REDIS_URL"`
	Address      string        `envconfig:"INKFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"INKFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"INKFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INKFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INKFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INKFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INKFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INKFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"INKFORGE_JWT_SECRET" required:"true"`
	RefreshSecret          string `envconfig:"INKFORGE_JWT_REFRESH_SECRET" required:"true"`
	Issuer                 string `envconfig:"INKFORGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"INKFORGE_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"INKFORGE_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"INKFORGE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"INKFORGE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"INKFORGE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"INKFORGE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"INKFORGE_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	TTL time.Duration `envconfig:"INKFORGE_OTP_TTL" default:"10m"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"INKFORGE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"INKFORGE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"INKFORGE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"INKFORGE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"INKFORGE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"INKFORGE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"INKFORGE_AUTO_MIGRATE" default:"false"`
}

type SMTPConfig struct {
	Host        string `envconfig:"INKFORGE_SMTP_HOST"`
	Port        int    `envconfig:"INKFORGE_SMTP_PORT" default:"587"`
	Username    string `envconfig:"INKFORGE_SMTP_USER"`
	Password    string `envconfig:"INKFORGE_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"INKFORGE_SMTP_FROM"`
}

type StorageConfig struct {
	// Driver selects between the local-disk store and GCS.
	Driver        string `envconfig:"INKFORGE_STORAGE_DRIVER" default:"local"`
	UploadRoot    string `envconfig:"INKFORGE_STORAGE_UPLOAD_ROOT" default:"uploads"`
	PublicBaseURL string `envconfig:"INKFORGE_STORAGE_PUBLIC_BASE_URL" default:"/uploads"`
	MaxUploadMB   int    `envconfig:"INKFORGE_STORAGE_MAX_UPLOAD_MB" default:"20"`
}

func (s StorageConfig) UseGCS() bool {
	return strings.EqualFold(strings.TrimSpace(s.Driver), "gcs")
}

type GCPConfig struct {
	ProjectID              string `envconfig:"INKFORGE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"INKFORGE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"INKFORGE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"INKFORGE_GCS_BUCKET_NAME"`
}

type PrintFileConfig struct {
	CanvasSize    int           `envconfig:"INKFORGE_PRINT_CANVAS_SIZE" default:"3000"`
	RenderTimeout time.Duration `envconfig:"INKFORGE_PRINT_RENDER_TIMEOUT" default:"30s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
