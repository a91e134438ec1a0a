package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Printing     PrintingConfig
	Catalog      CatalogConfig
	Idempotency  IdempotencyConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Printing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"KIMIPOS_APP_ENV" required:"true"`
	Port         string   `envconfig:"KIMIPOS_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"KIMIPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"KIMIPOS_LOG_WARN_STACK" default:"false"`
	// TerminalName is printed in ticket headers.
	TerminalName string   `envconfig:"KIMIPOS_TERMINAL_NAME" default:"TPV"`
	CORSOrigins  []string `envconfig:"KIMIPOS_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"KIMIPOS_DB_DSN"`
	Driver     string `envconfig:"KIMIPOS_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"KIMIPOS_SQLITE_PATH" default:"kimipos.db"`

	LegacyHost     string `envconfig:"KIMIPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"KIMIPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KIMIPOS_DB_USER"`
	LegacyPassword string `envconfig:"KIMIPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"KIMIPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"KIMIPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KIMIPOS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"KIMIPOS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"KIMIPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KIMIPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KIMIPOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KIMIPOS_REDIS_ADDR"`
	Password     string        `envconfig:"KIMIPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"KIMIPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KIMIPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KIMIPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KIMIPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KIMIPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KIMIPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PrintingConfig struct {
	Mode       string        `envconfig:"KIMIPOS_PRINT_MODE" default:"gateway"`
	GatewayURL string        `envconfig:"KIMIPOS_PRINT_GATEWAY_URL" default:"http://localhost:3001"`
	Timeout    time.Duration `envconfig:"KIMIPOS_PRINT_TIMEOUT" default:"30s"`
	CharWidth  int           `envconfig:"KIMIPOS_PRINT_CHAR_WIDTH" default:"42"`
	Addresses  AddressMap    `envconfig:"KIMIPOS_PRINT_ADDRESSES"`
}

// AddressMap maps destination names to host:port for the network print mode.
// It decodes "Cocina=192.168.1.50:9100,Barra=192.168.1.51:9100".
type AddressMap map[string]string

func (m *AddressMap) Decode(value string) error {
	out := AddressMap{}
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, addr, ok := strings.Cut(pair, "=")
		name, addr = strings.TrimSpace(name), strings.TrimSpace(addr)
		if !ok || name == "" || addr == "" {
			return fmt.Errorf("invalid printer address %q", pair)
		}
		out[name] = addr
	}
	*m = out
	return nil
}

func (p PrintingConfig) validate() error {
	switch strings.ToLower(p.Mode) {
	case PrintModeGateway, PrintModeESCPOS:
		if p.GatewayURL == "" {
			return fmt.Errorf("%s is required for print mode %q", EnvPrintGatewayURL, p.Mode)
		}
	case PrintModeNetwork:
		if len(p.Addresses) == 0 {
			return fmt.Errorf("%s is required for print mode %q", EnvPrintAddresses, p.Mode)
		}
	case PrintModeNone:
	default:
		return fmt.Errorf("unsupported %s %q", EnvPrintMode, p.Mode)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvPrintTimeout)
	}
	return nil
}

type CatalogConfig struct {
	PrinterCacheTTL time.Duration `envconfig:"KIMIPOS_CATALOG_PRINTER_CACHE_TTL" default:"5m"`
}

type IdempotencyConfig struct {
	CommitTTL  time.Duration `envconfig:"KIMIPOS_IDEMPOTENCY_COMMIT_TTL" default:"10m"`
	PaymentTTL time.Duration `envconfig:"KIMIPOS_IDEMPOTENCY_PAYMENT_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KIMIPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KIMIPOS_AUTO_MIGRATE" default:"false"`
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
