package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Drivers de almacenamiento soportados para el ledger.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	Store  StoreConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Feed   FeedConfig
	Engine EngineConfig
	Redis  RedisConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// StoreConfig selecciona el backend del ledger.
type StoreConfig struct {
	Driver     string // memory | postgres | sqlite
	SQLitePath string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT (solo verificación; los tokens se emiten fuera del servicio).
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FeedConfig origen externo de datos (fallback cuando no hay configuración activa en el store).
type FeedConfig struct {
	URL        string
	Username   string
	Password   string
	Timeout    time.Duration
	AllowEmpty bool // si es false un dataset vacío aborta el reemplazo
	ItemKind   string
	// ImportTimeout deadline de una corrida de importación, independiente del disparo que la inició.
	ImportTimeout time.Duration
}

// EngineConfig límites del motor de cálculo.
type EngineConfig struct {
	ReplayTimeout time.Duration // deadline para recorridos completos del ledger
	ReportKind    string        // MasterType de los ítems que entran al reporte de stock
}

// RedisConfig lock distribuido para el reemplazo del ledger. Addr vacío = lock en proceso.
type RedisConfig struct {
	Addr    string
	LockTTL time.Duration
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, STORE_DRIVER, DB_HOST, FEED_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "stock-ledger"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(getString(v, "STORE_DRIVER", StoreMemory)),
			SQLitePath: getString(v, "SQLITE_PATH", "stock-ledger.db"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "stock_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "stock-ledger"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Feed: FeedConfig{
			URL:           getString(v, "FEED_URL", ""),
			Username:      getString(v, "FEED_USERNAME", ""),
			Password:      getString(v, "FEED_PASSWORD", ""),
			Timeout:       time.Duration(getInt(v, "FEED_TIMEOUT_SECONDS", 60)) * time.Second,
			AllowEmpty:    getBool(v, "FEED_ALLOW_EMPTY", false),
			ItemKind:      getString(v, "FEED_ITEM_KIND", "6"),
			ImportTimeout: time.Duration(getInt(v, "IMPORT_TIMEOUT_SECONDS", 300)) * time.Second,
		},
		Engine: EngineConfig{
			ReplayTimeout: time.Duration(getInt(v, "REPLAY_TIMEOUT_SECONDS", 30)) * time.Second,
			ReportKind:    getString(v, "REPORT_ITEM_KIND", "6"),
		},
		Redis: RedisConfig{
			Addr:    getString(v, "REDIS_ADDR", ""),
			LockTTL: time.Duration(getInt(v, "IMPORT_LOCK_TTL_SECONDS", 300)) * time.Second,
		},
	}

	switch cfg.Store.Driver {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.Store.Driver)
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
