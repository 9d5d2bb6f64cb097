package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Accounts AccountsConfig
	Jobs     JobsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	Store    string // postgres | memory
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
	MaxConns    int
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

// JWTConfig configuración de JWT.
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

// RedisConfig conexión a Redis (canal de notificaciones y locks de jobs). Addr vacío = deshabilitado.
type RedisConfig struct {
	Addr               string
	Password           string
	DB                 int
	NotificationStream string
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// LedgerConfig parámetros de negocio de los libros.
type LedgerConfig struct {
	BalanceTolerance  decimal.Decimal // tolerancia debe/haber de un asiento
	BackdateAuditDays int             // asientos con fecha anterior a N días se marcan para auditoría
	NearExpiryDays    int             // umbral de "próximo a vencer" de un lote
}

// AccountsConfig códigos contables para los asientos automáticos. Vacíos = no se generan asientos.
type AccountsConfig struct {
	Receivable string
	Payable    string
	Revenue    string
	Cash       string
	Inventory  string
}

// Enabled indica si los asientos automáticos están configurados.
func (c AccountsConfig) Enabled() bool {
	return c.Receivable != "" && c.Payable != "" && c.Revenue != "" && c.Cash != "" && c.Inventory != ""
}

// JobsConfig intervalos de los procesos en segundo plano (minutos / segundos).
type JobsConfig struct {
	AgingSweepMinutes  int
	ExpirySweepMinutes int
	OutboxRelaySeconds int
	OutboxBatchSize    int
	LockTTLSeconds     int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, REDIS_ADDR, LEDGER_BALANCE_TOLERANCE, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	tolerance, err := decimal.NewFromString(getString(v, "LEDGER_BALANCE_TOLERANCE", "0.01"))
	if err != nil {
		return nil, fmt.Errorf("LEDGER_BALANCE_TOLERANCE inválido: %w", err)
	}
	if tolerance.IsNegative() {
		return nil, fmt.Errorf("LEDGER_BALANCE_TOLERANCE no puede ser negativo")
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "inventario-ledger"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Store:    getString(v, "STORE_DRIVER", "postgres"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "inventario_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "inventario-ledger"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			Addr:               getString(v, "REDIS_ADDR", ""),
			Password:           getString(v, "REDIS_PASSWORD", ""),
			DB:                 getInt(v, "REDIS_DB", 0),
			NotificationStream: getString(v, "NOTIFICATION_STREAM", "ledger:notifications"),
		},
		Ledger: LedgerConfig{
			BalanceTolerance:  tolerance,
			BackdateAuditDays: getInt(v, "LEDGER_BACKDATE_AUDIT_DAYS", 7),
			NearExpiryDays:    getInt(v, "INVENTORY_NEAR_EXPIRY_DAYS", 90),
		},
		Accounts: AccountsConfig{
			Receivable: getString(v, "ACCOUNT_RECEIVABLE", ""),
			Payable:    getString(v, "ACCOUNT_PAYABLE", ""),
			Revenue:    getString(v, "ACCOUNT_REVENUE", ""),
			Cash:       getString(v, "ACCOUNT_CASH", ""),
			Inventory:  getString(v, "ACCOUNT_INVENTORY", ""),
		},
		Jobs: JobsConfig{
			AgingSweepMinutes:  getInt(v, "AGING_SWEEP_MINUTES", 60),
			ExpirySweepMinutes: getInt(v, "EXPIRY_SWEEP_MINUTES", 60),
			OutboxRelaySeconds: getInt(v, "OUTBOX_RELAY_SECONDS", 5),
			OutboxBatchSize:    getInt(v, "OUTBOX_BATCH_SIZE", 100),
			LockTTLSeconds:     getInt(v, "JOB_LOCK_TTL_SECONDS", 120),
		},
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
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
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
