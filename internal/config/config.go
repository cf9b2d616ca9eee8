package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env                       string `validate:"required"`
	Port                      string `validate:"required,numeric"`
	ReadTimeout, WriteTimeout time.Duration
	LogLevel                  string `validate:"oneof=debug info warn error"`
	LogFormat                 string `validate:"oneof=json text"`

	AllowedIPs    []string `validate:"dive,ip"`
	AllowlistFile string
	DenyPolicy    string   `validate:"oneof=redirect block"`
	RedirectURL   string   `validate:"required,url"`
	DebugPath     string   `validate:"omitempty,startswith=/"`
	UseRemoteAddr bool
	SkipPrefixes  []string `validate:"dive,startswith=/"`
	SkipExts      []string
	BlockPageFile string

	UpstreamURL string `validate:"omitempty,url"`
	StaticDir   string

	DBDsn         string
	DBTimeout     time.Duration
	MigrationsDir string
	AuditBuffer   int `validate:"gte=1"`

	JWTKeys       string
	JWTCurrentKID string
	JWTSecret     []byte

	MetricsAllowCIDR string  `validate:"omitempty,cidr"`
	RateRPS          float64 `validate:"gt=0"`
	RateBurst        int     `validate:"gte=1"`

	OTELEndpoint string
	OTELSample   float64 `validate:"gte=0,lte=1"`
}

// -------- helpers --------
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
// lookup keeps an explicitly empty value; only an unset key gets def.
func lookup(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}
func mustDur(k, def string) time.Duration {
	v := getenv(k, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(k + ": invalid duration " + v)
	}
	return d
}
func mustInt(k, def string) int {
	v := getenv(k, def)
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(k + ": invalid int " + v)
	}
	return n
}
func mustFloat(k, def string) float64 {
	v := getenv(k, def)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		panic(k + ": invalid float " + v)
	}
	return f
}
func mustBool(k, def string) bool {
	v := getenv(k, def)
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(k + ": invalid bool " + v)
	}
	return b
}
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mysqlDSNFromEnv builds a DSN from DB_* when DB_DSN is unset. Without
// either the audit trail is disabled.
func mysqlDSNFromEnv() string {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return dsn
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	port := getenv("DB_PORT", "3306")
	name := getenv("DB_DATABASE", "ipgate")
	user := getenv("DB_USERNAME", "ipgate")
	pass := getenv("DB_PASSWORD", "ipgate")
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4",
		user, pass, host, port, name)
}

func Load() Config {
	return Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         getenv("APP_PORT", "8080"),
		ReadTimeout:  mustDur("APP_READ_TIMEOUT", "5s"),
		WriteTimeout: mustDur("APP_WRITE_TIMEOUT", "30s"),
		LogLevel:     strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(getenv("LOG_FORMAT", "json")),

		AllowedIPs:    splitCSV(lookup("GATE_ALLOWED_IPS", "66.211.23.74")),
		AllowlistFile: os.Getenv("GATE_ALLOWLIST_FILE"),
		DenyPolicy:    strings.ToLower(getenv("GATE_DENY_POLICY", "redirect")),
		RedirectURL:   getenv("GATE_REDIRECT_URL", "https://www.muletown.law/estate-planning"),
		DebugPath:     getenv("GATE_DEBUG_PATH", "/debug-ip.html"),
		UseRemoteAddr: mustBool("GATE_USE_REMOTE_ADDR", "true"),
		SkipPrefixes:  splitCSV(os.Getenv("GATE_SKIP_PREFIXES")),
		SkipExts:      splitCSV(os.Getenv("GATE_SKIP_EXTS")),
		BlockPageFile: os.Getenv("GATE_BLOCK_PAGE"),

		UpstreamURL: os.Getenv("UPSTREAM_URL"),
		StaticDir:   getenv("STATIC_DIR", "./public"),

		DBDsn:         mysqlDSNFromEnv(),
		DBTimeout:     mustDur("DB_TIMEOUT", "3s"),
		MigrationsDir: getenv("MIGRATIONS_DIR", "migrations"),
		AuditBuffer:   mustInt("AUDIT_BUFFER", "256"),

		JWTKeys:       os.Getenv("JWT_KEYS"),
		JWTCurrentKID: os.Getenv("JWT_CURRENT_KID"),
		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),

		MetricsAllowCIDR: getenv("METRICS_ALLOW", "127.0.0.1/32"),
		RateRPS:          mustFloat("RATE_RPS", "5"),
		RateBurst:        mustInt("RATE_BURST", "10"),

		OTELEndpoint: os.Getenv("OTEL_ENDPOINT"),
		OTELSample:   mustFloat("OTEL_SAMPLE", "0"),
	}
}

var validate = validator.New()

// Validate checks field constraints after Load and any file merges.
func (c Config) Validate() error {
	return validate.Struct(c)
}

type allowlistFile struct {
	AllowedIPs []string `yaml:"allowed_ips"`
}

// MergeAllowlistFile appends the addresses listed in AllowlistFile, if set.
func (c *Config) MergeAllowlistFile() error {
	if c.AllowlistFile == "" {
		return nil
	}
	b, err := os.ReadFile(c.AllowlistFile)
	if err != nil {
		return fmt.Errorf("allowlist file: %w", err)
	}
	var f allowlistFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("allowlist file %s: %w", c.AllowlistFile, err)
	}
	for _, ip := range f.AllowedIPs {
		if ip = strings.TrimSpace(ip); ip != "" {
			c.AllowedIPs = append(c.AllowedIPs, ip)
		}
	}
	return nil
}

func (c Config) AuditEnabled() bool { return c.DBDsn != "" }
