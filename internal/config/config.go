package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Cron      CronConfig      `mapstructure:"cron"`
	Signal    SignalConfig    `mapstructure:"signal"`
	Platforms PlatformsConfig `mapstructure:"platforms"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
	// AllowedOrigins feeds CORS and the websocket origin check. "*" allows
	// any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// RedisConfig backs the cross-instance window lock. Disabled means the
// unique index on signals is the only guard.
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
}

type NATSConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	URL                 string `mapstructure:"url"`
	SignalStream        string `mapstructure:"signal_stream"`
	SignalSubjectPrefix string `mapstructure:"signal_subject_prefix"`
	OutcomeStream       string `mapstructure:"outcome_stream"`
	OutcomeSubject      string `mapstructure:"outcome_subject"`
	OutcomeConsumer     string `mapstructure:"outcome_consumer"`
}

type CronConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Generate  string `mapstructure:"generate"`
	Retention string `mapstructure:"retention"`
}

type SignalConfig struct {
	WindowSize int           `mapstructure:"window_size"`
	TTL        time.Duration `mapstructure:"ttl"`
	// WindowTimezone is used for the hourly dedup window. "Local" keeps the
	// server's zone.
	WindowTimezone string        `mapstructure:"window_timezone"`
	GateTimezone   string        `mapstructure:"gate_timezone"`
	Retention      time.Duration `mapstructure:"retention"`
	RecentLimit    int           `mapstructure:"recent_limit"`
}

// PlatformsConfig names the two venues. EvenHour is live on even hours of
// the gate timezone, OddHour on odd hours.
type PlatformsConfig struct {
	EvenHour string `mapstructure:"even_hour"`
	OddHour  string `mapstructure:"odd_hour"`
}

// Names returns the configured platforms in gate order.
func (p PlatformsConfig) Names() []string {
	out := make([]string, 0, 2)
	if v := strings.TrimSpace(p.EvenHour); v != "" {
		out = append(out, v)
	}
	if v := strings.TrimSpace(p.OddHour); v != "" {
		out = append(out, v)
	}
	return out
}

// Has reports whether name is one of the configured platforms.
func (p PlatformsConfig) Has(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, n := range p.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "aviatorpro:")
	v.SetDefault("redis.lock_ttl", "2m")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.signal_stream", "SIGNALS")
	v.SetDefault("nats.signal_subject_prefix", "signals")
	v.SetDefault("nats.outcome_stream", "OUTCOMES")
	v.SetDefault("nats.outcome_subject", "outcomes.>")
	v.SetDefault("nats.outcome_consumer", "signald-outcomes")

	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.generate", "0 * * * * *")
	v.SetDefault("cron.retention", "@every 1h")

	v.SetDefault("signal.window_size", 200)
	v.SetDefault("signal.ttl", "60m")
	v.SetDefault("signal.window_timezone", "Local")
	v.SetDefault("signal.gate_timezone", "America/Sao_Paulo")
	v.SetDefault("signal.retention", "168h")
	v.SetDefault("signal.recent_limit", 20)

	v.SetDefault("platforms.even_hour", "aviator_a")
	v.SetDefault("platforms.odd_hour", "aviator_b")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadLocation resolves a timezone name; empty and "Local" map to time.Local.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
