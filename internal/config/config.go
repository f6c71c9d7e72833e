package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App         App         `yaml:"app"`
	HTTP        HTTP        `yaml:"http"`
	Log         Log         `yaml:"log"`
	Postgres    Postgres    `yaml:"postgres"`
	Redis       Redis       `yaml:"redis"`
	Kafka       Kafka       `yaml:"kafka"`
	CaseSystems CaseSystems `yaml:"case_systems"`
	Routing     Routing     `yaml:"routing"`
	Relay       Relay       `yaml:"relay"`
	Retention   Retention   `yaml:"retention"`
}

type App struct {
	Name    string `yaml:"name" env:"APP_NAME" env-default:"intake"`
	Version string `yaml:"version" env:"APP_VERSION" env-default:"1.0.0"`
}

type HTTP struct {
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"user"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-default:"intake"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
	MaxConns int32  `yaml:"max_conns" env:"POSTGRES_MAX_CONNS" env-default:"10"`
	Migrate  bool   `yaml:"migrate" env:"POSTGRES_MIGRATE" env-default:"true"`
}

type Redis struct {
	Enabled   bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"true"`
	Addr      string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password  string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	LedgerTTL time.Duration `yaml:"ledger_ttl" env:"REDIS_LEDGER_TTL" env-default:"24h"`
}

type Kafka struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	StartOffset string   `yaml:"start_offset" env:"KAFKA_START_OFFSET" env-default:"earliest"`

	LifeEventTopic               string `yaml:"life_event_topic" env:"KAFKA_LIFE_EVENT_TOPIC" env-default:"pdl.leesah-v1"`
	LifeEventGroupID             string `yaml:"life_event_group_id" env:"KAFKA_LIFE_EVENT_GROUP_ID" env-default:"intake-life-events"`
	DocumentTopic                string `yaml:"document_topic" env:"KAFKA_DOCUMENT_TOPIC" env-default:"teamdokumenthandtering.aapen-dok-journalfoering"`
	DocumentGroupID              string `yaml:"document_group_id" env:"KAFKA_DOCUMENT_GROUP_ID" env-default:"intake-documents"`
	PartnerDecisionTopic         string `yaml:"partner_decision_topic" env:"KAFKA_PARTNER_DECISION_TOPIC" env-default:"teamfamilie.aapen-ensligforsorger-iverksatt-vedtak"`
	PartnerDecisionGroupID       string `yaml:"partner_decision_group_id" env:"KAFKA_PARTNER_DECISION_GROUP_ID" env-default:"intake-partner-decisions"`
	LegacyPartnerDecisionTopic   string `yaml:"legacy_partner_decision_topic" env:"KAFKA_LEGACY_PARTNER_DECISION_TOPIC" env-default:"teamfamilie.aapen-ef-vedtakhendelse-infotrygd"`
	LegacyPartnerDecisionGroupID string `yaml:"legacy_partner_decision_group_id" env:"KAFKA_LEGACY_PARTNER_DECISION_GROUP_ID" env-default:"intake-legacy-partner-decisions"`

	DeadLetterTopic string `yaml:"dead_letter_topic" env:"KAFKA_DEAD_LETTER_TOPIC" env-default:"intake.dead-letter"`
	WorkItemTopic   string `yaml:"work_item_topic" env:"KAFKA_WORK_ITEM_TOPIC" env-default:"intake.work-items"`

	RetryInitialBackoff time.Duration `yaml:"retry_initial_backoff" env:"KAFKA_RETRY_INITIAL_BACKOFF" env-default:"2s"`
	RetryMaxBackoff     time.Duration `yaml:"retry_max_backoff" env:"KAFKA_RETRY_MAX_BACKOFF" env-default:"1m"`
}

type CaseSystems struct {
	ModernURL   string        `yaml:"modern_url" env:"CASE_MODERN_URL" env-default:"http://localhost:8089"`
	LegacyURL   string        `yaml:"legacy_url" env:"CASE_LEGACY_URL" env-default:"http://localhost:8090"`
	DocumentURL string        `yaml:"document_url" env:"CASE_DOCUMENT_URL" env-default:"http://localhost:8091"`
	Timeout     time.Duration `yaml:"timeout" env:"CASE_TIMEOUT" env-default:"10s"`
	Attempts    int           `yaml:"attempts" env:"CASE_ATTEMPTS" env-default:"3"`
	Backoff     time.Duration `yaml:"backoff" env:"CASE_BACKOFF" env-default:"500ms"`
}

type Routing struct {
	LifeEventDelay      time.Duration `yaml:"life_event_delay" env:"ROUTING_LIFE_EVENT_DELAY" env-default:"1h"`
	BirthAgeLimitMonths int           `yaml:"birth_age_limit_months" env:"ROUTING_BIRTH_AGE_LIMIT_MONTHS" env-default:"6"`
	HomeCountry         string        `yaml:"home_country" env:"ROUTING_HOME_COUNTRY" env-default:"NOR"`
	TimeZone            string        `yaml:"time_zone" env:"ROUTING_TIME_ZONE" env-default:"Europe/Oslo"`
	MigrationCutover    string        `yaml:"migration_cutover" env:"ROUTING_MIGRATION_CUTOVER" env-default:"2020-01-01"`
}

// Cutover parses the legacy migration cut-over date.
func (r Routing) Cutover() (time.Time, error) {
	t, err := time.Parse("2006-01-02", r.MigrationCutover)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse migration cutover: %w", err)
	}
	return t, nil
}

// Location loads the home-country zone that calendar dates are read in.
func (r Routing) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone: %w", err)
	}
	return loc, nil
}

type Relay struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"RELAY_POLL_INTERVAL" env-default:"2s"`
	BatchSize    int           `yaml:"batch_size" env:"RELAY_BATCH_SIZE" env-default:"10"`
}

type Retention struct {
	LedgerWindow time.Duration `yaml:"ledger_window" env:"RETENTION_LEDGER_WINDOW" env-default:"1440h"`
}

func New() (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// fallback to env vars if file not found
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
