package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// Logging selects the slog handler.
type Logging struct {
	Level  string
	Format string
}

// Zones points at the operator-authored restricted zone catalog.
// An empty File selects the embedded default catalog.
type Zones struct {
	File string
}

// Alerts configures the panic broadcaster and its observer stream.
type Alerts struct {
	SubscriberBuffer int
	StreamSecret     string
	StreamIssuer     string
	StreamAudience   string
	RedisChannel     string
}

// RedisConfig configures the optional cross-instance alert relay.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Ledger configures the registrar and its chain adapter. An empty RPCURL
// disables on-chain anchoring; registrations then always fall back.
type Ledger struct {
	RPCURL           string
	PrivateKey       string
	ContractAddress  string
	ChainID          int64
	FeeMultiplier    float64
	Sequencing       bool
	Timeout          time.Duration
	MaxAttempts      int
	BreakerThreshold int
	BreakerCooldown  time.Duration
	ExplorerURL      string
}

// Proof selects the itinerary digest construction.
type Proof struct {
	Encoding  string
	Algorithm string
}

// Config is the full process configuration.
type Config struct {
	Server  Server
	Logging Logging
	Zones   Zones
	Alerts  Alerts
	Redis   RedisConfig
	Ledger  Ledger
	Proof   Proof
}

// maxFeeMultiplier mirrors registrar.MaxFeeMultiplier.
const maxFeeMultiplier = 100.0

// ServiceName is reported by the health endpoint and in logs.
const ServiceName = "tourguard"

// FromEnv builds the configuration from environment variables so main stays
// lean. Malformed numeric or duration values are reported together.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	p := parser{lookup: lookup}

	addr := p.str("TOURGUARD_ADDR", "")
	if addr == "" {
		addr = ":" + p.str("PORT", "3000")
	}

	cfg := Config{
		Server: Server{
			Addr:               addr,
			CORSAllowedOrigins: p.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
			ShutdownTimeout:    p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logging: Logging{
			Level:  p.str("LOG_LEVEL", "info"),
			Format: p.str("LOG_FORMAT", "json"),
		},
		Zones: Zones{
			File: p.str("ZONES_FILE", ""),
		},
		Alerts: Alerts{
			SubscriberBuffer: p.integer("ALERT_SUBSCRIBER_BUFFER", 16),
			StreamSecret:     p.str("ALERT_STREAM_SECRET", ""),
			StreamIssuer:     p.str("ALERT_STREAM_ISSUER", ServiceName),
			StreamAudience:   p.str("ALERT_STREAM_AUDIENCE", "alert-stream"),
			RedisChannel:     p.str("ALERT_REDIS_CHANNEL", "tourguard:alerts"),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 1),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Ledger: Ledger{
			RPCURL:           p.str("LEDGER_RPC_URL", ""),
			PrivateKey:       p.str("LEDGER_PRIVATE_KEY", ""),
			ContractAddress:  p.str("LEDGER_CONTRACT_ADDRESS", ""),
			ChainID:          int64(p.integer("LEDGER_CHAIN_ID", 0)),
			FeeMultiplier:    p.float("LEDGER_FEE_MULTIPLIER", 2.0),
			Sequencing:       p.boolean("LEDGER_SEQUENCING", true),
			Timeout:          p.duration("LEDGER_TIMEOUT", 15*time.Second),
			MaxAttempts:      p.integer("LEDGER_MAX_ATTEMPTS", 1),
			BreakerThreshold: p.integer("LEDGER_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  p.duration("LEDGER_BREAKER_COOLDOWN", 30*time.Second),
			ExplorerURL:      p.str("LEDGER_EXPLORER_URL", ""),
		},
		Proof: Proof{
			Encoding:  p.str("PROOF_ENCODING", "length-prefixed"),
			Algorithm: p.str("PROOF_ALGORITHM", "sha256"),
		},
	}

	if err := cfg.validate(); err != nil {
		p.errs = append(p.errs, err)
	}
	if len(p.errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(p.errs...))
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Alerts.SubscriberBuffer <= 0 {
		errs = append(errs, errors.New("ALERT_SUBSCRIBER_BUFFER must be positive"))
	}
	if !(c.Ledger.FeeMultiplier >= 1 && c.Ledger.FeeMultiplier <= maxFeeMultiplier) {
		errs = append(errs, fmt.Errorf("LEDGER_FEE_MULTIPLIER must be between 1 and %v", maxFeeMultiplier))
	}
	if c.Ledger.Timeout <= 0 {
		errs = append(errs, errors.New("LEDGER_TIMEOUT must be positive"))
	}
	if c.Ledger.MaxAttempts < 1 {
		errs = append(errs, errors.New("LEDGER_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Ledger.RPCURL != "" {
		if c.Ledger.PrivateKey == "" {
			errs = append(errs, errors.New("LEDGER_PRIVATE_KEY is required when LEDGER_RPC_URL is set"))
		}
		if c.Ledger.ContractAddress == "" {
			errs = append(errs, errors.New("LEDGER_CONTRACT_ADDRESS is required when LEDGER_RPC_URL is set"))
		}
	}
	if c.Ledger.ExplorerURL != "" && !strings.Contains(c.Ledger.ExplorerURL, "%s") {
		errs = append(errs, errors.New("LEDGER_EXPLORER_URL must contain %s for the transaction hash"))
	}
	return errors.Join(errs...)
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) list(key string, def []string) []string {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (p *parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) float(key string, def float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) boolean(key string, def bool) bool {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}
