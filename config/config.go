package config

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"

	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama3-8b-8192"
	DefaultGeminiModel = "gemini-2.0-flash-001"
)

type Config struct {
	Port   string
	AppEnv string
	Debug  bool

	// ExposeErrorDetails echoes upstream and internal error messages to
	// clients. Off in production unless explicitly enabled.
	ExposeErrorDetails bool

	LLMProvider     string
	LLMModel        string
	GroqAPIKey      string
	GroqBaseURL     string
	GeminiAPIKey    string
	UpstreamTimeout time.Duration

	RateLimitEnabled bool
	RateLimitMax     int
	RateLimitWindow  time.Duration

	CORSAllowOrigins []string
	BodyLimit        string

	// TrustedProxies are the reverse proxies allowed to name the client in
	// X-Forwarded-For. Empty means clients are identified by socket address.
	TrustedProxies []*net.IPNet

	SessionSecret []byte
	SessionTTL    time.Duration
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "5000"),
		AppEnv:       strings.ToLower(getEnv("APP_ENV", "development")),
		LLMProvider:  strings.ToLower(getEnv("LLM_PROVIDER", ProviderGroq)),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:  strings.TrimRight(getEnv("GROQ_BASE_URL", DefaultGroqBaseURL), "/"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		BodyLimit:    getEnv("BODY_LIMIT", "1M"),
	}

	var err error
	if cfg.Debug, err = getBool("DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.ExposeErrorDetails, err = getBool("EXPOSE_ERROR_DETAILS", !cfg.IsProduction()); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitEnabled, err = getBool("RATE_LIMIT_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = getInt("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(getEnv("CORS_ALLOW_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, o)
		}
	}

	if cfg.TrustedProxies, err = getIPNets("TRUSTED_PROXIES"); err != nil {
		return nil, err
	}

	if s := os.Getenv("SESSION_SECRET"); s != "" {
		cfg.SessionSecret = []byte(s)
	} else {
		cfg.SessionSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.SessionSecret); err != nil {
			return nil, fmt.Errorf("generating session secret: %w", err)
		}
	}

	switch cfg.LLMProvider {
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY not set")
		}
		cfg.LLMModel = getEnv("LLM_MODEL", DefaultGroqModel)
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set")
		}
		cfg.LLMModel = getEnv("LLM_MODEL", DefaultGeminiModel)
	default:
		return nil, fmt.Errorf("LLM_PROVIDER %q is not supported (use %s or %s)", cfg.LLMProvider, ProviderGroq, ProviderGemini)
	}

	if cfg.RateLimitEnabled && (cfg.RateLimitMax <= 0 || cfg.RateLimitWindow <= 0) {
		return nil, fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}

	return cfg, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", k, v, err)
	}
	return b, nil
}

func getInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", k, v, err)
	}
	return n, nil
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", k, v, err)
	}
	return d, nil
}

// getIPNets parses a comma separated list of CIDRs. A bare address is taken
// as a single-host range.
func getIPNets(k string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, v := range strings.Split(os.Getenv(k), ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			ip := net.ParseIP(v)
			if ip == nil {
				return nil, fmt.Errorf("invalid %s entry %q", k, v)
			}
			bits := 8 * net.IPv6len
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", k, v, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}
