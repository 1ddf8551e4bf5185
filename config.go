package confhall

import (
	"os"
	"strings"
	"time"
)

// Config holds the immutable application settings. It is built once at
// startup and passed into constructors; nothing reads ambient state.
type Config struct {
	// BaseURL is the canonical public base URI, without trailing slash.
	BaseURL string
	// LegacyHostSuffix matches the deprecated domain; requests for it
	// are permanently redirected to BaseURL.
	LegacyHostSuffix string

	// DefaultLanguage is the site's primary language.
	DefaultLanguage string
	// AltLanguage is the language served under the /{lang}/ prefix.
	AltLanguage string

	// SecuredPrefixes lists path prefixes requiring any authenticated
	// identity. AdminPrefixes is the staff-only subset.
	SecuredPrefixes []string
	AdminPrefixes   []string

	// CrawlerAgents are user-agent substrings exempt from the locale
	// bootstrap redirect.
	CrawlerAgents []string

	// Secret feeds the credential cipher key derivation.
	Secret string
	// TokenTTL is the entry-token lifetime.
	TokenTTL time.Duration

	Addr     string
	MongoURI string
	MongoDB  string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string
}

// DefaultConfig returns the settings for a local development instance.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "http://localhost:8080",
		LegacyHostSuffix: "confhall-legacy.org",
		DefaultLanguage:  "fr",
		AltLanguage:      "en",
		SecuredPrefixes:  []string{"/me", "/admin"},
		AdminPrefixes:    []string{"/admin"},
		CrawlerAgents:    []string{"Google", "Bingbot", "Qwant", "Slurp", "DuckDuckBot", "Baiduspider"},
		Secret:           "",
		TokenTTL:         DefaultTokenTTL,
		Addr:             ":8080",
		MongoURI:         "mongodb://localhost:27017",
		MongoDB:          "confhall",
		SMTPHost:         "localhost",
		SMTPPort:         "25",
		MailFrom:         "contact@confhall.org",
	}
}

// ConfigFromEnv overlays environment variables on DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.BaseURL, "CONFHALL_BASE_URL")
	setString(&cfg.LegacyHostSuffix, "CONFHALL_LEGACY_HOST")
	setString(&cfg.DefaultLanguage, "CONFHALL_DEFAULT_LANG")
	setString(&cfg.AltLanguage, "CONFHALL_ALT_LANG")
	setList(&cfg.SecuredPrefixes, "CONFHALL_SECURED_PREFIXES")
	setList(&cfg.AdminPrefixes, "CONFHALL_ADMIN_PREFIXES")
	setString(&cfg.Secret, "CONFHALL_SECRET")
	setString(&cfg.Addr, "CONFHALL_ADDR")
	setString(&cfg.MongoURI, "CONFHALL_MONGO_URI")
	setString(&cfg.MongoDB, "CONFHALL_MONGO_DB")
	setString(&cfg.SMTPHost, "CONFHALL_SMTP_HOST")
	setString(&cfg.SMTPPort, "CONFHALL_SMTP_PORT")
	setString(&cfg.SMTPUser, "CONFHALL_SMTP_USER")
	setString(&cfg.SMTPPass, "CONFHALL_SMTP_PASS")
	setString(&cfg.MailFrom, "CONFHALL_MAIL_FROM")

	if ttl := os.Getenv("CONFHALL_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.TokenTTL = d
		}
	}

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
