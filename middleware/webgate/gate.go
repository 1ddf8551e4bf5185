// Package webgate is the filter every request passes through before it
// reaches a page handler. It canonicalizes the legacy domain, negotiates
// the language, classifies the path against the secured route sets and
// either redirects or forwards a rewritten request.
package webgate

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"

	"github.com/confhall/confhall"
)

// Request is the immutable per-request input to Evaluate.
type Request struct {
	Host           string
	Path           string
	AcceptLanguage string
	UserAgent      string
}

// Redirect is a terminal decision short-circuiting the pipeline.
type Redirect struct {
	Location string
	Status   int
}

// Forward carries the rewritten request for the next stage.
type Forward struct {
	Path            string
	ContentLanguage string
	// AcceptLanguage, when set, replaces the inbound header so that a
	// visitor who already declined the localized root keeps browsing in
	// the default language without looping on the redirect.
	AcceptLanguage string
}

// Decision is the tagged outcome of the gate: exactly one of Redirect
// or Forward is set.
type Decision struct {
	Redirect *Redirect
	Forward  *Forward

	// MarkLocaleRedirected asks the adapter to set the one-shot session
	// flag before responding.
	MarkLocaleRedirected bool
}

// Config is the static route classification and language setup consulted
// by the gate.
type Config struct {
	BaseURL          string
	LegacyHostSuffix string
	DefaultLanguage  string
	AltLanguage      string
	SecuredPrefixes  []string
	AdminPrefixes    []string
	CrawlerAgents    []string
	LoginPath        string
}

// FromAppConfig maps the application configuration onto the gate's.
func FromAppConfig(cfg confhall.Config) Config {
	return Config{
		BaseURL:          strings.TrimSuffix(cfg.BaseURL, "/"),
		LegacyHostSuffix: cfg.LegacyHostSuffix,
		DefaultLanguage:  cfg.DefaultLanguage,
		AltLanguage:      cfg.AltLanguage,
		SecuredPrefixes:  cfg.SecuredPrefixes,
		AdminPrefixes:    cfg.AdminPrefixes,
		CrawlerAgents:    cfg.CrawlerAgents,
		LoginPath:        "/login",
	}
}

// Session is the slice of session state the gate reads.
type Session struct {
	LocaleRedirected bool
}

// Evaluate runs the gate states in order. Each state either terminates
// with a decision or advances; no state is revisited.
func Evaluate(cfg Config, req Request, sess Session, user *confhall.User) Decision {
	// 1. Domain canonicalization: the deprecated domain is permanently
	// redirected before anything else runs.
	if cfg.LegacyHostSuffix != "" && strings.HasSuffix(hostname(req.Host), cfg.LegacyHostSuffix) {
		return Decision{Redirect: &Redirect{
			Location: cfg.BaseURL + req.Path,
			Status:   fiber.StatusPermanentRedirect,
		}}
	}

	// 2. Locale bootstrap, offered once per session on the root page.
	if req.Path == "/" && primaryLanguage(req.AcceptLanguage, cfg.DefaultLanguage) != cfg.DefaultLanguage && !isCrawler(cfg, req.UserAgent) {
		if sess.LocaleRedirected {
			return Decision{Forward: &Forward{
				Path:            "/",
				ContentLanguage: cfg.DefaultLanguage,
				AcceptLanguage:  cfg.DefaultLanguage,
			}}
		}
		return Decision{
			Redirect: &Redirect{
				Location: cfg.BaseURL + "/" + cfg.AltLanguage + "/",
				Status:   fiber.StatusTemporaryRedirect,
			},
			MarkLocaleRedirected: true,
		}
	}

	// 3. Language path stripping.
	path := req.Path
	contentLanguage := cfg.DefaultLanguage
	if marker := "/" + cfg.AltLanguage + "/"; strings.HasPrefix(path, marker) {
		path = path[len(marker)-1:]
		contentLanguage = cfg.AltLanguage
	}

	// 4. Authorization against the secured/admin prefix sets.
	if startsWithAny(path, cfg.SecuredPrefixes) || startsWithAny(path, cfg.AdminPrefixes) {
		if user == nil {
			return Decision{Redirect: &Redirect{
				Location: cfg.BaseURL + cfg.LoginPath,
				Status:   fiber.StatusTemporaryRedirect,
			}}
		}

		// Denied admin access looks exactly like a generic login
		// redirect so the path's existence is not leaked.
		if startsWithAny(path, cfg.AdminPrefixes) && user.Role != confhall.RoleStaff {
			return Decision{Redirect: &Redirect{
				Location: cfg.BaseURL + "/",
				Status:   fiber.StatusTemporaryRedirect,
			}}
		}
	}

	return Decision{Forward: &Forward{
		Path:            path,
		ContentLanguage: contentLanguage,
	}}
}

func hostname(host string) string {
	if i := strings.LastIndex(host, ":"); i >= 0 {
		return host[:i]
	}
	return host
}

func primaryLanguage(acceptLanguage, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	base, _ := tags[0].Base()
	return base.String()
}

func isCrawler(cfg Config, userAgent string) bool {
	for _, bot := range cfg.CrawlerAgents {
		if strings.Contains(userAgent, bot) {
			return true
		}
	}
	return false
}

func startsWithAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
