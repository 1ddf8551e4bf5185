package webgate

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/confhall/confhall"
)

// Gate applies the decision machine to live requests. Identity is
// re-resolved on every pass; the session is only an advisory cache.
type Gate struct {
	cfg      Config
	resolver *confhall.SessionResolver
	sessions *session.Store
	logger   confhall.Logger
}

// GateOption customizes the middleware.
type GateOption func(*Gate)

// WithGateLogger overrides the fallback logger.
func WithGateLogger(logger confhall.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New panics if resolver or sessions are nil.
func New(cfg Config, resolver *confhall.SessionResolver, sessions *session.Store, opts ...GateOption) *Gate {
	if resolver == nil {
		panic("resolver must be provided")
	}
	if sessions == nil {
		panic("sessions must be provided")
	}

	g := &Gate{
		cfg:      cfg,
		resolver: resolver,
		sessions: sessions,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Handler returns the fiber middleware. It produces exactly one of a
// redirect response or a rewritten forwarded request.
func (g *Gate) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := confhall.SessionState{}

		sess, err := g.sessions.Get(c)
		if err != nil {
			g.logger.Error("session open failed, treating request as anonymous", "error", err)
			sess = nil
		} else {
			state = confhall.SnapshotSession(sess)
		}

		user, err := g.resolver.Resolve(c.Context(), state)
		if err != nil {
			// A store failure downgrades the request to anonymous; it
			// must never abort the pipeline.
			g.logger.Error("identity resolution failed", "error", err)
			user = nil
		}

		req := Request{
			Host:           c.Hostname(),
			Path:           c.Path(),
			AcceptLanguage: c.Get(fiber.HeaderAcceptLanguage),
			UserAgent:      c.Get(fiber.HeaderUserAgent),
		}

		decision := Evaluate(g.cfg, req, Session{LocaleRedirected: state.LocaleRedirected}, user)

		if decision.MarkLocaleRedirected && sess != nil {
			sess.Set(confhall.SessionKeyLocaleRedirect, true)
			if err := sess.Save(); err != nil {
				g.logger.Error("session save failed", "error", err)
			}
		}

		if r := decision.Redirect; r != nil {
			return c.Redirect(r.Location, r.Status)
		}

		f := decision.Forward
		if f.Path != c.Path() {
			c.Path(f.Path)
		}
		if f.AcceptLanguage != "" {
			c.Request().Header.Set(fiber.HeaderAcceptLanguage, f.AcceptLanguage)
		}
		c.Set(fiber.HeaderContentLanguage, f.ContentLanguage)

		return c.Next()
	}
}

type defLogger struct{}

func (defLogger) Debug(format string, args ...any) { fmt.Printf("[DBG] GATE "+format+"\n", args...) }
func (defLogger) Info(format string, args ...any)  { fmt.Printf("[INF] GATE "+format+"\n", args...) }
func (defLogger) Error(format string, args ...any) { fmt.Printf("[ERR] GATE "+format+"\n", args...) }
