package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/django/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/confhall/confhall"
	"github.com/confhall/confhall/mailer"
	"github.com/confhall/confhall/middleware/webgate"
	"github.com/confhall/confhall/repository"
)

func main() {
	cfg := confhall.ConfigFromEnv()
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	logger := slogLogger{l: log}

	if cfg.Secret == "" {
		log.Error("CONFHALL_SECRET must be set")
		os.Exit(1)
	}

	crypto, err := confhall.NewCryptographer(cfg.Secret)
	if err != nil {
		log.Error("cipher bootstrap failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Error("mongo connect failed", "uri", cfg.MongoURI, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	users := repository.NewUsers(client, cfg.MongoDB, crypto)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Error("users index creation failed", "error", err)
	}

	notifier := mailer.New(cfg, crypto, mailer.WithLogger(logger))

	issuer := confhall.NewTokenIssuer(users, notifier, crypto,
		confhall.WithTokenTTL(cfg.TokenTTL),
		confhall.WithIssuerLogger(logger),
	)
	resolver := confhall.NewSessionResolver(users, confhall.WithResolverLogger(logger))

	sessions := session.New()

	engine := django.New("./views", ".html")
	app := fiber.New(fiber.Config{Views: engine})

	gate := webgate.New(webgate.FromAppConfig(cfg), resolver, sessions, webgate.WithGateLogger(logger))
	app.Use(gate.Handler())

	controller := confhall.NewAuthController(users, issuer, crypto, sessions,
		confhall.WithControllerBaseURL(cfg.BaseURL),
		confhall.WithControllerLogger(logger),
	)
	controller.DefaultLanguage = cfg.DefaultLanguage
	controller.AltLanguage = cfg.AltLanguage
	confhall.RegisterAuthRoutes(app, controller)

	// Page rendering is an external concern; these routes exist so the
	// gate has public, secured and staff-only paths to guard.
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Render("home", fiber.Map{})
	})
	app.Get("/archives", func(c *fiber.Ctx) error {
		return c.Render("archives", fiber.Map{})
	})
	app.Get("/me", func(c *fiber.Ctx) error {
		sess, err := sessions.Get(c)
		if err != nil {
			return c.Redirect(cfg.BaseURL+"/login", fiber.StatusTemporaryRedirect)
		}
		state := confhall.SnapshotSession(sess)
		return c.Render("me", fiber.Map{"login": state.Login, "email": state.Email})
	})
	app.Get("/admin", func(c *fiber.Ctx) error {
		return c.Render("admin", fiber.Map{})
	})

	log.Info("server listening", "addr", cfg.Addr, "base_url", cfg.BaseURL)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// slogLogger adapts slog to the confhall.Logger interface.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
