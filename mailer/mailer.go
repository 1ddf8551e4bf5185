// Package mailer delivers the entry token emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	errors "github.com/goliatone/go-errors"

	"github.com/confhall/confhall"
)

// tokenEmailTemplate is the body of the "email-token" template. The link
// carries the URL-safe encoding of the address so it survives as a path
// segment.
const tokenEmailTemplate = `<html>
<body>
<p>{{.Greeting}} {{.FirstName}},</p>
<p>{{.Intro}}</p>
<p><strong>{{.Token}}</strong></p>
<p><a href="{{.Link}}">{{.LinkText}}</a></p>
<p>{{.Outro}}</p>
</body>
</html>
`

var tokenEmail = template.Must(template.New("email-token").Parse(tokenEmailTemplate))

type tokenEmailData struct {
	FirstName string
	Token     string
	Link      string
	Greeting  string
	Intro     string
	LinkText  string
	Outro     string
}

// SendFunc matches smtp.SendMail and is injectable for tests.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer implements confhall.Notifier over SMTP. Failures are logged
// with the intended subject and recipient, then returned; no retries.
type Mailer struct {
	addr     string
	username string
	password string
	host     string
	from     string
	baseURL  string
	crypto   *confhall.Cryptographer
	logger   confhall.Logger
	send     SendFunc
}

var _ confhall.Notifier = (*Mailer)(nil)

// Option customizes the mailer.
type Option func(*Mailer)

// WithLogger overrides the fallback logger.
func WithLogger(logger confhall.Logger) Option {
	return func(m *Mailer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSendFunc overrides the SMTP send (useful for tests).
func WithSendFunc(send SendFunc) Option {
	return func(m *Mailer) {
		if send != nil {
			m.send = send
		}
	}
}

// New panics if crypto is nil.
func New(cfg confhall.Config, crypto *confhall.Cryptographer, opts ...Option) *Mailer {
	if crypto == nil {
		panic("crypto must be provided")
	}

	m := &Mailer{
		addr:     cfg.SMTPHost + ":" + cfg.SMTPPort,
		host:     cfg.SMTPHost,
		username: cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     cfg.MailFrom,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		crypto:   crypto,
		logger:   defLogger{},
		send:     smtp.SendMail,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Send renders the named template for the user and dispatches it. The
// recipient address is decrypted from the stored record.
func (m *Mailer) Send(ctx context.Context, templateName, subject string, user *confhall.User, locale string) error {
	if templateName != "email-token" {
		return errors.New("unknown email template", errors.CategoryBadInput).
			WithMetadata(map[string]any{"template": templateName})
	}

	email, err := m.crypto.Decrypt(user.Email)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to decrypt recipient address")
	}

	body := &bytes.Buffer{}
	if err := tokenEmail.Execute(body, m.emailData(user, email, locale)); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to render token email")
	}

	msg := &bytes.Buffer{}
	fmt.Fprintf(msg, "From: %s\r\n", m.from)
	fmt.Fprintf(msg, "To: %s\r\n", email)
	fmt.Fprintf(msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := m.send(m.addr, auth, m.from, []string{email}, msg.Bytes()); err != nil {
		m.logger.Error("email dispatch failed", "subject", subject, "recipient", email, "error", err)
		return errors.Wrap(err, errors.CategoryOperation, "unable to send email")
	}

	return nil
}

func (m *Mailer) emailData(user *confhall.User, email, locale string) tokenEmailData {
	data := tokenEmailData{
		FirstName: user.FirstName,
		Token:     user.Token,
		Link:      m.baseURL + "/signin/" + confhall.EncodeForURL(email) + "/" + user.Token,
		Greeting:  "Hello",
		Intro:     "Here is the code to sign in to the conference website:",
		LinkText:  "Or follow this link to sign in directly.",
		Outro:     "If you did not request a code, you can ignore this email.",
	}

	if strings.HasPrefix(locale, "fr") {
		data.Greeting = "Bonjour"
		data.Intro = "Voici votre code de connexion au site de la conférence :"
		data.LinkText = "Ou suivez ce lien pour vous connecter directement."
		data.Outro = "Si vous n'avez pas demandé de code, vous pouvez ignorer cet email."
	}

	return data
}

type defLogger struct{}

func (defLogger) Debug(format string, args ...any) { fmt.Printf("[DBG] MAILER "+format+"\n", args...) }
func (defLogger) Info(format string, args ...any)  { fmt.Printf("[INF] MAILER "+format+"\n", args...) }
func (defLogger) Error(format string, args ...any) { fmt.Printf("[ERR] MAILER "+format+"\n", args...) }
