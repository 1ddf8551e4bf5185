package confhall

import (
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	errors "github.com/goliatone/go-errors"
	"golang.org/x/text/language"
)

// XSRFCookieName is the anti-forgery cookie issued on sign-in. Its value
// is the URL-safe encoding of "email:token" and it never outlives the
// token it represents.
const XSRFCookieName = "XSRF-TOKEN"

// RegisterAuthRoutes mounts the login, sign-up, sign-in and logout
// endpoints. The request gate must always classify these as public.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController) {
	app.Get(controller.Routes.Login, controller.LoginShow)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.SignUp, controller.SignUp)
	app.Get(controller.Routes.SignInLink, controller.SignInLink)
	app.Post(controller.Routes.SignIn, controller.SignIn)
	app.Get(controller.Routes.Logout, controller.Logout)
}

type AuthControllerRoutes struct {
	Login      string
	SignUp     string
	SignIn     string
	SignInLink string
	Logout     string
}

type AuthControllerViews struct {
	Login        string
	Error        string
	Confirmation string
	Creation     string
}

// AuthController orchestrates the login flows against the token issuer,
// the cipher and the store, and renders the user-facing outcomes.
type AuthController struct {
	Logger          Logger
	Store           UserStore
	Issuer          *TokenIssuer
	Crypto          *Cryptographer
	Sessions        *session.Store
	BaseURL         string
	DefaultLanguage string
	AltLanguage     string
	Routes          *AuthControllerRoutes
	Views           *AuthControllerViews

	now func() time.Time
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if logger != nil {
			a.Logger = logger
		}
		return a
	}
}

func WithControllerClock(clock func() time.Time) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if clock != nil {
			a.now = clock
		}
		return a
	}
}

func WithControllerBaseURL(baseURL string) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		a.BaseURL = strings.TrimSuffix(baseURL, "/")
		return a
	}
}

func NewAuthController(store UserStore, issuer *TokenIssuer, crypto *Cryptographer, sessions *session.Store, opts ...AuthControllerOption) *AuthController {
	if store == nil {
		panic("store must be provided")
	}
	if issuer == nil {
		panic("issuer must be provided")
	}
	if crypto == nil {
		panic("crypto must be provided")
	}
	if sessions == nil {
		panic("sessions must be provided")
	}

	c := &AuthController{
		Logger:          defLogger{},
		Store:           store,
		Issuer:          issuer,
		Crypto:          crypto,
		Sessions:        sessions,
		DefaultLanguage: "fr",
		AltLanguage:     "en",
		now:             time.Now,
		Routes: &AuthControllerRoutes{
			Login:      "/login",
			SignUp:     "/signup",
			SignIn:     "/signin",
			SignInLink: "/signin/:email/:token",
			Logout:     "/logout",
		},
		Views: &AuthControllerViews{
			Login:        "login",
			Error:        "login-error",
			Confirmation: "login-confirmation",
			Creation:     "login-creation",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// LoginShow renders the form asking for the visitor's email.
func (a *AuthController) LoginShow(ctx *fiber.Ctx) error {
	return ctx.Render(a.Views.Login, fiber.Map{})
}

// LoginPayload is the login form.
type LoginPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (p LoginPayload) Validate() error {
	if strings.TrimSpace(p.Email) == "" {
		return ErrEmailRequired
	}
	if err := validation.Validate(p.Email, is.Email); err != nil {
		return ErrEmailInvalid
	}
	return nil
}

// LoginPost looks the account up by email. A known account gets a token
// by email and a confirmation view; an unknown one gets the sign-up
// prompt, which is a UX branch, not an error.
func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.renderError(ctx, ErrEmailRequired)
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, err)
	}

	return a.searchUserAndSendToken(ctx, NormalizeEmail(payload.Email))
}

func (a *AuthController) searchUserAndSendToken(ctx *fiber.Ctx, email string) error {
	user, err := a.Store.FindByEmail(ctx.Context(), email)
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.Render(a.Views.Creation, fiber.Map{"email": email})
		}
		a.Logger.Error("login lookup failed", "error", err)
		return a.renderError(ctx, ErrTokenSend)
	}

	if _, err := a.Issuer.Issue(ctx.Context(), email, user, a.requestLocale(ctx)); err != nil {
		return a.renderError(ctx, ErrTokenSend)
	}

	return ctx.Render(a.Views.Confirmation, fiber.Map{"email": email})
}

// SignUpPayload is the account creation form.
type SignUpPayload struct {
	Email     string `form:"email" json:"email"`
	FirstName string `form:"firstname" json:"firstname"`
	LastName  string `form:"lastname" json:"lastname"`
}

// Validate will run validation rules
func (p SignUpPayload) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required),
		validation.Field(&p.FirstName, validation.Required),
		validation.Field(&p.LastName, validation.Required),
	); err != nil {
		return ErrFieldRequired
	}
	if err := validation.Validate(p.Email, is.Email); err != nil {
		return ErrEmailInvalid
	}
	return nil
}

// SignUp creates the account then immediately runs the login flow so the
// new user receives their first token.
func (a *AuthController) SignUp(ctx *fiber.Ctx) error {
	payload := new(SignUpPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.renderError(ctx, ErrFieldRequired)
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, err)
	}

	email := NormalizeEmail(payload.Email)

	if _, err := a.Store.FindByEmail(ctx.Context(), email); err == nil {
		return a.renderError(ctx, ErrEmailTaken)
	} else if !errors.IsNotFound(err) {
		a.Logger.Error("sign-up lookup failed", "error", err)
		return a.renderError(ctx, ErrUserCreation)
	}

	user := &User{
		Login:     LoginForEmail(email),
		FirstName: NormalizeName(payload.FirstName),
		LastName:  NormalizeName(payload.LastName),
		Email:     a.Crypto.Encrypt(email),
		EmailHash: a.Crypto.EmailHash(email),
		PhotoURL:  DefaultPhotoURL,
		Role:      RoleUser,
	}

	if _, err := a.Store.Save(ctx.Context(), user); err != nil {
		a.Logger.Error("sign-up persist failed", "login", user.Login, "error", err)
		return a.renderError(ctx, ErrUserCreation)
	}

	return a.searchUserAndSendToken(ctx, email)
}

// SignInLink handles the link embedded in the token email. It only
// pre-fills the confirmation form with the decoded values; the session
// is opened by SignIn.
func (a *AuthController) SignInLink(ctx *fiber.Ctx) error {
	encoded, err := url.PathUnescape(ctx.Params("email"))
	if err != nil {
		return a.renderError(ctx, ErrSignInRequired)
	}

	email, err := DecodeFromURL(encoded)
	if err != nil {
		return a.renderError(ctx, ErrSignInRequired)
	}

	return ctx.Render(a.Views.Confirmation, fiber.Map{
		"email": email,
		"token": ctx.Params("token"),
	})
}

// SignInPayload is the token submission form.
type SignInPayload struct {
	Email string `form:"email" json:"email"`
	Token string `form:"token" json:"token"`
}

// Validate will run validation rules
func (p SignInPayload) Validate() error {
	if strings.TrimSpace(p.Email) == "" || strings.TrimSpace(p.Token) == "" {
		return ErrSignInRequired
	}
	return nil
}

// SignIn verifies the submitted token against the persisted record and
// opens the session. The email may arrive as a raw address or in its
// encrypted form when the form was pre-filled from the emailed link.
func (a *AuthController) SignIn(ctx *fiber.Ctx) error {
	payload := new(SignInPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return a.renderError(ctx, ErrSignInRequired)
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, err)
	}

	email := payload.Email
	if !strings.Contains(email, "@") {
		decrypted, err := a.Crypto.Decrypt(email)
		if err != nil {
			return a.renderError(ctx, ErrUserNotFound)
		}
		email = decrypted
	}
	email = NormalizeEmail(email)

	token := strings.TrimSpace(payload.Token)

	user, err := a.Store.FindByEmail(ctx.Context(), email)
	if err != nil {
		return a.renderError(ctx, ErrUserNotFound)
	}

	if user.Token != token {
		return a.renderError(ctx, ErrBadToken)
	}

	now := a.now()
	if !user.TokenExpiration.After(now) {
		return a.renderError(ctx, ErrTokenExpired)
	}

	sess, err := a.Sessions.Get(ctx)
	if err != nil {
		a.Logger.Error("session open failed", "error", err)
		return a.renderError(ctx, err)
	}

	sess.Set(SessionKeyEmail, email)
	sess.Set(SessionKeyLogin, user.Login)
	sess.Set(SessionKeyToken, token)
	sess.Set(SessionKeyRole, user.Role)

	if err := sess.Save(); err != nil {
		a.Logger.Error("session save failed", "error", err)
		return a.renderError(ctx, err)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     XSRFCookieName,
		Value:    EncodeForURL(email + ":" + token),
		MaxAge:   int(user.TokenExpiration.Sub(now).Seconds()),
		SameSite: "Lax",
	})

	return ctx.Redirect(a.BaseURL+"/", fiber.StatusSeeOther)
}

// Logout drops the session attributes and returns to the home page.
func (a *AuthController) Logout(ctx *fiber.Ctx) error {
	sess, err := a.Sessions.Get(ctx)
	if err == nil {
		ClearSession(sess)
		if err := sess.Save(); err != nil {
			a.Logger.Error("session save failed", "error", err)
		}
	}

	return ctx.Redirect(a.BaseURL+"/", fiber.StatusTemporaryRedirect)
}

func (a *AuthController) renderError(ctx *fiber.Ctx, err error) error {
	code := TextCodeOf(err)
	if code == "" {
		code = TextCodeSendFailed
	}
	return ctx.Render(a.Views.Error, fiber.Map{"description": code})
}

// requestLocale returns the primary language of the request, restricted
// to the languages the site speaks.
func (a *AuthController) requestLocale(ctx *fiber.Ctx) string {
	tags, _, err := language.ParseAcceptLanguage(ctx.Get(fiber.HeaderAcceptLanguage))
	if err != nil || len(tags) == 0 {
		return a.DefaultLanguage
	}

	base, _ := tags[0].Base()
	if lang := base.String(); lang != a.DefaultLanguage {
		return a.AltLanguage
	}
	return a.DefaultLanguage
}
