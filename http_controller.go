package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// GetRouterSession pulls the session record that ProtectedRoute stored in
// the request Locals.
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	value := c.Locals(key)
	if value == nil {
		return nil, ErrUnableToFindSession
	}

	session, ok := value.(*SessionObject)
	if session == nil || !ok {
		return nil, ErrUnableToParseData
	}

	return session, nil
}

// RegisterAuthRoutes mounts the JSON auth endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.
		Post(controller.Routes.VerifyEmail, controller.VerifyEmail).
		SetName("auth.verify-email")

	app.
		Post(controller.Routes.SignOut, controller.SignOut).
		SetName("auth.sign-out")

	app.
		Get(controller.Routes.Profile, controller.protected(controller.Profile)).
		SetName("auth.profile")
}

type AuthControllerRoutes struct {
	Login       string
	SignOut     string
	Register    string
	VerifyEmail string
	Profile     string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Mailer       Mailer
	Config       Config
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Config:       SimpleConfig{},
		Routes: &AuthControllerRoutes{
			Login:       "/auth/login",
			SignOut:     "/auth/sign-out",
			Register:    "/auth/register",
			VerifyEmail: "/auth/verify-email",
			Profile:     "/auth/profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Mailer == nil {
		c.Mailer = NewLogMailer(c.Logger)
	}

	return c
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if cfg != nil {
			c.Config = cfg
		}
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(4, 16)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 24)),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %s", err)
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"error": "Failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %s", err)
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"error":      "Invalid registration payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(payload))
	}

	req := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Mailer, a.Config.GetSiteURL())
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: %s", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"message": "Verification email sent",
	})
}

// VerifyEmailPayload carries the token from the email link
type VerifyEmailPayload struct {
	Token string `form:"token" json:"token" query:"token"`
}

// Validate will validate the payload
func (r VerifyEmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func (a *AuthController) VerifyEmail(ctx router.Context) error {
	payload := new(VerifyEmailPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("verify email parse payload: %s", err)
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"error": "Failed to parse body",
		})
	}

	if payload.Token == "" {
		payload.Token = ctx.Query("token", "")
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"error":      "Invalid verification payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := VerifyEmailMessage{
		Token: payload.Token,
	}

	verifyEmail := NewVerifyEmailHandler(a.Repo)
	if err := verifyEmail.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("verify email error: %s", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"message": "verification succeed",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %s", err)
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"error": "Failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"error":      "Invalid login payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("login identifier: %s", payload.Identifier)
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		a.Logger.Error("login error: %s", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"message": "Login success",
	})
}

// SignOut destroys the current session. It succeeds even without one.
func (a *AuthController) SignOut(ctx router.Context) error {
	if err := a.Auther.Logout(ctx); err != nil {
		a.Logger.Error("sign out error: %s", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"message": "Sign out success",
	})
}

// Profile echoes the session snapshot captured at login.
func (a *AuthController) Profile(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"user_id":    session.UserID,
		"data":       session.Data,
		"expires_at": session.ExpiresAt,
	})
}

func (a *AuthController) protected(handler router.HandlerFunc) router.HandlerFunc {
	middleware := a.Auther.ProtectedRoute(a.Config, func(c router.Context, err error) error {
		return a.respondError(c, err)
	})
	return middleware(handler)
}

func (a *AuthController) respondError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = fiber.StatusInternalServerError
	}

	return ctx.JSON(code, router.ViewContext{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func defaultErrHandler(c router.Context, err error) error {
	return c.JSON(fiber.StatusInternalServerError, router.ViewContext{
		"error": err.Error(),
	})
}
