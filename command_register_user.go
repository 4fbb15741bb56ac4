package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username   string `json:"username" example:"pepe.rone" doc:"Public display name."`
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Customer email."`
	Password   string `json:"password" doc:"Cleartext password, hashed before storage."`
	UseHashid  bool
	OnResponse func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required, validation.Length(4, 16)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 24)),
	)
}

type RegisterUserResponse struct {
	User    *User
	Token   string
	Success bool
}

// RegisterUserHandler creates or replaces a pending registration and sends
// the verification email. Registering again before verifying overwrites the
// pending record; registering a verified email fails with ErrUserExists.
type RegisterUserHandler struct {
	repo    RepositoryManager
	mailer  Mailer
	clock   Clock
	siteURL string
}

func NewRegisterUserHandler(repo RepositoryManager, mailer Mailer, siteURL string) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:    repo,
		mailer:  mailer,
		clock:   systemClock{},
		siteURL: siteURL,
	}
}

func (h *RegisterUserHandler) WithClock(clock Clock) *RegisterUserHandler {
	if clock != nil {
		h.clock = clock
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	resp := &RegisterUserResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	token, err := NewVerificationToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		expiry := h.clock.Now().Add(DefaultTokenExpiry)

		user.PasswordHash = hash
		user.Email = event.Email
		user.Username = getUsername(event.Username, event.Email)
		user.VerifyToken = token
		user.VerifyTokenExpiry = &expiry
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().UpsertUnverifiedTx(ctx, tx, user); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not register user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	// Dispatch outside the transaction: the pending record survives a failed
	// send so the user can register again to get a new email.
	if err := h.sendVerificationEmail(ctx, user, token); err != nil {
		dispatchErr := ErrMailDispatch.Clone()
		if dispatchErr == nil {
			return ErrMailDispatch
		}
		dispatchErr.Source = err
		return dispatchErr.WithMetadata(map[string]any{
			"email": user.Email,
		})
	}

	resp.User = user
	resp.Token = token
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *RegisterUserHandler) sendVerificationEmail(ctx context.Context, user *User, token string) error {
	if h.mailer == nil {
		return goerrors.New("no mailer configured", goerrors.CategoryInternal)
	}

	msg, err := NewVerificationMail(user, VerificationLink(h.siteURL, token))
	if err != nil {
		return err
	}

	return h.mailer.Send(ctx, msg)
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
