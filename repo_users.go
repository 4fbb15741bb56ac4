package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpsertUnverifiedUserSQL replaces the pending registration for an email
// unless the account already verified. The WHERE guard keeps re-register
// from clobbering a verified row; an empty RETURNING set means the email
// belongs to a verified account.
var UpsertUnverifiedUserSQL = `INSERT INTO "users" AS "usr"
	("id", "username", "email", "password_hash", "verify_token", "verify_token_expiry")
VALUES
	(?, ?, ?, ?, ?, ?)
ON CONFLICT ("email") DO UPDATE SET
	"username" = EXCLUDED."username",
	"password_hash" = EXCLUDED."password_hash",
	"verify_token" = EXCLUDED."verify_token",
	"verify_token_expiry" = EXCLUDED."verify_token_expiry",
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."email_verified_at" IS NULL
RETURNING *;`

// ConsumeVerifyTokenSQL marks the matching pending registration as
// verified and burns the token in the same statement, so a replayed token
// can never match twice.
var ConsumeVerifyTokenSQL = `UPDATE "users" AS "usr"
SET
	"email_verified_at" = ?,
	"verify_token" = NULL,
	"verify_token_expiry" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."verify_token" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	UpsertUnverified(ctx context.Context, record *User) (*User, error)
	UpsertUnverifiedTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	GetByVerifyToken(ctx context.Context, token string) (*User, error)
	GetByVerifyTokenTx(ctx context.Context, tx bun.IDB, token string) (*User, error)
	ConsumeVerifyToken(ctx context.Context, token string, verifiedAt time.Time) (*User, error)
	ConsumeVerifyTokenTx(ctx context.Context, tx bun.IDB, token string, verifiedAt time.Time) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) UpsertUnverified(ctx context.Context, record *User) (*User, error) {
	return a.UpsertUnverifiedTx(ctx, a.db, record)
}

func (a *users) UpsertUnverifiedTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)

	res, err := a.Repository.RawTx(ctx, tx, UpsertUnverifiedUserSQL,
		record.ID.String(),
		record.Username,
		record.Email,
		record.PasswordHash,
		record.VerifyToken,
		record.VerifyTokenExpiry,
	)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrUserExists
	}

	return res[0], nil
}

func (a *users) GetByVerifyToken(ctx context.Context, token string) (*User, error) {
	return a.GetByVerifyTokenTx(ctx, a.db, token)
}

func (a *users) GetByVerifyTokenTx(ctx context.Context, tx bun.IDB, token string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.verify_token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"verify_token": token,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ConsumeVerifyToken(ctx context.Context, token string, verifiedAt time.Time) (*User, error) {
	return a.ConsumeVerifyTokenTx(ctx, a.db, token, verifiedAt)
}

func (a *users) ConsumeVerifyTokenTx(ctx context.Context, tx bun.IDB, token string, verifiedAt time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, ConsumeVerifyTokenSQL, verifiedAt, token)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"verify_token": token,
			})
	}

	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
