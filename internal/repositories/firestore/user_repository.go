package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	domain "github.com/bookcourier/api/internal/domain"
	pfirestore "github.com/bookcourier/api/internal/platform/firestore"
	"github.com/bookcourier/api/internal/repositories"
)

const userCollection = "users"

// UserRepository persists user accounts in Firestore keyed by email.
type UserRepository struct {
	base *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}

	base := pfirestore.NewBaseRepository[userDocument](provider, userCollection, nil, nil)
	return &UserRepository{base: base}, nil
}

// Upsert writes the account document, using the lowercased email as document ID.
func (r *UserRepository) Upsert(ctx context.Context, account domain.UserAccount) error {
	if r == nil || r.base == nil {
		return errors.New("user repository not initialised")
	}
	email := strings.ToLower(strings.TrimSpace(account.Email))
	if email == "" {
		return errors.New("account email is required")
	}

	_, err := r.base.Set(ctx, email, fromDomainAccount(account))
	return err
}

// FindByEmail loads the account for the supplied email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.UserAccount, error) {
	if r == nil || r.base == nil {
		return domain.UserAccount{}, errors.New("user repository not initialised")
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return domain.UserAccount{}, errors.New("email is required")
	}

	doc, err := r.base.Get(ctx, normalized)
	if err != nil {
		return domain.UserAccount{}, err
	}
	return toDomainAccount(doc.ID, doc.Data), nil
}

// List returns every account ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]domain.UserAccount, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("user repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.UserAccount, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, toDomainAccount(doc.ID, doc.Data))
	}
	return accounts, nil
}

type userDocument struct {
	Email     string    `firestore:"email"`
	Role      string    `firestore:"role"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func fromDomainAccount(account domain.UserAccount) userDocument {
	return userDocument{
		Email:     strings.ToLower(strings.TrimSpace(account.Email)),
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt.UTC(),
		UpdatedAt: account.UpdatedAt.UTC(),
	}
}

func toDomainAccount(id string, doc userDocument) domain.UserAccount {
	email := doc.Email
	if email == "" {
		email = id
	}
	return domain.UserAccount{
		Email:     email,
		Role:      domain.Role(doc.Role),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

var _ repositories.UserRepository = (*UserRepository)(nil)
