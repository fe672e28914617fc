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

const roleCollection = "userRoles"

// RoleRepository persists role assignment records in Firestore.
type RoleRepository struct {
	base *pfirestore.BaseRepository[roleDocument]
}

// NewRoleRepository constructs a Firestore-backed role repository.
func NewRoleRepository(provider *pfirestore.Provider) (*RoleRepository, error) {
	if provider == nil {
		return nil, errors.New("role repository requires firestore provider")
	}

	base := pfirestore.NewBaseRepository[roleDocument](provider, roleCollection, nil, nil)
	return &RoleRepository{base: base}, nil
}

// Insert records a role grant under its assigned ID.
func (r *RoleRepository) Insert(ctx context.Context, assignment domain.RoleAssignment) error {
	if r == nil || r.base == nil {
		return errors.New("role repository not initialised")
	}
	if strings.TrimSpace(assignment.ID) == "" {
		return errors.New("assignment id is required")
	}

	_, err := r.base.Set(ctx, assignment.ID, fromDomainAssignment(assignment))
	return err
}

// FindByEmail returns the most recent role assignment for the email.
func (r *RoleRepository) FindByEmail(ctx context.Context, email string) (domain.RoleAssignment, error) {
	if r == nil || r.base == nil {
		return domain.RoleAssignment{}, errors.New("role repository not initialised")
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return domain.RoleAssignment{}, errors.New("email is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("email", "==", normalized).OrderBy("createdAt", firestore.Desc).Limit(1)
	})
	if err != nil {
		return domain.RoleAssignment{}, err
	}
	if len(docs) == 0 {
		return domain.RoleAssignment{}, notFoundError("userRoles.find", normalized)
	}
	return toDomainAssignment(docs[0].ID, docs[0].Data), nil
}

// List returns every role assignment ordered by creation time.
func (r *RoleRepository) List(ctx context.Context) ([]domain.RoleAssignment, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("role repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	assignments := make([]domain.RoleAssignment, 0, len(docs))
	for _, doc := range docs {
		assignments = append(assignments, toDomainAssignment(doc.ID, doc.Data))
	}
	return assignments, nil
}

type roleDocument struct {
	Email     string    `firestore:"email"`
	Role      string    `firestore:"role"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func fromDomainAssignment(assignment domain.RoleAssignment) roleDocument {
	return roleDocument{
		Email:     strings.ToLower(strings.TrimSpace(assignment.Email)),
		Role:      string(assignment.Role),
		CreatedAt: assignment.CreatedAt.UTC(),
	}
}

func toDomainAssignment(id string, doc roleDocument) domain.RoleAssignment {
	return domain.RoleAssignment{
		ID:        id,
		Email:     doc.Email,
		Role:      domain.Role(doc.Role),
		CreatedAt: doc.CreatedAt,
	}
}

var _ repositories.RoleRepository = (*RoleRepository)(nil)
