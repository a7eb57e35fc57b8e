package identity

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"contactgraph/backend/internal/graph"
	"contactgraph/backend/internal/phone"
	apperrors "contactgraph/backend/pkg/errors"
	"contactgraph/backend/pkg/logger"
)

// Identity is the stable internal identity derived from verified claims.
// Phone is the normalized graph key shared by every other component.
type Identity struct {
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name"`
	GoogleID string `json:"google_id,omitempty"`
}

// Resolver maps verified claims to a member Person in the graph, creating
// one on first login
type Resolver struct {
	store  graph.Store
	region string
	logger *zap.Logger
}

// NewResolver creates a resolver writing through the given store
func NewResolver(store graph.Store, defaultRegion string) *Resolver {
	return &Resolver{
		store:  store,
		region: defaultRegion,
		logger: logger.Named("identity"),
	}
}

// Resolve turns verified claims into an internal identity and ensures the
// member Person node exists. It never creates KNOWS edges.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims) (*Identity, *graph.Person, error) {
	if claims.PhoneNumber == "" && claims.Email == "" {
		return nil, nil, apperrors.ErrMissingIdentityKey
	}

	name := claims.Name
	if name == "" {
		if at := strings.Index(claims.Email, "@"); at > 0 {
			name = claims.Email[:at]
		} else {
			name = "Unknown"
		}
	}

	ident := &Identity{
		Phone:    phone.Normalize(claims.PhoneNumber, r.region),
		Email:    claims.Email,
		Name:     name,
		GoogleID: claims.Subject,
	}

	person, err := r.store.UpsertPerson(ctx, graph.UpsertParams{
		Phone:     ident.Phone,
		Name:      ident.Name,
		Email:     ident.Email,
		GoogleID:  ident.GoogleID,
		IsAppUser: true,
	})
	if err != nil {
		return nil, nil, err
	}

	r.logger.Debug("Resolved identity",
		zap.String("phone", ident.Phone),
		zap.Bool("had_display_name", claims.Name != ""),
	)
	return ident, person, nil
}

// Ensure returns the identity for verified claims, creating the member
// Person only when absent. Unlike Resolve it never rewrites an existing
// profile, so routine request auth cannot clobber a member's name.
func (r *Resolver) Ensure(ctx context.Context, claims *Claims) (*Identity, error) {
	if claims.PhoneNumber == "" && claims.Email == "" {
		return nil, apperrors.ErrMissingIdentityKey
	}

	normalized := phone.Normalize(claims.PhoneNumber, r.region)
	if normalized != "" {
		if _, err := r.store.GetPerson(ctx, normalized); err == nil {
			return &Identity{
				Phone:    normalized,
				Email:    claims.Email,
				Name:     claims.Name,
				GoogleID: claims.Subject,
			}, nil
		} else if !apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
			return nil, err
		}
	}

	ident, _, err := r.Resolve(ctx, claims)
	return ident, err
}
