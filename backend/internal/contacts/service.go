// Package contacts merges device address books into the shared contact
// graph: normalization, deduplicated upserts, and KNOWS edge maintenance.
package contacts

import (
	"context"

	"go.uber.org/zap"

	"contactgraph/backend/internal/graph"
	"contactgraph/backend/internal/phone"
	apperrors "contactgraph/backend/pkg/errors"
	"contactgraph/backend/pkg/logger"
)

// Service is the contact merge engine. Bulk sync and single-contact add
// share one code path so both flows carry identical merge semantics.
type Service struct {
	store  graph.Store
	region string
	logger *zap.Logger
}

// NewService creates a contact service writing through the given store
func NewService(store graph.Store, defaultRegion string) *Service {
	return &Service{
		store:  store,
		region: defaultRegion,
		logger: logger.Named("contacts"),
	}
}

// Sync normalizes a batch of raw contacts and merges them into the graph as
// the owner's KNOWS edges. An empty batch is a successful no-op. Contacts
// with empty names are accepted as-is.
func (s *Service) Sync(ctx context.Context, ownerPhone string, rawContacts []graph.Contact) (int, error) {
	owner := phone.Normalize(ownerPhone, s.region)
	if len(rawContacts) == 0 {
		return 0, nil
	}

	normalized := make([]graph.Contact, 0, len(rawContacts))
	for _, c := range rawContacts {
		normalized = append(normalized, graph.Contact{
			Phone: phone.Normalize(c.Phone, s.region),
			Name:  c.Name,
		})
	}

	synced, err := s.store.BulkUpsertAndLink(ctx, owner, normalized)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Contacts synced",
		zap.String("owner", owner),
		zap.Int("received", len(rawContacts)),
		zap.Int("synced", synced),
	)
	return synced, nil
}

// AddContact links a single contact; a one-element Sync
func (s *Service) AddContact(ctx context.Context, ownerPhone, contactPhone, contactName string) (int, error) {
	return s.Sync(ctx, ownerPhone, []graph.Contact{{Phone: contactPhone, Name: contactName}})
}

// RemoveContact deletes the owner's KNOWS edge to a contact. Returns a
// not-found error when no relationship existed, so transports can report
// "nothing to remove" distinctly from success.
func (s *Service) RemoveContact(ctx context.Context, ownerPhone, contactPhone string) error {
	owner := phone.Normalize(ownerPhone, s.region)
	contact := phone.Normalize(contactPhone, s.region)

	removed, err := s.store.RemoveKnows(ctx, owner, contact)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NewRelationshipNotFound(owner, contact)
	}

	s.logger.Info("Contact removed", zap.String("owner", owner), zap.String("contact", contact))
	return nil
}
