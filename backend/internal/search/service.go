// Package search computes degrees of separation between two phone numbers
// and derives network statistics from the contact graph.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"contactgraph/backend/internal/graph"
	"contactgraph/backend/internal/phone"
	apperrors "contactgraph/backend/pkg/errors"
	"contactgraph/backend/pkg/logger"
)

// DefaultMaxDepth bounds connection searches when the caller gives none
const DefaultMaxDepth = 6

// PersonResponse is the wire shape of a Person inside a search result
type PersonResponse struct {
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	IsAppUser bool   `json:"is_app_user"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Response is the result of a connection search. A missing path is a
// successful found=false result, never an error.
type Response struct {
	Found   bool             `json:"found"`
	Degree  int              `json:"degree"`
	Path    []PersonResponse `json:"path"`
	Message string           `json:"message"`
}

// DirectContact is one first-degree neighbor in the /network/direct listing
type DirectContact struct {
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	IsAppUser bool   `json:"is_app_user"`
}

// Service is the connection search engine
type Service struct {
	store  graph.Store
	region string
	logger *zap.Logger
}

// NewService creates a search service reading from the given store
func NewService(store graph.Store, defaultRegion string) *Service {
	return &Service{
		store:  store,
		region: defaultRegion,
		logger: logger.Named("search"),
	}
}

// FindConnection returns the shortest relationship chain between two phones
// within maxDepth hops. Degree counts edges traversed. When several
// shortest paths tie, any one of them may be returned.
func (s *Service) FindConnection(ctx context.Context, fromPhone, toPhone string, maxDepth int) (*Response, error) {
	from := phone.Normalize(fromPhone, s.region)
	to := phone.Normalize(toPhone, s.region)
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	// Self-search: a degree-0 path of just the person, if they exist
	if from == to {
		p, err := s.store.GetPerson(ctx, from)
		if err != nil {
			if apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
				return notFoundResponse(), nil
			}
			return nil, err
		}
		return &Response{
			Found:   true,
			Degree:  0,
			Path:    []PersonResponse{toPersonResponse(*p)},
			Message: "Connected through 0 degree(s) of separation.",
		}, nil
	}

	path, err := s.store.ShortestPath(ctx, from, to, maxDepth)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return notFoundResponse(), nil
	}

	nodes := make([]PersonResponse, 0, len(path.Nodes))
	for _, n := range path.Nodes {
		nodes = append(nodes, toPersonResponse(n))
	}

	s.logger.Debug("Connection found",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("degree", path.Degree),
	)
	return &Response{
		Found:   true,
		Degree:  path.Degree,
		Path:    nodes,
		Message: fmt.Sprintf("Connected through %d degree(s) of separation.", path.Degree),
	}, nil
}

// NetworkStats returns direct-neighbor counts for the owner
func (s *Service) NetworkStats(ctx context.Context, ownerPhone string) (*graph.Stats, error) {
	return s.store.NetworkStats(ctx, phone.Normalize(ownerPhone, s.region))
}

// DirectContacts lists the owner's first-degree contacts in the store's
// name-ascending order
func (s *Service) DirectContacts(ctx context.Context, ownerPhone string) ([]DirectContact, error) {
	neighbors, err := s.store.DirectNeighbors(ctx, phone.Normalize(ownerPhone, s.region))
	if err != nil {
		return nil, err
	}

	contacts := make([]DirectContact, 0, len(neighbors))
	for _, n := range neighbors {
		contacts = append(contacts, DirectContact{
			Phone:     n.Phone,
			Name:      n.Name,
			IsAppUser: n.IsAppUser,
		})
	}
	return contacts, nil
}

func notFoundResponse() *Response {
	return &Response{
		Found:   false,
		Degree:  0,
		Path:    []PersonResponse{},
		Message: "No connection found within the specified depth.",
	}
}

func toPersonResponse(p graph.Person) PersonResponse {
	return PersonResponse{
		Phone:     p.Phone,
		Name:      p.Name,
		Email:     p.Email,
		IsAppUser: p.IsAppUser,
		CreatedAt: p.CreatedAt,
	}
}
