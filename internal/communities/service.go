// Package communities validates and creates communities.
package communities

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/MosinFAM/redditclone/internal/auth"
	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/models"
	"github.com/MosinFAM/redditclone/internal/storage"
)

const (
	MinNameLength = 3
	MaxNameLength = 40
)

var (
	ErrNameCharset      = errors.New("community name can only contain letters, numbers, and underscores")
	ErrNameTooShort     = errors.New("community name must be at least 3 characters")
	ErrNameTooLong      = errors.New("community name must be 40 characters or less")
	ErrCommunityExists  = errors.New("a community with this name already exists")
	ErrDescriptionEmpty = errors.New("community description is required")
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateName checks the charset first, then the length
func ValidateName(name string) error {
	switch {
	case !namePattern.MatchString(name):
		return ErrNameCharset
	case len(name) < MinNameLength:
		return ErrNameTooShort
	case len(name) > MaxNameLength:
		return ErrNameTooLong
	}
	return nil
}

type Service struct {
	store storage.CommunityStorage
}

func NewService(store storage.CommunityStorage) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]models.Community, error) {
	return s.store.GetAllCommunities(ctx)
}

// Exists reports whether name is taken
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	return s.store.CommunityExists(ctx, name)
}

// Create validates the community and stores it as owned by identity
func (s *Service) Create(ctx context.Context, identity auth.Identity, name, description string) (*models.Community, error) {
	if err := identity.Require(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionEmpty
	}

	exists, err := s.store.CommunityExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCommunityExists
	}

	community, err := s.store.AddCommunity(ctx, models.NewCommunity{Name: name, Description: description, UserID: identity.UserID})
	if errors.Is(err, storage.ErrConflict) {
		// lost a race with a concurrent create
		return nil, ErrCommunityExists
	}
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("name", name).Msg("Failed to create community")
		return nil, err
	}
	logger.FromContext(ctx).Info().Int64("community_id", community.ID).Str("name", name).Msg("Community created")
	return community, nil
}
