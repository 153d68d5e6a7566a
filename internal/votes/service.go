// Package votes implements the toggling up/down vote of a post.
package votes

import (
	"context"
	"errors"

	"github.com/MosinFAM/redditclone/internal/auth"
	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/metrics"
	"github.com/MosinFAM/redditclone/internal/models"
	"github.com/MosinFAM/redditclone/internal/storage"
)

var ErrInvalidVote = errors.New("vote must be 1 or -1")

// Action is what casting a vote did to the stored vote
type Action string

const (
	Inserted Action = "insert"
	Updated  Action = "update"
	Deleted  Action = "delete"
)

// Tally is the score of a post and the caller's own vote (0 when none)
type Tally struct {
	Total    int `json:"total"`
	UserVote int `json:"user_vote"`
}

type Service struct {
	store   storage.VoteStorage
	metrics *metrics.Metrics
}

func NewService(store storage.VoteStorage, m *metrics.Metrics) *Service {
	return &Service{store: store, metrics: m}
}

// Cast applies value to the caller's vote on a post.
// Repeating the current vote withdraws it; the opposite value replaces it.
func (s *Service) Cast(ctx context.Context, identity auth.Identity, postID int64, value int) (Action, error) {
	if err := identity.Require(); err != nil {
		return "", err
	}
	if value != 1 && value != -1 {
		return "", ErrInvalidVote
	}

	existing, err := s.store.GetUserVote(ctx, postID, identity.UserID)
	if err != nil {
		return "", err
	}

	var action Action
	switch {
	case existing == nil:
		action = Inserted
		err = s.store.AddVote(ctx, models.NewVote{PostID: postID, UserID: identity.UserID, Vote: value})
	case existing.Vote == value:
		action = Deleted
		err = s.store.DeleteVote(ctx, existing.ID)
	default:
		action = Updated
		err = s.store.UpdateVote(ctx, existing.ID, value)
	}
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Int64("post_id", postID).Str("action", string(action)).Msg("Failed to cast vote")
		return "", err
	}

	s.metrics.VoteCast(string(action))
	return action, nil
}

// Tally sums the votes of a post. userID may be empty for anonymous callers.
func (s *Service) Tally(ctx context.Context, postID int64, userID string) (Tally, error) {
	list, err := s.store.GetVotesByPostID(ctx, postID)
	if err != nil {
		return Tally{}, err
	}

	var t Tally
	for _, v := range list {
		t.Total += v.Vote
		if userID != "" && v.UserID == userID {
			t.UserVote = v.Vote
		}
	}
	return t, nil
}
