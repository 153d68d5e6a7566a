package comments

import (
	"context"
	"time"

	"github.com/MosinFAM/redditclone/internal/auth"
	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/metrics"
	"github.com/MosinFAM/redditclone/internal/models"
	"github.com/MosinFAM/redditclone/internal/storage"
)

// Service submits comments and serves the trees of a Section
type Service struct {
	store   storage.CommentStorage
	section *Section
	metrics *metrics.Metrics
}

func NewService(store storage.CommentStorage, section *Section, m *metrics.Metrics) *Service {
	return &Service{store: store, section: section, metrics: m}
}

// Tree returns the comment tree of a post
func (s *Service) Tree(ctx context.Context, postID int64) ([]*models.CommentNode, error) {
	return s.section.Tree(ctx, postID)
}

// Watch polls the comment tree of a post every interval
func (s *Service) Watch(ctx context.Context, postID int64, interval time.Duration) (*Poller, error) {
	return s.section.Watch(ctx, postID, interval)
}

// Submit stores draft as a comment by identity.
// Anonymous callers and empty drafts are rejected before the backend is contacted.
// On success the draft text is cleared and the post's cached tree is refreshed;
// on failure the draft is left untouched.
func (s *Service) Submit(ctx context.Context, identity auth.Identity, draft *Draft) (*models.Comment, error) {
	if err := identity.Require(); err != nil {
		s.metrics.CommentSubmitted(metrics.ResultUnauthorized)
		return nil, err
	}
	if !draft.CanSubmit() {
		s.metrics.CommentSubmitted(metrics.ResultInvalid)
		return nil, ErrEmptyContent
	}
	if draft.PostID <= 0 {
		s.metrics.CommentSubmitted(metrics.ResultInvalid)
		return nil, ErrInvalidPost
	}

	log := logger.FromContext(ctx)
	created, err := s.store.AddComment(ctx, models.NewComment{
		PostID:          draft.PostID,
		ParentCommentID: draft.ParentID,
		Content:         draft.Text,
		UserID:          identity.UserID,
		Author:          identity.Name,
	})
	if err != nil {
		s.metrics.CommentSubmitted(metrics.ResultError)
		log.Error().Err(err).Int64("post_id", draft.PostID).Msg("Failed to add comment")
		return nil, &PersistenceError{Op: "add comment", Err: err}
	}
	s.metrics.CommentSubmitted(metrics.ResultOK)
	draft.Text = ""

	if err := s.section.Invalidate(ctx, draft.PostID); err != nil {
		log.Warn().Err(err).Int64("post_id", draft.PostID).Msg("Comment stored but refresh failed")
	}
	log.Info().Int64("comment_id", created.ID).Int64("post_id", created.PostID).Bool("reply", draft.IsReply()).Msg("Comment added")
	return created, nil
}
