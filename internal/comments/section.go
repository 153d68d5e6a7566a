package comments

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/metrics"
	"github.com/MosinFAM/redditclone/internal/models"
	"github.com/MosinFAM/redditclone/internal/storage"

	"github.com/patrickmn/go-cache"
)

// SectionOptions tunes how long a fetched comment list may be served
type SectionOptions struct {
	// MaxAge is how old a cached list may be and still answer Tree; 0 always refetches
	MaxAge time.Duration
	// TTL expires entries nobody reads
	TTL time.Duration
	// Cleanup is the janitor interval for expired entries; 0 disables the janitor
	Cleanup time.Duration
}

// entry is a cached flat list and the fetch that produced it
type entry struct {
	list      []models.Comment
	seq       uint64
	fetchedAt time.Time
}

// call is a backend fetch shared by every caller waiting on it
type call struct {
	postID  int64
	seq     uint64
	done    chan struct{}
	list    []models.Comment
	err     error
	waiters int
	cancel  context.CancelFunc
}

// Section caches the flat comment list of each post and rebuilds trees from it.
// Concurrent refreshes of a post share one backend fetch, which is cancelled
// once its last waiter leaves. Entries are replaced wholesale and a fetch never
// overwrites an entry stored by a later-started one.
type Section struct {
	store   storage.CommentStorage
	cache   *cache.Cache
	metrics *metrics.Metrics
	maxAge  time.Duration

	mu       sync.Mutex
	seq      uint64
	inflight map[int64]*call

	closing context.Context
	close   context.CancelFunc
}

func NewSection(store storage.CommentStorage, opts SectionOptions, m *metrics.Metrics) *Section {
	closing, cancel := context.WithCancel(context.Background())
	return &Section{
		store:    store,
		cache:    cache.New(opts.TTL, opts.Cleanup),
		metrics:  m,
		maxAge:   opts.MaxAge,
		inflight: make(map[int64]*call),
		closing:  closing,
		close:    cancel,
	}
}

func cacheKey(postID int64) string {
	return strconv.FormatInt(postID, 10)
}

func (s *Section) entry(postID int64) (entry, bool) {
	v, ok := s.cache.Get(cacheKey(postID))
	if !ok {
		return entry{}, false
	}
	return v.(entry), true
}

// Cached returns the cached flat list of a post
func (s *Section) Cached(postID int64) ([]models.Comment, bool) {
	e, ok := s.entry(postID)
	return e.list, ok
}

// Tree returns the comment tree of a post. A cached list younger than MaxAge is
// reused, otherwise the caller joins the running fetch or starts one.
func (s *Section) Tree(ctx context.Context, postID int64) ([]*models.CommentNode, error) {
	if postID <= 0 {
		return nil, ErrInvalidPost
	}
	if e, ok := s.entry(postID); ok && time.Since(e.fetchedAt) < s.maxAge {
		return BuildTree(e.list), nil
	}
	list, err := s.join(ctx, postID, false)
	if err != nil {
		return nil, err
	}
	return BuildTree(list), nil
}

// Refresh fetches the flat list of a post and returns the rebuilt tree.
// Callers that arrive while a fetch of the same post is running share its result.
// On failure the previous entry is kept.
func (s *Section) Refresh(ctx context.Context, postID int64) ([]*models.CommentNode, error) {
	if postID <= 0 {
		return nil, ErrInvalidPost
	}
	list, err := s.join(ctx, postID, false)
	if err != nil {
		return nil, err
	}
	return BuildTree(list), nil
}

// Invalidate refetches a post after a write. It does not join a fetch that
// started before the call, so the stored list includes the write.
// The earlier fetch still completes for its waiters but cannot overwrite this one.
func (s *Section) Invalidate(ctx context.Context, postID int64) error {
	if postID <= 0 {
		return ErrInvalidPost
	}
	_, err := s.join(ctx, postID, true)
	return err
}

// Close cancels every in-flight fetch
func (s *Section) Close() {
	s.close()
}

// join waits for the running fetch of a post or starts one; fresh always starts one.
// The fetch keeps the values of the starting caller's context.
func (s *Section) join(ctx context.Context, postID int64, fresh bool) ([]models.Comment, error) {
	s.mu.Lock()
	c, ok := s.inflight[postID]
	if !ok || fresh {
		fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.seq++
		c = &call{postID: postID, seq: s.seq, done: make(chan struct{}), cancel: cancel}
		s.inflight[postID] = c
		go s.run(fetchCtx, c)
	}
	c.waiters++
	s.mu.Unlock()

	select {
	case <-c.done:
		s.leave(c)
		return c.list, c.err
	case <-ctx.Done():
		s.leave(c)
		return nil, ctx.Err()
	}
}

// leave cancels the fetch when nobody waits for it any more
func (s *Section) leave(c *call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.waiters--
	if c.waiters == 0 {
		c.cancel()
		s.forget(c)
	}
}

// forget unregisters c so later callers start a new fetch; s.mu must be held
func (s *Section) forget(c *call) {
	if s.inflight[c.postID] == c {
		delete(s.inflight, c.postID)
	}
}

func (s *Section) run(ctx context.Context, c *call) {
	stop := context.AfterFunc(s.closing, c.cancel)
	defer stop()
	defer c.cancel()

	c.list, c.err = s.fetch(ctx, c.postID, c.seq)

	s.mu.Lock()
	s.forget(c)
	s.mu.Unlock()
	close(c.done)
}

func (s *Section) fetch(ctx context.Context, postID int64, seq uint64) ([]models.Comment, error) {
	start := time.Now()
	fetched, err := s.store.GetCommentsByPostID(ctx, postID)
	if err != nil {
		s.metrics.CommentsRefreshed(metrics.ResultError, time.Since(start))
		return nil, &PersistenceError{Op: "fetch comments", Err: err}
	}

	list, stored := s.keep(postID, entry{list: fetched, seq: seq, fetchedAt: start})
	if !stored {
		s.metrics.CommentsRefreshed(metrics.ResultSuperseded, time.Since(start))
		return list, nil
	}
	s.metrics.CommentsRefreshed(metrics.ResultOK, time.Since(start))
	s.logOrphans(ctx, postID, list)
	return list, nil
}

// keep stores e unless a later-started fetch already stored its list.
// It returns the list that is cached afterwards.
func (s *Section) keep(postID int64, e entry) ([]models.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entry(postID); ok && cur.seq > e.seq {
		return cur.list, false
	}
	s.cache.Set(cacheKey(postID), e, cache.DefaultExpiration)
	return e.list, true
}

func (s *Section) logOrphans(ctx context.Context, postID int64, list []models.Comment) {
	if orphans := Orphans(list); len(orphans) > 0 {
		logger.FromContext(ctx).Warn().
			Int64("post_id", postID).
			Ints64("comment_ids", orphans).
			Msg("Comments reference a missing or own id as parent; shown as top-level")
	}
}
