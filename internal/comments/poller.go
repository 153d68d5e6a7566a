package comments

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MosinFAM/redditclone/internal/models"
)

// Update is one poll result: a rebuilt tree or the error of a failed refresh
type Update struct {
	Comments []*models.CommentNode
	Err      error
}

// Poller refreshes one post on a fixed interval until stopped
type Poller struct {
	section  *Section
	postID   int64
	interval time.Duration

	updates chan Update
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Watch starts polling postID. The first refresh runs immediately.
// Slow consumers only ever see the latest update.
func (s *Section) Watch(ctx context.Context, postID int64, interval time.Duration) (*Poller, error) {
	if postID <= 0 {
		return nil, ErrInvalidPost
	}
	if interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{
		section:  s,
		postID:   postID,
		interval: interval,
		updates:  make(chan Update, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go p.run(ctx)
	return p, nil
}

// Updates is closed once the poller stops
func (p *Poller) Updates() <-chan Update {
	return p.updates
}

// Stop cancels polling and waits for the loop to exit
func (p *Poller) Stop() {
	p.once.Do(p.cancel)
	<-p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	defer close(p.updates)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	tree, err := p.section.Refresh(ctx, p.postID)
	if ctx.Err() != nil {
		return
	}
	p.publish(Update{Comments: tree, Err: err})
}

// publish replaces an unread update with u
func (p *Poller) publish(u Update) {
	for {
		select {
		case p.updates <- u:
			return
		default:
		}
		select {
		case <-p.updates:
		default:
		}
	}
}
