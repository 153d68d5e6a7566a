package api

import (
	"context"
	"net/http"
	"time"

	"github.com/MosinFAM/redditclone/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the CORS layer for browser requests
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type liveMessage struct {
	Count    int    `json:"count"`
	Comments any    `json:"comments,omitempty"`
	Error    string `json:"error,omitempty"`
}

// liveComments streams the comment tree of a post over a websocket,
// one message per poll.
func (h *Handler) liveComments(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	log := logger.FromContext(c.Request.Context())

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()
	defer h.Metrics.StreamOpened()()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	poller, err := h.Comments.Watch(ctx, id, h.CommentPoll)
	if err != nil {
		_ = conn.WriteJSON(liveMessage{Error: err.Error()})
		return
	}
	defer poller.Stop()

	go readUntilClosed(conn, cancel)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-poller.Updates():
			if !ok {
				return
			}
			msg := liveMessage{}
			if u.Err != nil {
				msg.Error = u.Err.Error()
			} else {
				tree := newCommentTree(u.Comments)
				msg.Count, msg.Comments = tree.Count, tree.Comments
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Int64("post_id", id).Msg("Live stream write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are processed.
// Clients are read-only; their messages are discarded.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
