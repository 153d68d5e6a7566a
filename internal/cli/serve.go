package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MosinFAM/redditclone/internal/api"
	"github.com/MosinFAM/redditclone/internal/auth"
	"github.com/MosinFAM/redditclone/internal/comments"
	"github.com/MosinFAM/redditclone/internal/communities"
	"github.com/MosinFAM/redditclone/internal/config"
	"github.com/MosinFAM/redditclone/internal/db"
	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/metrics"
	"github.com/MosinFAM/redditclone/internal/posts"
	"github.com/MosinFAM/redditclone/internal/storage"
	"github.com/MosinFAM/redditclone/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(a *app) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(logger.WithContext(ctx, a.log), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving (postgres only)")
	return cmd
}

// openStorage builds the configured backend
func openStorage(ctx context.Context, cfg *config.Config, migrate bool) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case config.StoragePostgres:
		conn, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.Migrate(ctx, conn, cfg.Migrations.Dir, "up"); err != nil {
				conn.Close()
				return nil, err
			}
		}
		return storage.NewPostgresStorage(conn), nil
	case config.StorageREST:
		return storage.NewRestStorage(cfg.Backend.URL, cfg.Backend.APIKey, cfg.Backend.Timeout), nil
	case config.StorageMemory:
		return storage.NewMemoryStorage(), nil
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	cfg := a.cfg
	log := logger.FromContext(ctx)

	store, err := openStorage(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	section := comments.NewSection(store, comments.SectionOptions{
		MaxAge:  cfg.Comments.MaxAge,
		TTL:     cfg.Comments.CacheTTL,
		Cleanup: 2 * cfg.Comments.CacheTTL,
	}, m)
	defer section.Close()

	var verifier *auth.Verifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.Auth.JWTSecret)
	} else {
		log.Warn().Msg("auth.jwt_secret is not set; all callers are anonymous")
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(&api.Handler{
		Comments:    comments.NewService(store, section, m),
		Posts:       posts.NewService(store),
		Communities: communities.NewService(store),
		Votes:       votes.NewService(store, m),
		Verifier:    verifier,
		Metrics:     m,
		CommentPoll: cfg.Comments.PollInterval,
		VotePoll:    cfg.Votes.PollInterval,
	}, api.Options{Logger: a.log, CORSOrigins: cfg.HTTP.CORSOrigins, Gatherer: reg})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("storage", cfg.Storage.Type).Msg("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
