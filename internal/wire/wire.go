// Package wire assembles the application services from configuration.
// Construction is explicit: callers build a Services value and own its
// lifetime, nothing is process-global.
package wire

import (
	"database/sql"
	"fmt"

	"github.com/example/skb/internal/adapters/review"
	"github.com/example/skb/internal/adapters/storage"
	"github.com/example/skb/internal/app"
	"github.com/example/skb/internal/config"
	"github.com/example/skb/internal/db"
	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/ports/secondary"
)

// Services bundles the wired primary ports.
type Services struct {
	Search     primary.SearchService
	Validate   primary.ValidateService
	Index      primary.IndexService
	Metadata   primary.MetadataService
	Submission primary.SubmissionService
	Metrics    primary.MetricsService

	cfg      *config.Config
	reviewDB *sql.DB
}

// New wires the full service graph from cfg. Callers must Close the
// result to release the review database handle.
func New(cfg *config.Config) (*Services, error) {
	project := storage.NewLocalAdapter(cfg.ProjectRoot)

	var shared secondary.Storage = storage.NewLocalAdapter(cfg.SharedRoot)
	if cfg.RemoteBase != "" {
		remote := storage.NewRemoteAdapter(cfg.RemoteBase, cfg.Token)
		shared = storage.NewMirrorAdapter(cfg.SharedRoot, remote)
	}

	pending := storage.NewLocalAdapter(cfg.PendingDir())
	files := storage.NewLocalAdapter("")

	reviewDB, err := db.Open(cfg.ReviewDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open review database: %w", err)
	}
	host := review.NewSQLiteHost(reviewDB)

	openStorage := func(root string) secondary.Storage {
		return storage.NewLocalAdapter(root)
	}

	return &Services{
		Search:     app.NewSearchService(project, shared, cfg.MaxConcurrency),
		Validate:   app.NewValidateService(openStorage, cfg.MaxConcurrency),
		Index:      app.NewIndexService(shared, cfg.MaxConcurrency),
		Metadata:   app.NewMetadataService(files, project, shared, cfg.MaxConcurrency),
		Submission: app.NewSubmissionService(project, shared, pending, host),
		Metrics:    app.NewMetricsService(project, shared, cfg.MaxConcurrency),
		cfg:        cfg,
		reviewDB:   reviewDB,
	}, nil
}

// Config returns the configuration the services were built from.
func (s *Services) Config() *config.Config { return s.cfg }

// Close releases held resources.
func (s *Services) Close() error {
	if s.reviewDB != nil {
		return s.reviewDB.Close()
	}
	return nil
}
