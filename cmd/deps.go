package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/exportedge/freight-advisor/internal/graph"
	anthropicpkg "github.com/exportedge/freight-advisor/pkg/anthropic"
	"github.com/exportedge/freight-advisor/pkg/objectstore"
)

// initCollaborator builds the rate-limited Anthropic client.
func initCollaborator() anthropicpkg.Client {
	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	return anthropicpkg.NewRateLimited(client, cfg.Anthropic.RequestsPerSecond, cfg.Anthropic.Burst)
}

// initGraph opens the configured graph store and runs migrations.
func initGraph(ctx context.Context) (graph.Store, error) {
	var (
		st  graph.Store
		err error
	)
	switch cfg.Graph.Driver {
	case "postgres":
		st, err = graph.NewPostgres(ctx, cfg.Graph.DatabaseURL)
	default:
		st, err = graph.NewSQLite(cfg.Graph.Path)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open graph store")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate graph store")
	}
	return st, nil
}

// initObjects builds the artifact store for the configured backend.
func initObjects(ctx context.Context) (objectstore.Store, error) {
	if cfg.Artifacts.Backend == "s3" {
		st, err := objectstore.NewS3(ctx, cfg.Artifacts.Region)
		if err != nil {
			return nil, eris.Wrap(err, "init s3 store")
		}
		return st, nil
	}
	return objectstore.NewFS(cfg.Artifacts.Dir), nil
}
