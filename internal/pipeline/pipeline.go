// Package pipeline wires the stages together: collect metadata,
// generate chunks, embed, and ingest into the vector index.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"codescope/internal/artifact"
	"codescope/internal/chunk"
	"codescope/internal/embedder"
	"codescope/internal/metadata"
	"codescope/internal/store"
)

// Config holds the pipeline configuration.
type Config struct {
	Root       string
	OutDir     string
	DBPath     string
	OllamaURL  string
	EmbedModel string
	BatchSize  int
	Dim        int
	Log        *zap.Logger
}

// Stats reports the outcome of a full pipeline run.
type Stats struct {
	Files    int
	Chunks   int
	Embedded int
	Failed   int
	Ingested int
}

// Pipeline runs the full extraction-to-index flow for one repository.
type Pipeline struct {
	cfg      Config
	store    *store.SQLiteStore
	embedder *embedder.OllamaEmbedder
	log      *zap.Logger
}

// New creates a Pipeline, opening the index database.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	st, err := store.Open(cfg.DBPath, cfg.Dim)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		embedder: embedder.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel),
		log:      cfg.Log,
	}, nil
}

// Run executes all stages in order. Each stage persists its artifact
// exactly once before the next stage reads it.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	repoName := metadata.RepoName(p.cfg.Root)

	collector := metadata.NewCollector(p.cfg.Root, p.cfg.OutDir, p.log)
	collected, err := collector.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect metadata: %w", err)
	}

	orchestrator := chunk.NewOrchestrator(p.cfg.Root, collected.MetadataPath, repoName, p.cfg.OutDir, p.log)
	chunksPath, chunks, err := orchestrator.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate chunks: %w", err)
	}

	generator := embedder.NewGenerator(p.embedder, p.cfg.BatchSize, p.log)
	embeddingsPath, embedStats, err := generator.Run(ctx, chunksPath, p.cfg.OutDir, repoName)
	if err != nil {
		return nil, fmt.Errorf("generate embeddings: %w", err)
	}

	ingested, err := p.ingest(embeddingsPath)
	if err != nil {
		return nil, fmt.Errorf("ingest embeddings: %w", err)
	}

	return &Stats{
		Files:    len(collected.Records),
		Chunks:   len(chunks),
		Embedded: embedStats.Embedded,
		Failed:   embedStats.Failed,
		Ingested: ingested,
	}, nil
}

// ingest loads the embeddings artifact into the vector index. When the
// embedding model changed since the last run the index is wiped first,
// since vectors from different models don't share a space.
func (p *Pipeline) ingest(embeddingsPath string) (int, error) {
	var records []embedder.Record
	if err := artifact.LoadJSON("embeddings", embeddingsPath, &records); err != nil {
		return 0, err
	}

	lastModel, err := p.store.GetMeta("embedding_model")
	if err != nil {
		return 0, fmt.Errorf("get meta: %w", err)
	}
	if lastModel != "" && lastModel != p.cfg.EmbedModel {
		p.log.Info("embedding model changed, clearing index",
			zap.String("stage", "ingest"),
			zap.String("from", lastModel),
			zap.String("to", p.cfg.EmbedModel))
		if err := p.store.DeleteAll(); err != nil {
			return 0, fmt.Errorf("clear index: %w", err)
		}
	}

	ingested, err := p.store.Ingest(records)
	if err != nil {
		return ingested, err
	}
	if err := p.store.SetMeta("embedding_model", p.cfg.EmbedModel); err != nil {
		return ingested, fmt.Errorf("set meta: %w", err)
	}
	return ingested, nil
}

// Close releases resources.
func (p *Pipeline) Close() error {
	return p.store.Close()
}
