package embedder

import (
	"context"

	"go.uber.org/zap"

	"codescope/internal/artifact"
	"codescope/internal/chunk"
)

// DefaultBatchSize is how many chunk texts go into one service call.
const DefaultBatchSize = 100

// Metadata is the chunk provenance carried on every embedding record.
type Metadata struct {
	FilePath  string   `json:"file_path"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Symbols   []string `json:"symbols"`
}

// Record pairs one chunk with its embedding. Embedding is null when
// the service failed for this chunk even at single-item granularity.
type Record struct {
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata"`
	Embedding []float32 `json:"embedding"`
}

// Stats reports embedding outcomes.
type Stats struct {
	Total    int
	Embedded int
	Failed   int
}

// Generator converts a chunk sequence into embedding records,
// preserving exactly one record per input chunk. Failing batches are
// split in half and retried independently until failures are isolated
// to single chunks.
type Generator struct {
	service   Service
	batchSize int
	log       *zap.Logger
}

// NewGenerator creates a Generator. A non-positive batchSize falls
// back to DefaultBatchSize.
func NewGenerator(service Service, batchSize int, log *zap.Logger) *Generator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Generator{
		service:   service,
		batchSize: batchSize,
		log:       log.With(zap.String("stage", "embed")),
	}
}

// Generate embeds all chunks in fixed-size batches, in input order.
// The returned records correspond 1:1 to the input chunks; a chunk is
// never dropped or duplicated, no matter how many service calls fail.
func (g *Generator) Generate(ctx context.Context, chunks []chunk.Chunk) ([]Record, Stats) {
	records := make([]Record, 0, len(chunks))
	stats := Stats{Total: len(chunks)}

	batchNo := 0
	for start := 0; start < len(chunks); start += g.batchSize {
		batchNo++
		end := start + g.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors := g.embedBatch(ctx, texts, batchNo)
		for i, c := range batch {
			records = append(records, Record{
				Content: c.Text,
				Metadata: Metadata{
					FilePath:  c.FilePath,
					StartLine: c.StartLine,
					EndLine:   c.EndLine,
					Symbols:   c.Symbols,
				},
				Embedding: vectors[i],
			})
			if vectors[i] != nil {
				stats.Embedded++
			} else {
				stats.Failed++
			}
		}
	}

	g.log.Info("embedding complete",
		zap.Int("total", stats.Total),
		zap.Int("embedded", stats.Embedded),
		zap.Int("failed", stats.Failed))
	return records, stats
}

// embedBatch submits texts in one call. On failure it bisects: the
// first half takes the extra element on odd sizes, and each half is
// retried independently so one half's failure cannot affect the
// other. A single failing text yields a nil vector instead of an
// error.
func (g *Generator) embedBatch(ctx context.Context, texts []string, batchNo int) [][]float32 {
	vectors, err := g.service.Embed(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors
	}
	if err == nil {
		g.log.Warn("embedding service returned wrong vector count",
			zap.Int("batch", batchNo),
			zap.Int("want", len(texts)),
			zap.Int("got", len(vectors)))
	} else {
		g.log.Warn("batch embedding failed",
			zap.Int("batch", batchNo),
			zap.Int("size", len(texts)),
			zap.Error(err))
	}

	if len(texts) == 1 {
		return [][]float32{nil}
	}

	mid := (len(texts) + 1) / 2
	left := g.embedBatch(ctx, texts[:mid], batchNo)
	right := g.embedBatch(ctx, texts[mid:], batchNo)
	return append(left, right...)
}

// Run loads the chunk artifact, generates embeddings, and persists the
// record sequence. It returns the artifact path and the outcome
// counts.
func (g *Generator) Run(ctx context.Context, chunksPath, outDir, repoName string) (string, Stats, error) {
	var chunks []chunk.Chunk
	if err := artifact.LoadJSON("chunks", chunksPath, &chunks); err != nil {
		return "", Stats{}, err
	}

	records, stats := g.Generate(ctx, chunks)

	outPath := artifact.EmbeddingsPath(outDir, repoName)
	if err := artifact.SaveJSON(outPath, records); err != nil {
		return "", stats, err
	}
	return outPath, stats, nil
}
