package chunk

import (
	"context"

	"go.uber.org/zap"

	"codescope/internal/artifact"
	"codescope/internal/extractor"
	"codescope/internal/walker"
)

// Orchestrator re-joins persisted metadata to the files on disk and
// produces the repository's flattened chunk sequence.
type Orchestrator struct {
	repoPath     string
	metadataPath string
	repoName     string
	outDir       string
	log          *zap.Logger
}

// NewOrchestrator creates an Orchestrator for the repository at
// repoPath, reading metadata from metadataPath and writing the chunk
// artifact under outDir.
func NewOrchestrator(repoPath, metadataPath, repoName, outDir string, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		repoPath:     repoPath,
		metadataPath: metadataPath,
		repoName:     repoName,
		outDir:       outDir,
		log:          log.With(zap.String("stage", "chunk")),
	}
}

// Run loads the metadata artifact, generates chunks for every file
// present in both the metadata and on disk, and persists the flattened
// sequence. A missing metadata artifact is fatal; files present on
// only one side are silently skipped.
func (o *Orchestrator) Run(ctx context.Context) (string, []Chunk, error) {
	var records []extractor.FileRecord
	if err := artifact.LoadJSON("metadata", o.metadataPath, &records); err != nil {
		return "", nil, err
	}

	byPath := make(map[string]*extractor.FileRecord, len(records))
	for i := range records {
		byPath[records[i].FilePath] = &records[i]
	}

	files, _, err := walker.Walk(o.repoPath)
	if err != nil {
		return "", nil, err
	}

	var chunks []Chunk
	for _, f := range files {
		record, ok := byPath[f.RelPath]
		if !ok {
			continue
		}
		gen, err := NewGenerator(f.Path, f.RelPath)
		if err != nil {
			o.log.Warn("read file failed", zap.String("file", f.RelPath), zap.Error(err))
			continue
		}
		chunks = append(chunks, gen.Generate(record.Entities)...)
	}

	outPath := artifact.ChunksPath(o.outDir, o.repoName)
	if err := artifact.SaveJSON(outPath, chunks); err != nil {
		return "", nil, err
	}

	o.log.Info("chunking complete",
		zap.Int("files", len(records)),
		zap.Int("chunks", len(chunks)))
	return outPath, chunks, nil
}
