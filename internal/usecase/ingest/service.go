// Package ingest embeds source resumes in batches and upserts them into the
// vector index.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/resumeqa/internal/domain"
	dombatch "github.com/kailas-cloud/resumeqa/internal/domain/batch"
	"github.com/kailas-cloud/resumeqa/internal/domain/vector"
	"github.com/kailas-cloud/resumeqa/internal/metrics"
	"github.com/kailas-cloud/resumeqa/internal/source"
)

// DefaultBatchSize is the number of records per embed+upsert batch.
const DefaultBatchSize = 100

// Options describes one ingestion run.
type Options struct {
	Source     string
	Index      string
	BatchSize  int
	Dimensions int
	Resume     bool // skip records covered by the checkpoint
	Pipeline   bool // embed batch N+1 while batch N is upserted
	DryRun     bool // load and batch only, no external calls
}

// Service runs ingestion. One Run at a time per (source, index).
type Service struct {
	load       Loader
	embed      Embedder
	index      Index
	checkpoint Checkpoint
	limiter    Limiter
	logger     *zap.Logger
}

// New creates an ingestion service. checkpoint and limiter are optional.
func New(load Loader, embed Embedder, index Index, logger *zap.Logger) *Service {
	return &Service{load: load, embed: embed, index: index, logger: logger}
}

// WithCheckpoint enables resumable runs.
func (s *Service) WithCheckpoint(c Checkpoint) *Service {
	s.checkpoint = c
	return s
}

// WithLimiter throttles embedding calls.
func (s *Service) WithLimiter(l Limiter) *Service {
	s.limiter = l
	return s
}

// embedded is a batch ready for upsert.
type embedded struct {
	number  int
	records []vector.Record
}

// plan is the part of a run still to be done. Batch numbers continue after
// the checkpoint: batches[i] is batch first+i, and offset source records were
// committed before it.
type plan struct {
	batches [][]source.Record
	first   int
	offset  int
}

// Run loads the source, ensures the index once and processes every batch:
// one BatchEmbed, one Upsert and one progress tick per batch. The first
// error aborts the run; the checkpoint keeps the last committed batch and
// the number of records it covers.
//
// A resumed run skips that many records and splits the rest at the current
// batch size, so the batch size may change between runs.
func (s *Service) Run(ctx context.Context, opts Options, progress Progress) (dombatch.Report, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Index == "" {
		return dombatch.Report{}, fmt.Errorf("%w: index name is required", domain.ErrConfiguration)
	}
	if progress == nil {
		progress = nopProgress{}
	}

	records, stats, err := s.load(ctx, opts.Source)
	if err != nil {
		return dombatch.Report{}, fmt.Errorf("load source: %w", err)
	}
	metrics.IngestRecordsTotal.WithLabelValues("skipped").Add(float64(stats.Skipped))

	report := dombatch.Report{Skipped: stats.Skipped}

	last, offset, err := s.resumePoint(opts)
	if err != nil {
		return report, err
	}
	if offset > len(records) {
		return report, fmt.Errorf("%w: checkpoint covers %d records but %s has %d, rerun without resume",
			domain.ErrConfiguration, offset, opts.Source, len(records))
	}
	if last > 0 {
		report.Add(dombatch.NewSkipped(last, offset))
		metrics.IngestBatchesTotal.WithLabelValues(string(dombatch.StatusSkipped)).Add(float64(last))
	}
	p := plan{batches: Split(records[offset:], opts.BatchSize), first: last + 1, offset: offset}

	log := s.logger.With(zap.String("index", opts.Index), zap.String("source", opts.Source))
	log.Info("Starting ingestion",
		zap.Int("records", len(records)),
		zap.Int("batches", len(p.batches)),
		zap.Int("batch_size", opts.BatchSize),
		zap.Int("resume_from_batch", p.first),
		zap.Int("resume_from_record", offset),
		zap.Bool("pipeline", opts.Pipeline),
		zap.Bool("dry_run", opts.DryRun),
	)

	progress.Begin(len(p.batches))
	if len(p.batches) == 0 {
		log.Info("Nothing to ingest", zap.Int("resumed", report.Resumed))
		return report, nil
	}

	if opts.DryRun {
		for range p.batches {
			progress.Tick()
		}
		log.Info("Dry run finished", zap.Int("batches", len(p.batches)))
		return report, nil
	}

	if err := s.index.EnsureIndex(ctx, opts.Index, opts.Dimensions); err != nil {
		return report, fmt.Errorf("ensure index %s: %w", opts.Index, err)
	}

	if opts.Pipeline {
		err = s.runPipelined(ctx, opts, p, &report, progress)
	} else {
		err = s.runSequential(ctx, opts, p, &report, progress)
	}
	if err != nil {
		log.Error("Ingestion aborted",
			zap.Int("committed_batches", report.Batches),
			zap.Error(err),
		)
		return report, err
	}

	log.Info("Ingestion finished",
		zap.Int("batches", report.Batches),
		zap.Int("records", report.Records),
		zap.Int("skipped", report.Skipped),
		zap.Int("resumed", report.Resumed),
	)
	return report, nil
}

// resumePoint returns the last committed batch and the records it covers.
// Fresh runs reset the checkpoint and start from zero.
func (s *Service) resumePoint(opts Options) (batch, offset int, err error) {
	if s.checkpoint == nil || opts.DryRun {
		return 0, 0, nil
	}
	if !opts.Resume {
		if err := s.checkpoint.Reset(opts.Source, opts.Index); err != nil {
			return 0, 0, fmt.Errorf("reset checkpoint: %w", err)
		}
		return 0, 0, nil
	}
	batch, offset, err = s.checkpoint.Position(opts.Source, opts.Index)
	if err != nil {
		return 0, 0, fmt.Errorf("read checkpoint: %w", err)
	}
	return batch, offset, nil
}

func (s *Service) runSequential(
	ctx context.Context, opts Options, p plan, report *dombatch.Report, progress Progress,
) error {
	for i, batch := range p.batches {
		n := p.first + i
		eb, err := s.embedBatch(ctx, n, batch)
		if err != nil {
			return s.fail(n, len(batch), err)
		}
		if err := s.commit(ctx, opts, p.offset, eb, report, progress); err != nil {
			return s.fail(n, len(batch), err)
		}
	}
	return nil
}

// runPipelined overlaps embedding of batch N+1 with the upsert of batch N.
// The unbuffered channel keeps at most one embedded batch waiting.
func (s *Service) runPipelined(
	ctx context.Context, opts Options, p plan, report *dombatch.Report, progress Progress,
) error {
	g, gctx := errgroup.WithContext(ctx)
	ready := make(chan embedded)

	g.Go(func() error {
		defer close(ready)
		for i, batch := range p.batches {
			n := p.first + i
			eb, err := s.embedBatch(gctx, n, batch)
			if err != nil {
				return s.fail(n, len(batch), err)
			}
			select {
			case ready <- eb:
			case <-gctx.Done():
				return gctx.Err() //nolint:wrapcheck // upsert side failed
			}
		}
		return nil
	})

	g.Go(func() error {
		for eb := range ready {
			if err := s.commit(gctx, opts, p.offset, eb, report, progress); err != nil {
				return s.fail(eb.number, len(eb.records), err)
			}
		}
		return nil
	})

	return g.Wait() //nolint:wrapcheck // errors are wrapped per batch
}

func (s *Service) embedBatch(ctx context.Context, n int, batch []source.Record) (embedded, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return embedded{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = r.Doc.Text()
	}

	start := time.Now()
	res, err := s.embed.BatchEmbed(ctx, texts)
	metrics.ObserveStage(metrics.StageEmbed, start, err)
	if err != nil {
		return embedded{}, fmt.Errorf("embed: %w", err)
	}
	if len(res.Embeddings) != len(batch) {
		return embedded{}, fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrEmbedding, len(res.Embeddings), len(batch))
	}

	records := make([]vector.Record, len(batch))
	for i, r := range batch {
		rec, err := vector.NewRecord(r.Doc, r.RowID, res.Embeddings[i])
		if err != nil {
			return embedded{}, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		records[i] = rec
	}
	return embedded{number: n, records: records}, nil
}

// commit upserts eb and checkpoints it. offset is the number of records
// committed before this run.
func (s *Service) commit(
	ctx context.Context, opts Options, offset int, eb embedded, report *dombatch.Report, progress Progress,
) error {
	start := time.Now()
	err := s.index.Upsert(ctx, opts.Index, eb.records)
	metrics.ObserveStage(metrics.StageUpsert, start, err)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	res := dombatch.NewOK(eb.number, len(eb.records))
	report.Add(res)
	metrics.IngestBatchesTotal.WithLabelValues(string(res.Status())).Inc()
	metrics.IngestRecordsTotal.WithLabelValues("upserted").Add(float64(res.Size()))

	if s.checkpoint != nil {
		if err := s.checkpoint.Commit(opts.Source, opts.Index, eb.number, offset+report.Records); err != nil {
			return fmt.Errorf("commit checkpoint: %w", err)
		}
	}
	progress.Tick()
	return nil
}

func (s *Service) fail(n, size int, err error) error {
	res := dombatch.NewError(n, size, err)
	metrics.IngestBatchesTotal.WithLabelValues(string(res.Status())).Inc()
	return fmt.Errorf("batch %d: %w", res.Number(), res.Err())
}

// Split groups records into consecutive batches of at most size records.
func Split(records []source.Record, size int) [][]source.Record {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]source.Record, 0, (len(records)+size-1)/size)
	for i := 0; i < len(records); i += size {
		batches = append(batches, records[i:min(i+size, len(records))])
	}
	return batches
}

type nopProgress struct{}

func (nopProgress) Begin(int) {}
func (nopProgress) Tick()     {}
