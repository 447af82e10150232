package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"coinflow/pkg/blob"
	"coinflow/pkg/source"
)

const (
	defaultFetchTimeout   = 15 * time.Second
	defaultStorageTimeout = 10 * time.Second
	defaultLoadTimeout    = 30 * time.Second
)

// Loader is the warehouse boundary the pipeline appends through. AppendBatch
// reports whether the batch was actually appended; false means the ledger
// already held the batch identifier and the append was skipped.
type Loader interface {
	EnsureSchema(ctx context.Context) error
	AppendBatch(ctx context.Context, batchID string, records []Record) (appended bool, err error)
}

// Options bounds the pipeline's per-stage call budgets.
type Options struct {
	FetchTimeout   time.Duration
	StorageTimeout time.Duration
	LoadTimeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = defaultFetchTimeout
	}
	if o.StorageTimeout <= 0 {
		o.StorageTimeout = defaultStorageTimeout
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = defaultLoadTimeout
	}
	return o
}

// Pipeline chains one run's stages: fetch, raw sink, transform, transformed
// sink, warehouse load. Each stage must succeed before the next starts; the
// first failure aborts the run.
type Pipeline struct {
	provider source.Provider
	store    blob.Store
	loader   Loader
	assets   []string
	limit    int
	opts     Options
}

// NewPipeline wires a pipeline over the given collaborators. assets is the
// fixed list of asset ids to fetch; when empty the provider returns the top
// assets by market cap, so a positive limit is required instead.
func NewPipeline(provider source.Provider, store blob.Store, loader Loader, assets []string, limit int, opts Options) (*Pipeline, error) {
	if provider == nil {
		return nil, fmt.Errorf("etl: provider is required")
	}
	if store == nil {
		return nil, fmt.Errorf("etl: blob store is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("etl: loader is required")
	}
	if len(assets) == 0 && limit <= 0 {
		return nil, fmt.Errorf("etl: either an asset list or a positive limit is required")
	}
	if limit <= 0 {
		limit = len(assets)
	}
	return &Pipeline{
		provider: provider,
		store:    store,
		loader:   loader,
		assets:   assets,
		limit:    limit,
		opts:     opts.withDefaults(),
	}, nil
}

// Result summarizes a completed run.
type Result struct {
	Run                 Run
	Fetched             int
	RawLocation         blob.Location
	TransformedLocation blob.Location
	Loaded              int
	Deduplicated        bool
}

// Execute performs one run. Stage failures are returned unwrapped enough for
// errors.Is against the stage sentinels; the warehouse stays untouched on
// any failure before the load commits.
func (p *Pipeline) Execute(ctx context.Context, run Run) (*Result, error) {
	logger := logx.WithContext(ctx)
	result := &Result{Run: run}

	// Fetch: single attempt, bounded budget. Retrying is the scheduler's
	// call, made safe by the batch identifier.
	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	start := time.Now()
	snapshots, err := p.provider.Markets(fetchCtx, p.assets, p.limit)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("etl: run %s fetch: %w", run.BatchID, err)
	}
	result.Fetched = len(snapshots)
	if len(p.assets) > 0 && len(snapshots) < len(p.assets) {
		logger.Infof("pipeline: run=%s partial result: %d of %d assets", run.BatchID, len(snapshots), len(p.assets))
	}
	logger.Infof("pipeline: run=%s stage=fetch records=%d took=%dms", run.BatchID, len(snapshots), time.Since(start).Milliseconds())

	// Raw sink.
	rawData, err := EncodeSnapshots(snapshots)
	if err != nil {
		return nil, fmt.Errorf("etl: run %s: %w", run.BatchID, err)
	}
	rawLoc, err := p.write(ctx, blob.ZoneRaw, run.RawKey(), rawData)
	if err != nil {
		return nil, fmt.Errorf("etl: run %s raw sink: %w", run.BatchID, err)
	}
	result.RawLocation = rawLoc
	logger.Infof("pipeline: run=%s stage=raw_sink location=%s bytes=%d", run.BatchID, rawLoc, len(rawData))

	// Transform: the scheduled timestamp is the batch's ingestion marker,
	// so a retried run stamps identical lineage.
	records, err := Transform(snapshots, run.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("etl: run %s: %w", run.BatchID, err)
	}

	// Transformed sink.
	transformedData, err := EncodeRecords(records)
	if err != nil {
		return nil, fmt.Errorf("etl: run %s: %w", run.BatchID, err)
	}
	transformedLoc, err := p.write(ctx, blob.ZoneTransformed, run.TransformedKey(), transformedData)
	if err != nil {
		return nil, fmt.Errorf("etl: run %s transformed sink: %w", run.BatchID, err)
	}
	result.TransformedLocation = transformedLoc
	logger.Infof("pipeline: run=%s stage=transformed_sink location=%s records=%d", run.BatchID, transformedLoc, len(records))

	// Load: the warehouse consumes the transformed sink artifact, not the
	// in-memory batch, so what was persisted is exactly what is loaded.
	loadCtx, cancel := context.WithTimeout(ctx, p.opts.LoadTimeout)
	defer cancel()
	stored, err := p.store.Read(loadCtx, transformedLoc)
	if err != nil {
		return nil, fmt.Errorf("etl: run %s load: %w", run.BatchID, err)
	}
	toLoad, err := DecodeRecords(stored)
	if err != nil {
		return nil, fmt.Errorf("etl: run %s load: %w", run.BatchID, err)
	}
	if err := p.loader.EnsureSchema(loadCtx); err != nil {
		return nil, fmt.Errorf("etl: run %s load: %w", run.BatchID, err)
	}
	appended, err := p.loader.AppendBatch(loadCtx, run.BatchID, toLoad)
	if err != nil {
		return nil, fmt.Errorf("etl: run %s load: %w", run.BatchID, err)
	}
	result.Deduplicated = !appended
	if appended {
		result.Loaded = len(toLoad)
		logger.Infof("pipeline: run=%s stage=load rows=%d", run.BatchID, len(toLoad))
	} else {
		logger.Infof("pipeline: run=%s stage=load batch already in ledger, skipped", run.BatchID)
	}
	return result, nil
}

func (p *Pipeline) write(ctx context.Context, zone, key string, data []byte) (blob.Location, error) {
	writeCtx, cancel := context.WithTimeout(ctx, p.opts.StorageTimeout)
	defer cancel()
	return p.store.Write(writeCtx, zone, key, data)
}
