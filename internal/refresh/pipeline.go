package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/minjaelee/vigil/internal/classify"
	"github.com/minjaelee/vigil/internal/discovery"
	"github.com/minjaelee/vigil/internal/ingest"
	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/logger"
)

// Pipeline runs one full refresh: fetch every candidate stream,
// normalize, merge last-write-wins, classify, and publish the snapshot
// atomically. A refresh that yields nothing leaves the previous
// snapshot untouched.
type Pipeline struct {
	client     *discovery.Client
	normalizer *ingest.Normalizer
	classifier *classify.Classifier
	store      *ingest.Store
	cfg        config.DiscoveryConfig
	logger     *logger.Logger
}

// NewPipeline wires the refresh stages together
func NewPipeline(
	cfg *config.Config,
	client *discovery.Client,
	normalizer *ingest.Normalizer,
	classifier *classify.Classifier,
	store *ingest.Store,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		client:     client,
		normalizer: normalizer,
		classifier: classifier,
		store:      store,
		cfg:        cfg.Discovery,
		logger:     log,
	}
}

type streamResult struct {
	source ingest.Source
	raws   []json.RawMessage
	err    error
}

// Run executes one refresh cycle. The three upstream streams are
// fetched concurrently; a stream that errors contributes nothing but
// does not sink the cycle unless every stream failed.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	fetches := []struct {
		source ingest.Source
		fetch  func(context.Context) ([]json.RawMessage, error)
	}{
		{ingest.SourceContenders, func(ctx context.Context) ([]json.RawMessage, error) {
			return p.client.Contenders(ctx, p.cfg.Limit)
		}},
		{ingest.SourceContendersV2, func(ctx context.Context) ([]json.RawMessage, error) {
			return p.client.ContendersV2(ctx, p.cfg.Limit)
		}},
		{ingest.SourceSqueeze, func(ctx context.Context) ([]json.RawMessage, error) {
			return p.client.SqueezeCandidates(ctx, p.cfg.Strategy, p.cfg.MinScore)
		}},
	}

	results := make([]streamResult, len(fetches))
	var wg sync.WaitGroup
	for i, f := range fetches {
		wg.Add(1)
		go func(i int, source ingest.Source, fetch func(context.Context) ([]json.RawMessage, error)) {
			defer wg.Done()
			raws, err := fetch(ctx)
			results[i] = streamResult{source: source, raws: raws, err: err}
		}(i, f.source, f.fetch)
	}
	wg.Wait()

	streams := make([][]model.Candidate, 0, len(results))
	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			p.logger.WithError(r.err).WithField("source", string(r.source)).Warn("Candidate stream fetch failed")
			continue
		}
		streams = append(streams, p.normalizer.NormalizeAll(r.raws, r.source))
	}

	if failures == len(results) {
		return fmt.Errorf("all candidate streams failed, keeping previous snapshot")
	}

	merged := ingest.Merge(streams...)
	classified := p.classifier.ClassifyAll(merged)
	p.store.Replace(ctx, classified, p.normalizer.Dropped())

	p.logger.WithFields(map[string]interface{}{
		"merged":     len(merged),
		"classified": len(classified),
		"failures":   failures,
	}).Info("Refresh cycle completed")

	return nil
}
