// Package pipeline orchestrates one manuscript analysis: ingest, chunk,
// snapshot the canon, propose candidates per chunk, adjudicate, report.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hansollee/lorecheck/internal/adjudicate"
	"github.com/hansollee/lorecheck/internal/anchor"
	"github.com/hansollee/lorecheck/internal/chunk"
	"github.com/hansollee/lorecheck/internal/ingest"
	"github.com/hansollee/lorecheck/internal/model"
	"github.com/hansollee/lorecheck/internal/oracle"
	"github.com/hansollee/lorecheck/internal/store"
	"github.com/hansollee/lorecheck/internal/worker"
)

// Pipeline owns one process' analysis machinery. Each Analyze call runs an
// isolated pipeline: chunks, anchors, and candidates are created fresh and
// discarded at the end.
type Pipeline struct {
	store       *store.Store
	chunker     *chunk.Chunker
	adapter     *oracle.Adapter
	adjudicator *adjudicate.Adjudicator
	logger      *zap.Logger
	config      *model.Config
	oracleModel string
}

// New wires a pipeline from configuration. An unconfigured oracle is
// allowed: every proposal then degrades to its placeholder finding, which
// keeps the output honest about the missing check.
func New(cfg *model.Config, st *store.Store, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := oracle.NewProvider(oracle.ConfigFromModel(cfg.Oracle))
	if err != nil {
		return nil, fmt.Errorf("configure oracle: %w", err)
	}
	if provider == nil {
		logger.Warn("no oracle provider configured; findings will be placeholders")
	}

	limiter := worker.NewLimiter(cfg.Concurrency.OracleRPS, cfg.Concurrency.OracleBurst)
	adapter := oracle.NewAdapter(provider, limiter, logger)

	adjudicator := adjudicate.New(adapter, logger, cfg.SeverityThreshold,
		cfg.Concurrency.ResolutionBatchSize, cfg.Concurrency.ProposalWorkers)

	return &Pipeline{
		store:       st,
		chunker:     chunk.New(cfg.Chunk.MaxLen, cfg.Chunk.MinLen),
		adapter:     adapter,
		adjudicator: adjudicator,
		logger:      logger,
		config:      cfg,
		oracleModel: cfg.Oracle.Model,
	}, nil
}

// proposeJob runs one chunk through the oracle adapter
type proposeJob struct {
	adapter *oracle.Adapter
	anchors []model.Anchor
	chunk   model.Chunk
}

type proposeResult struct {
	chunkIndex int
	proposal   oracle.Proposal
}

func (r *proposeResult) GetError() error { return nil }

func (j *proposeJob) Execute(ctx context.Context) worker.Result {
	return &proposeResult{
		chunkIndex: j.chunk.Index,
		proposal:   j.adapter.Propose(ctx, j.anchors, j.chunk.Text),
	}
}

// Analyze runs the full pipeline over one manuscript file. Only malformed
// input aborts; oracle trouble degrades into placeholder findings.
func (p *Pipeline) Analyze(ctx context.Context, manuscriptPath string) (*model.Report, error) {
	// 1. Ingest
	text, err := ingest.ReadManuscript(manuscriptPath)
	if err != nil {
		return nil, err
	}

	// 2. Chunk
	chunks, err := p.chunker.Split(text)
	if err != nil {
		return nil, err
	}
	p.logger.Info("manuscript chunked",
		zap.String("path", manuscriptPath), zap.Int("chunks", len(chunks)))

	// 3. Snapshot canon and build the anchor pool
	sheet, err := p.store.Snapshot()
	if err != nil {
		return nil, err
	}
	anchors := anchor.Build(sheet)
	p.logger.Info("anchor pool built", zap.Int("anchors", len(anchors)))

	// 4. Propose candidates per chunk, concurrently
	pool := worker.NewPool(p.config.Concurrency.ProposalWorkers)
	pool.Start()
	for _, c := range chunks {
		pool.Submit(&proposeJob{adapter: p.adapter, anchors: anchors, chunk: c})
	}
	results := pool.Wait()

	proposals := make([]*proposeResult, 0, len(results))
	for _, r := range results {
		proposals = append(proposals, r.(*proposeResult))
	}
	sort.Slice(proposals, func(i, j int) bool {
		return proposals[i].chunkIndex < proposals[j].chunkIndex
	})

	var candidates []model.CandidateIssue
	var placeholders []model.Issue
	var fictionTerms []string
	degraded := false
	for _, pr := range proposals {
		if pr.proposal.Degraded {
			// a placeholder cannot pass the gate chain (no anchor, no
			// locatable hint) but must still reach the caller
			degraded = true
			for _, ph := range pr.proposal.Issues {
				placeholders = append(placeholders, model.Issue{
					Category: ph.Category,
					Title:    ph.Title,
					Sentence: ph.Sentence,
					Start:    -1,
					End:      -1,
					Reason:   ph.Reason,
					Severity: ph.Severity,
				})
			}
			continue
		}
		candidates = append(candidates, pr.proposal.Issues...)
		fictionTerms = append(fictionTerms, pr.proposal.FictionTerms...)
	}
	p.logger.Info("candidates proposed",
		zap.Int("candidates", len(candidates)), zap.Bool("degraded", degraded))

	// 5. Adjudicate against the full text
	issues := p.adjudicator.Adjudicate(ctx, candidates, anchors, text)
	issues = append(issues, placeholders...)

	// 6. Report
	return &model.Report{
		RunID:             uuid.NewString(),
		Manuscript:        manuscriptPath,
		AnalyzedAt:        time.Now().UTC(),
		Provider:          p.adapter.ProviderName(),
		Model:             p.oracleModel,
		ChunkCount:        len(chunks),
		StatementsChecked: len(anchors),
		NegativeCount:     len(issues),
		Issues:            issues,
		FictionTerms:      dedupeTerms(fictionTerms),
		Degraded:          degraded,
	}, nil
}

func dedupeTerms(terms []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range terms {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
