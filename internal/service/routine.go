package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/llm"
	"github.com/glowscan/skincare-admin/internal/retry"
)

// ErrEmptyIssue is returned before any remote call when the issue is blank.
var ErrEmptyIssue = errors.New("skin issue description is missing")

// RoutineCache is the subset of cache.RoutineCache the service needs.
type RoutineCache interface {
	Get(ctx context.Context, issue string) (llm.Routine, bool)
	Set(ctx context.Context, issue string, r llm.Routine)
}

// OutcomeRecorder receives one outcome label per Generate call.
type OutcomeRecorder interface {
	RoutineGenerated(outcome string)
}

// RoutineOptions tune the remote call.
type RoutineOptions struct {
	Timeout    time.Duration // per attempt
	MaxRetries int           // transient failures only
}

// RoutineService turns an issue into a validated routine.
type RoutineService struct {
	gen     llm.Generator
	cache   RoutineCache
	metrics OutcomeRecorder
	opts    RoutineOptions
	retry   *retry.Config
	logger  *zap.Logger
}

// NewRoutineService wires the generator. cache and metrics may be nil.
func NewRoutineService(gen llm.Generator, cache RoutineCache, metrics OutcomeRecorder, opts RoutineOptions, logger *zap.Logger) *RoutineService {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &RoutineService{
		gen:     gen,
		cache:   cache,
		metrics: metrics,
		opts:    opts,
		retry:   retry.WithMaxRetries(opts.MaxRetries),
		logger:  logger.Named("routine"),
	}
}

// Generate returns the routine for issue, from cache when possible. Remote
// failures come back as *llm.Error.
func (s *RoutineService) Generate(ctx context.Context, issue string) (llm.Routine, error) {
	issue = strings.TrimSpace(issue)
	if issue == "" {
		return llm.Routine{}, ErrEmptyIssue
	}

	if s.cache != nil {
		if r, ok := s.cache.Get(ctx, issue); ok {
			s.record("cache_hit")
			return r, nil
		}
	}

	prompt := llm.BuildRoutinePrompt(issue)
	routine, err := retry.DoIfRetryable(ctx, s.retry, func() (llm.Routine, error) {
		return s.attempt(ctx, prompt)
	})
	if err != nil {
		classified := llm.ClassifyError(err)
		s.record(string(classified.Kind))
		s.logger.Error("routine generation failed",
			zap.String("issue", issue),
			zap.String("kind", string(classified.Kind)),
			zap.Error(err))
		return llm.Routine{}, classified
	}

	if warnings := routine.CountWarnings(); len(warnings) > 0 {
		s.logger.Warn("routine list sizes outside requested range",
			zap.String("issue", issue),
			zap.Strings("warnings", warnings))
	}
	if s.cache != nil {
		s.cache.Set(ctx, issue, routine)
	}
	s.record("success")
	return routine, nil
}

// attempt runs one bounded remote call and parses its answer.
func (s *RoutineService) attempt(ctx context.Context, prompt string) (llm.Routine, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	text, err := s.gen.Generate(callCtx, llm.SystemPrompt, prompt)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return llm.Routine{}, llm.NewError(llm.KindTimeout, "generation service timed out", true, err)
		}
		return llm.Routine{}, llm.ClassifyError(err)
	}
	return llm.ParseRoutine(text)
}

func (s *RoutineService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RoutineGenerated(outcome)
	}
}
