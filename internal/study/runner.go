// Package study builds quizzes, question and answer sets and summaries from
// note text with a generative model.
package study

import (
	"context"
	"time"

	"go.uber.org/zap"

	"notetutor/internal/ai"
	"notetutor/internal/retry"
)

type RunnerConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
	// Sleep overrides the wait between attempts.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner calls the generator and retries only when the provider reports overload.
type Runner struct {
	generator ai.Generator
	policy    retry.Policy
	logger    *zap.Logger
}

func NewRunner(generator ai.Generator, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{generator: generator, logger: logger}
	r.policy = retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     retry.Fixed(cfg.RetryDelay),
		Retryable:   ai.IsOverloaded,
		Sleep:       cfg.Sleep,
	}
	return r
}

func (r *Runner) Generate(ctx context.Context, prompt string) (string, error) {
	return retry.Do(ctx, r.policy, func(ctx context.Context, attempt int) (string, error) {
		out, err := r.generator.Generate(ctx, "", nil, prompt)
		if err != nil && ai.IsOverloaded(err) {
			r.logger.Warn("model overloaded", zap.Int("attempt", attempt), zap.Error(err))
		}
		return out, err
	})
}

func (r *Runner) Quiz(ctx context.Context, title, text string) (*Quiz, error) {
	raw, err := r.Generate(ctx, QuizPrompt(title, text))
	if err != nil {
		return nil, err
	}
	quiz, err := ParseQuiz(raw)
	if err != nil {
		return nil, err
	}
	if quiz.Title == "" {
		quiz.Title = "Quiz on " + title
	}
	return quiz, nil
}

func (r *Runner) QA(ctx context.Context, title, text string) (*QASet, error) {
	raw, err := r.Generate(ctx, QAPrompt(title, text))
	if err != nil {
		return nil, err
	}
	set, err := ParseQA(raw)
	if err != nil {
		return nil, err
	}
	if set.Title == "" {
		set.Title = "Short Q&A on " + title
	}
	return set, nil
}

func (r *Runner) Summary(ctx context.Context, title, text string) (string, error) {
	raw, err := r.Generate(ctx, SummaryPrompt(title, text))
	if err != nil {
		return "", err
	}
	return CleanSummary(raw)
}
