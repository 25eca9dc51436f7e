package grading

import (
	"context"
	"errors"
	"strings"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	ID        string
	Type      string
	Points    float64
	AnswerKey []string
}

// Result is the outcome of grading a single question response.
type Result struct {
	AutoPoints float64
	MaxPoints  float64
	Correct    bool
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

var ErrNoStrategy = errors.New("grading: no strategy for question type")

const (
	TypeMCQ       = "mcq_single"
	TypeTrueFalse = "true_false"
)

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response string) (Result, error) {
	typ := q.Type
	if typ == "" {
		typ = TypeMCQ
	}
	s, ok := g.strategies[typ]
	if !ok {
		return Result{MaxPoints: q.Points}, ErrNoStrategy
	}
	return s.Grade(ctx, q, response)
}

// Engine options

type Option func(*config)

type config struct {
	IndexLetters []string // option index -> letter
}

// WithOptionLetters overrides the A..D letters used for positional answers.
func WithOptionLetters(letters ...string) Option {
	return func(c *config) { c.IndexLetters = letters }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{IndexLetters: []string{"A", "B", "C", "D"}}
	for _, o := range opts {
		o(cfg)
	}
	mcq := mcqSingleStrategy{letters: cfg.IndexLetters}
	return &defaultGrader{
		strategies: map[string]Strategy{
			TypeMCQ:       mcq,
			TypeTrueFalse: mcq,
		},
	}
}

// --- Strategies ---

type mcqSingleStrategy struct{ letters []string }

func (s mcqSingleStrategy) Grade(_ context.Context, q Q, response string) (Result, error) {
	res := Result{MaxPoints: q.Points}
	resp := normalizeOption(response, s.letters)
	if resp == "" {
		return res, nil
	}
	for _, k := range q.AnswerKey {
		if resp == normalizeOption(k, s.letters) {
			res.AutoPoints = q.Points
			res.Correct = true
			return res, nil
		}
	}
	return res, nil
}

// NormalizeOption trims and upper-cases a submitted option and maps a
// positional index ("0".."3") to its letter.
func NormalizeOption(v string) string {
	return normalizeOption(v, []string{"A", "B", "C", "D"})
}

func normalizeOption(v string, letters []string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	if len(v) == 1 && v[0] >= '0' && v[0] <= '9' {
		if i := int(v[0] - '0'); i < len(letters) {
			return letters[i]
		}
	}
	return v
}
