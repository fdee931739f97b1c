// Package screening orchestrates the two moderation stages: the local
// banned-phrase filter, then the external toxicity classifier. It runs on
// every preset create and on edits that touch name or description.
package screening

import (
	"context"
	"fmt"
	"strings"

	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/filter"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/perspective"
	"go.uber.org/zap"
)

// Result is the pipeline verdict. Method records which stage(s) ran:
// "local" when the classifier was skipped or unreachable, "all" when both
// stages ran and passed, or the failing stage's tag.
type Result struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
	Field  string `json:"field,omitempty"` // "name" or "description"
	Method string `json:"method"`
}

// Service wires the compiled filter and the optional classifier client.
// A nil classifier means stage 2 never runs.
type Service struct {
	filter     *filter.CompiledFilter
	classifier *perspective.Client
	log        *zap.Logger
}

func New(f *filter.CompiledFilter, classifier *perspective.Client, log *zap.Logger) *Service {
	return &Service{filter: f, classifier: classifier, log: log}
}

// Check screens a preset's name and description. Stage 1 failure returns
// immediately without calling the classifier; classifier failure falls
// through to passing.
func (s *Service) Check(ctx context.Context, name, description string) Result {
	combined := name + " " + description

	if term, hit := s.filter.Match(combined); hit {
		field := "description"
		if _, nameHit := s.filter.Match(name); nameHit {
			field = "name"
		}
		return Result{
			Passed: false,
			Reason: fmt.Sprintf("contains banned phrase %q", term),
			Field:  field,
			Method: "local",
		}
	}

	if s.classifier == nil {
		return Result{Passed: true, Method: "local"}
	}

	verdict, err := s.classifier.Analyze(ctx, strings.TrimSpace(combined))
	if err != nil {
		if s.log != nil {
			s.log.Warn("toxicity classifier unavailable, passing content", zap.Error(err))
		}
		return Result{Passed: true, Method: "local"}
	}
	if verdict.Flagged {
		return Result{Passed: false, Reason: verdict.Reason(), Method: "perspective"}
	}
	return Result{Passed: true, Method: "all"}
}
