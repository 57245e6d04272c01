package eval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brunobiangulo/quotefind"
)

// Evaluator runs a Dataset against a detection engine and scores results
// against each scenario's expected verdict.
type Evaluator struct {
	engine quotefind.Engine
	mode   quotefind.Mode
}

// NewEvaluator creates an evaluator bound to engine. Mode selects which
// detection path every scenario is run through; the zero value uses the
// engine's configured default.
func NewEvaluator(engine quotefind.Engine) *Evaluator {
	return &Evaluator{engine: engine}
}

// SetMode overrides the detection mode used for every test in the dataset,
// letting a single dataset be run through both the heuristic and LLM paths.
func (e *Evaluator) SetMode(mode quotefind.Mode) {
	e.mode = mode
}

// Report holds the results of a dataset run.
type Report struct {
	Dataset    string       `json:"dataset"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	RunTime    time.Duration `json:"run_time"`
	Results    []TestResult `json:"results"`
}

// TestResult holds the outcome of a single scenario case.
type TestResult struct {
	Name               string            `json:"name"`
	Input              string            `json:"input"`
	ExpectedReference  string            `json:"expected_reference,omitempty"`
	ExpectedQuotation  bool              `json:"expected_quotation"`
	GotReference       string            `json:"got_reference,omitempty"`
	GotQuotation       bool              `json:"got_quotation"`
	GotMatchType       quotefind.MatchType `json:"got_match_type"`
	GotConfidence      int               `json:"got_confidence"`
	Passed             bool              `json:"passed"`
	FailureReason      string            `json:"failure_reason,omitempty"`
	Error              string            `json:"error,omitempty"`
	ElapsedMs          int64             `json:"elapsed_ms"`
}

// Run executes every case in dataset and returns an aggregate report.
func (e *Evaluator) Run(ctx context.Context, dataset Dataset) (*Report, error) {
	start := time.Now()

	report := &Report{
		Dataset:    dataset.Name,
		TotalTests: len(dataset.Cases),
	}

	for _, c := range dataset.Cases {
		res := e.runCase(ctx, c)
		report.Results = append(report.Results, res)
		if res.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	report.RunTime = time.Since(start)
	return report, nil
}

func (e *Evaluator) runCase(ctx context.Context, c ScenarioCase) TestResult {
	start := time.Now()
	res := TestResult{
		Name:              c.Name,
		Input:             c.Input,
		ExpectedReference: c.ExpectedReference,
		ExpectedQuotation: c.ExpectedQuotation,
	}

	result, err := e.engine.Detect(ctx, c.Input, quotefind.DetectOptions{Mode: e.mode})
	res.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.GotQuotation = result.IsQuotation
	res.GotMatchType = result.MatchType
	res.GotConfidence = result.Confidence
	if result.BestMatch != nil {
		res.GotReference = result.BestMatch.Reference
	}

	res.Passed, res.FailureReason = judge(c, result)
	return res
}

// judge compares a scenario's expectations against an actual detection
// result and returns whether it passed, and if not, why.
func judge(c ScenarioCase, result *quotefind.DetectionResult) (bool, string) {
	if result.IsQuotation != c.ExpectedQuotation {
		return false, fmt.Sprintf("expected is_quotation=%v, got %v", c.ExpectedQuotation, result.IsQuotation)
	}

	if !c.ExpectedQuotation {
		return true, ""
	}

	if result.BestMatch == nil || result.BestMatch.Reference != c.ExpectedReference {
		got := "none"
		if result.BestMatch != nil {
			got = result.BestMatch.Reference
		}
		return false, fmt.Sprintf("expected reference %q, got %q", c.ExpectedReference, got)
	}

	if len(c.AcceptableTypes) > 0 {
		ok := false
		for _, mt := range c.AcceptableTypes {
			if result.MatchType == mt {
				ok = true
				break
			}
		}
		if !ok {
			return false, fmt.Sprintf("match_type %q not in acceptable set %v", result.MatchType, c.AcceptableTypes)
		}
	}

	if c.MinConfidence > 0 && result.Confidence < c.MinConfidence {
		return false, fmt.Sprintf("confidence %d below minimum %d", result.Confidence, c.MinConfidence)
	}

	return true, ""
}

// FormatReport renders a report as a human-readable summary, matching the
// dense plain-text style used by the detection engine's own CLI tooling.
func FormatReport(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Evaluation Report: %s ===\n", r.Dataset)
	fmt.Fprintf(&b, "Total: %d | Passed: %d (%.1f%%) | Failed: %d\n",
		r.TotalTests, r.Passed, passRate(r.Passed, r.TotalTests), r.Failed)
	fmt.Fprintf(&b, "Run time: %s\n\n", r.RunTime.Round(time.Millisecond))

	for i, res := range r.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %d. %s\n", status, i+1, res.Name)
		if res.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", res.Error)
			continue
		}
		fmt.Fprintf(&b, "  is_quotation=%v match_type=%s confidence=%d reference=%q (%dms)\n",
			res.GotQuotation, res.GotMatchType, res.GotConfidence, res.GotReference, res.ElapsedMs)
		if !res.Passed {
			fmt.Fprintf(&b, "  %s\n", res.FailureReason)
		}
	}

	return b.String()
}

func passRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}
