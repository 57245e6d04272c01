package eval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brunobiangulo/quotefind"
	"github.com/brunobiangulo/quotefind/store"
)

// fakeEngine answers Detect with a scripted sequence of results, one per
// call, so the evaluator's pass/fail judging can be tested without a real
// retrieval or verification stack.
type fakeEngine struct {
	results []*quotefind.DetectionResult
	errs    []error
	calls   int
}

func (f *fakeEngine) Detect(ctx context.Context, text string, opts quotefind.DetectOptions) (*quotefind.DetectionResult, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	return f.results[i], nil
}

func (f *fakeEngine) Store() *store.Store { return nil }
func (f *fakeEngine) Close() error        { return nil }

func TestRunAllPass(t *testing.T) {
	dataset := Dataset{
		Name: "test",
		Cases: []ScenarioCase{
			{Name: "exact", Input: "a", ExpectedReference: "Matthew 5:3", ExpectedQuotation: true, AcceptableTypes: []quotefind.MatchType{quotefind.Exact}, MinConfidence: 90},
			{Name: "control", Input: "b", ExpectedQuotation: false},
		},
	}
	eng := &fakeEngine{
		results: []*quotefind.DetectionResult{
			{IsQuotation: true, MatchType: quotefind.Exact, Confidence: 95, BestMatch: &quotefind.Source{Reference: "Matthew 5:3"}},
			{IsQuotation: false, MatchType: quotefind.NonBiblical, Confidence: 90},
		},
	}

	report, err := NewEvaluator(eng).Run(context.Background(), dataset)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Passed != 2 || report.Failed != 0 {
		t.Fatalf("expected 2 passed 0 failed, got %d/%d", report.Passed, report.Failed)
	}
}

func TestRunWrongReferenceFails(t *testing.T) {
	dataset := Dataset{Cases: []ScenarioCase{
		{Name: "exact", Input: "a", ExpectedReference: "Matthew 5:3", ExpectedQuotation: true},
	}}
	eng := &fakeEngine{results: []*quotefind.DetectionResult{
		{IsQuotation: true, MatchType: quotefind.Exact, Confidence: 95, BestMatch: &quotefind.Source{Reference: "John 1:1"}},
	}}

	report, err := NewEvaluator(eng).Run(context.Background(), dataset)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Passed != 0 || report.Failed != 1 {
		t.Fatalf("expected 1 failure, got passed=%d failed=%d", report.Passed, report.Failed)
	}
	if report.Results[0].FailureReason == "" {
		t.Error("expected a failure reason")
	}
}

func TestRunUnexpectedQuotationFails(t *testing.T) {
	dataset := Dataset{Cases: []ScenarioCase{
		{Name: "control", Input: "a", ExpectedQuotation: false},
	}}
	eng := &fakeEngine{results: []*quotefind.DetectionResult{
		{IsQuotation: true, MatchType: quotefind.Allusion, Confidence: 55, BestMatch: &quotefind.Source{Reference: "Matthew 5:3"}},
	}}

	report, _ := NewEvaluator(eng).Run(context.Background(), dataset)
	if report.Passed != 0 || report.Failed != 1 {
		t.Fatalf("expected 1 failure, got passed=%d failed=%d", report.Passed, report.Failed)
	}
}

func TestRunBelowMinConfidenceFails(t *testing.T) {
	dataset := Dataset{Cases: []ScenarioCase{
		{Name: "low conf", Input: "a", ExpectedReference: "Matthew 5:3", ExpectedQuotation: true, MinConfidence: 90},
	}}
	eng := &fakeEngine{results: []*quotefind.DetectionResult{
		{IsQuotation: true, MatchType: quotefind.Exact, Confidence: 60, BestMatch: &quotefind.Source{Reference: "Matthew 5:3"}},
	}}

	report, _ := NewEvaluator(eng).Run(context.Background(), dataset)
	if report.Passed != 0 || report.Failed != 1 {
		t.Fatalf("expected 1 failure, got passed=%d failed=%d", report.Passed, report.Failed)
	}
}

func TestRunDetectErrorRecordedAsFailure(t *testing.T) {
	dataset := Dataset{Cases: []ScenarioCase{
		{Name: "broken", Input: "a", ExpectedQuotation: false},
	}}
	eng := &fakeEngine{
		results: []*quotefind.DetectionResult{nil},
		errs:    []error{errors.New("boom")},
	}

	report, _ := NewEvaluator(eng).Run(context.Background(), dataset)
	if report.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", report.Failed)
	}
	if report.Results[0].Error == "" {
		t.Error("expected error to be recorded")
	}
}

func TestFormatReportIncludesFailureReason(t *testing.T) {
	report := &Report{
		Dataset:    "test",
		TotalTests: 1,
		Failed:     1,
		Results: []TestResult{
			{Name: "x", Passed: false, FailureReason: "expected reference mismatch"},
		},
	}
	out := FormatReport(report)
	if !strings.Contains(out, "expected reference mismatch") {
		t.Fatalf("expected report to include the failure reason, got:\n%s", out)
	}
}
