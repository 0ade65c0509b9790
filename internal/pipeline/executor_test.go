package pipeline

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Makamaruchan5858/Mightier/internal/docx"
	"github.com/Makamaruchan5858/Mightier/internal/ops"
	"github.com/Makamaruchan5858/Mightier/internal/storage"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	logger := log.New(os.Stderr, "", 0)
	files, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return NewExecutor(ops.NewRegistry(), files, t.TempDir(), logger)
}

func writeFixtureDocx(t *testing.T, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.docx")
	if err := os.WriteFile(path, docx.BuildSimple(paragraphs...), 0o640); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	e := newTestExecutor(t)
	src := writeFixtureDocx(t, "本文")

	pl := ops.Pipeline{
		{Type: "set_page_size", Params: ops.Params{"size_identifier": "A5"}},
		{Type: "add_page_numbers"},
	}

	artifact, err := e.Run(context.Background(), ops.DocTypeDOCX, src, pl, "job-1", "out.docx", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if artifact.Filename != "out.docx" || artifact.Size <= 0 {
		t.Fatalf("unexpected artifact: %#v", artifact)
	}

	a, err := docx.Open(artifact.Path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	doc, _ := a.Part(docx.PartDocument)
	if !strings.Contains(string(doc), `w:w="8391"`) {
		t.Fatal("page size step not applied")
	}
	if !strings.Contains(string(doc), "<w:footerReference") {
		t.Fatal("page number step not applied")
	}
}

func TestRunThreadsExtractedKeywords(t *testing.T) {
	e := newTestExecutor(t)
	src := writeFixtureDocx(t,
		"alpha alpha alpha beta beta",
		"alpha beta gamma",
	)

	pl := ops.Pipeline{
		{Type: "extract_keywords_for_bolding", Params: ops.Params{"top_n": 2}},
		{Type: "bold_keywords", Params: ops.Params{"use_extracted": true}},
	}

	artifact, err := e.Run(context.Background(), ops.DocTypeDOCX, src, pl, "job-2", "out.docx", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	a, err := docx.Open(artifact.Path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	doc, _ := a.Part(docx.PartDocument)
	// alpha 4回 + beta 3回が太字になる
	if got := strings.Count(string(doc), "<w:b/>"); got != 7 {
		t.Fatalf("bold run count = %d, want 7", got)
	}
}

func TestRunBoldWithoutExtractionFails(t *testing.T) {
	e := newTestExecutor(t)
	src := writeFixtureDocx(t, "alpha beta gamma")

	pl := ops.Pipeline{
		{Type: "bold_keywords", Params: ops.Params{"use_extracted": true}},
	}

	_, err := e.Run(context.Background(), ops.DocTypeDOCX, src, pl, "job-3", "out.docx", nil)
	if err == nil {
		t.Fatal("expected configuration error")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if stepErr.Index != 0 || stepErr.OpType != "bold_keywords" {
		t.Fatalf("unexpected step info: %#v", stepErr)
	}
	var apiErr *ops.Error
	if !errors.As(err, &apiErr) || apiErr.Code != ops.CodeContextMissing {
		t.Fatalf("expected CONTEXT_MISSING, got %v", err)
	}
}

func TestRunReportsProgressPerStep(t *testing.T) {
	e := newTestExecutor(t)
	src := writeFixtureDocx(t, "text")

	pl := ops.Pipeline{
		{Type: "set_text_color", Params: ops.Params{"hex_color": "112233"}},
		{Type: "set_font_properties", Params: ops.Params{"font_name": "Arial"}},
	}

	type progressEvent struct {
		index, count int
	}
	var events []progressEvent
	report := func(stepIndex, stepCount int, message string) {
		if message == "" {
			t.Fatal("empty progress message")
		}
		events = append(events, progressEvent{stepIndex, stepCount})
	}

	if _, err := e.Run(context.Background(), ops.DocTypeDOCX, src, pl, "job-4", "out.docx", report); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("progress events = %d, want 2", len(events))
	}
	if events[0].index != 1 || events[1].index != 2 || events[1].count != 2 {
		t.Fatalf("unexpected events: %#v", events)
	}
}

func TestRunAbortsOnFirstFailure(t *testing.T) {
	e := newTestExecutor(t)
	src := writeFixtureDocx(t, "text")

	pl := ops.Pipeline{
		{Type: "bold_keywords", Params: ops.Params{"use_extracted": true}},
		{Type: "set_text_color", Params: ops.Params{"hex_color": "112233"}},
	}

	var reported int
	report := func(int, int, string) { reported++ }

	_, err := e.Run(context.Background(), ops.DocTypeDOCX, src, pl, "job-5", "out.docx", report)
	if err == nil {
		t.Fatal("expected failure")
	}
	if reported != 0 {
		t.Fatalf("progress reported for failed step: %d", reported)
	}
	// 成果物は作られない
	if _, statErr := os.Stat(filepath.Join(e.WorkspaceDir("job-5"), "out", "out.docx")); statErr == nil {
		t.Fatal("artifact exists despite failure")
	}
}

func TestRunUnknownOperation(t *testing.T) {
	e := newTestExecutor(t)
	src := writeFixtureDocx(t, "text")

	_, err := e.Run(context.Background(), ops.DocTypeDOCX, src, ops.Pipeline{{Type: "nope"}}, "job-6", "out.docx", nil)
	var apiErr *ops.Error
	if !errors.As(err, &apiErr) || apiErr.Code != ops.CodeUnknownOperation {
		t.Fatalf("expected UNKNOWN_OPERATION, got %v", err)
	}
}

func TestCleanupRemovesWorkspace(t *testing.T) {
	e := newTestExecutor(t)
	src := writeFixtureDocx(t, "text")

	pl := ops.Pipeline{{Type: "set_text_color", Params: ops.Params{"hex_color": "112233"}}}
	if _, err := e.Run(context.Background(), ops.DocTypeDOCX, src, pl, "job-7", "out.docx", nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	e.Cleanup("job-7")
	if _, err := os.Stat(e.WorkspaceDir("job-7")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("workspace still present: %v", err)
	}
}

func TestRunMissingSourceFile(t *testing.T) {
	e := newTestExecutor(t)

	pl := ops.Pipeline{{Type: "add_page_numbers"}}
	_, err := e.Run(context.Background(), ops.DocTypeDOCX, filepath.Join(t.TempDir(), "gone.docx"), pl, "job-8", "out.docx", nil)
	var apiErr *ops.Error
	if !errors.As(err, &apiErr) || apiErr.Code != ops.CodeInternalError {
		t.Fatalf("expected INTERNAL_ERROR for missing source, got %v", err)
	}
}
