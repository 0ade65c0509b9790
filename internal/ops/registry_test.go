package ops

import (
	"errors"
	"strings"
	"testing"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Fatalf("error code = %s, want %s (message: %s)", apiErr.Code, code, apiErr.Message)
	}
}

func TestValidateSpecUnknownOperation(t *testing.T) {
	r := NewRegistry()
	err := r.ValidateSpec(DocTypeDOCX, OperationSpec{Type: "not_a_real_operation"})
	assertCode(t, err, CodeUnknownOperation)
}

func TestValidateSpecUnsupportedDocType(t *testing.T) {
	r := NewRegistry()
	err := r.ValidateSpec(DocTypePDF, OperationSpec{
		Type:   "set_page_color",
		Params: Params{"hex_color": "FF0000"},
	})
	assertCode(t, err, CodeUnsupportedOperation)

	err = r.ValidateSpec(DocTypeDOCX, OperationSpec{Type: "rotate_pages"})
	assertCode(t, err, CodeUnsupportedOperation)
}

func TestValidateSpecMissingRequiredParameter(t *testing.T) {
	r := NewRegistry()
	err := r.ValidateSpec(DocTypeDOCX, OperationSpec{Type: "set_page_size"})
	assertCode(t, err, CodeMissingParameter)
}

func TestValidateSpecWrongParameterType(t *testing.T) {
	r := NewRegistry()
	err := r.ValidateSpec(DocTypeDOCX, OperationSpec{
		Type:   "set_font_properties",
		Params: Params{"font_size_pt": "twelve"},
	})
	assertCode(t, err, CodeInvalidParameter)
}

func TestValidateSpecEnum(t *testing.T) {
	r := NewRegistry()
	err := r.ValidateSpec(DocTypeDOCX, OperationSpec{
		Type:   "set_page_size",
		Params: Params{"size_identifier": "A7"},
	})
	assertCode(t, err, CodeInvalidParameter)

	// 識別子は大文字小文字を区別しない
	if err := r.ValidateSpec(DocTypeDOCX, OperationSpec{
		Type:   "set_page_size",
		Params: Params{"size_identifier": "a5"},
	}); err != nil {
		t.Fatalf("lowercase size identifier rejected: %v", err)
	}
}

func TestValidateSpecCrossParameterCheck(t *testing.T) {
	r := NewRegistry()

	err := r.ValidateSpec(DocTypeDOCX, OperationSpec{Type: "set_font_properties"})
	assertCode(t, err, CodeMissingParameter)

	err = r.ValidateSpec(DocTypeDOCX, OperationSpec{Type: "bold_keywords", Params: Params{}})
	assertCode(t, err, CodeMissingParameter)

	// use_extracted だけの指定は投入時には妥当。依存スロットの検査は実行時に行われる
	if err := r.ValidateSpec(DocTypeDOCX, OperationSpec{
		Type:   "bold_keywords",
		Params: Params{"use_extracted": true},
	}); err != nil {
		t.Fatalf("bold_keywords with use_extracted rejected: %v", err)
	}
}

func TestValidatePipelineEmpty(t *testing.T) {
	r := NewRegistry()
	err := r.ValidatePipeline(DocTypeDOCX, Pipeline{})
	assertCode(t, err, CodeInvalidInput)
}

func TestValidatePipelineReportsStepIndex(t *testing.T) {
	r := NewRegistry()
	err := r.ValidatePipeline(DocTypeDOCX, Pipeline{
		{Type: "set_page_size", Params: Params{"size_identifier": "A4"}},
		{Type: "bogus_op"},
	})
	assertCode(t, err, CodeUnknownOperation)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !strings.HasPrefix(apiErr.Message, "operations[1] bogus_op: ") {
		t.Fatalf("message does not name the failed step: %q", apiErr.Message)
	}
}

func TestValidatePipelineSuccess(t *testing.T) {
	r := NewRegistry()
	err := r.ValidatePipeline(DocTypeDOCX, Pipeline{
		{Type: "extract_keywords_for_bolding", Params: Params{"top_n": 5}},
		{Type: "bold_keywords", Params: Params{"use_extracted": true}},
		{Type: "add_page_numbers"},
	})
	if err != nil {
		t.Fatalf("valid pipeline rejected: %v", err)
	}
}

func TestValidatePipelinePDF(t *testing.T) {
	r := NewRegistry()
	err := r.ValidatePipeline(DocTypePDF, Pipeline{
		{Type: "rotate_pages", Params: Params{"rotation_degrees": 180}},
		{Type: "resize_and_margin", Params: Params{"target_size_identifier": "A4"}},
		{Type: "add_page_numbers", Params: Params{"font_size_pt": 12.0}},
	})
	if err != nil {
		t.Fatalf("valid pdf pipeline rejected: %v", err)
	}

	err = r.ValidatePipeline(DocTypePDF, Pipeline{
		{Type: "rotate_pages", Params: Params{"rotation_degrees": 45}},
	})
	assertCode(t, err, CodeInvalidParameter)
}

func TestCatalogListsAllOperations(t *testing.T) {
	r := NewRegistry()
	catalog := r.Catalog()
	if len(catalog) != 10 {
		t.Fatalf("catalog has %d entries, want 10", len(catalog))
	}

	byType := make(map[string]CatalogEntry)
	for _, entry := range catalog {
		byType[entry.Type] = entry
	}

	extract, ok := byType["extract_keywords_for_bolding"]
	if !ok {
		t.Fatal("extract_keywords_for_bolding missing from catalog")
	}
	if len(extract.Produces) != 1 || extract.Produces[0] != SlotExtractedKeywords {
		t.Fatalf("unexpected produces: %#v", extract.Produces)
	}

	bold, ok := byType["bold_keywords"]
	if !ok {
		t.Fatal("bold_keywords missing from catalog")
	}
	if len(bold.Consumes) != 1 || bold.Consumes[0] != SlotExtractedKeywords {
		t.Fatalf("unexpected consumes: %#v", bold.Consumes)
	}
}
