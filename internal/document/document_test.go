package document

import (
	"testing"

	"github.com/Makamaruchan5858/Mightier/internal/docx"
	"github.com/Makamaruchan5858/Mightier/internal/ops"
)

func TestDetectTypeDocx(t *testing.T) {
	data := docx.BuildSimple("検出テスト")
	dt, ok := DetectType("report.docx", data)
	if !ok || dt != ops.DocTypeDOCX {
		t.Fatalf("DetectType = (%s, %v)", dt, ok)
	}
}

func TestDetectTypePDF(t *testing.T) {
	data := []byte("%PDF-1.4\n% dummy pdf content\n")
	dt, ok := DetectType("paper.pdf", data)
	if !ok || dt != ops.DocTypePDF {
		t.Fatalf("DetectType = (%s, %v)", dt, ok)
	}
}

func TestDetectTypeRejectsUnknownExtension(t *testing.T) {
	if _, ok := DetectType("notes.txt", []byte("plain text")); ok {
		t.Fatal("txt accepted")
	}
}

func TestDetectTypeRejectsMismatchedContent(t *testing.T) {
	// 拡張子はpdfだが中身はただのテキスト
	if _, ok := DetectType("fake.pdf", []byte("hello world")); ok {
		t.Fatal("mismatched content accepted")
	}
	// 拡張子はdocxだが中身はPDF
	if _, ok := DetectType("fake.docx", []byte("%PDF-1.4\n")); ok {
		t.Fatal("pdf content accepted as docx")
	}
}

func TestDefaultOutputFilename(t *testing.T) {
	cases := []struct {
		requested, original string
		dt                  ops.DocType
		want                string
	}{
		{"", "report.docx", ops.DocTypeDOCX, "report_processed.docx"},
		{"", "paper.pdf", ops.DocTypePDF, "paper_processed.pdf"},
		{"final.docx", "report.docx", ops.DocTypeDOCX, "final.docx"},
		// 拡張子は元文書の種別に強制される
		{"final.pdf", "report.docx", ops.DocTypeDOCX, "final.docx"},
		{"final", "paper.pdf", ops.DocTypePDF, "final.pdf"},
		// パス区切りはベース名に落とす
		{"../../etc/passwd.docx", "report.docx", ops.DocTypeDOCX, "passwd.docx"},
	}
	for _, tc := range cases {
		got := DefaultOutputFilename(tc.requested, tc.original, tc.dt)
		if got != tc.want {
			t.Fatalf("DefaultOutputFilename(%q, %q, %s) = %q, want %q",
				tc.requested, tc.original, tc.dt, got, tc.want)
		}
	}
}

func TestContentType(t *testing.T) {
	if ContentType(ops.DocTypePDF) != "application/pdf" {
		t.Fatal("pdf content type wrong")
	}
	if ContentType(ops.DocTypeDOCX) != mimeDOCX {
		t.Fatal("docx content type wrong")
	}
}
