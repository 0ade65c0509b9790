package docx

import (
	"strings"
	"testing"
)

func parseFixture(t *testing.T, paragraphs ...string) *Archive {
	t.Helper()
	a, err := Parse(BuildSimple(paragraphs...))
	if err != nil {
		t.Fatalf("Parse fixture: %v", err)
	}
	return a
}

func documentXML(t *testing.T, a *Archive) string {
	t.Helper()
	doc, ok := a.Part(PartDocument)
	if !ok {
		t.Fatal("document part missing")
	}
	return string(doc)
}

func TestParseRejectsNonDocx(t *testing.T) {
	if _, err := Parse([]byte("not a zip")); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestSetPageSize(t *testing.T) {
	a := parseFixture(t, "本文")
	// A5: 148x210mm
	if err := a.SetPageSize(148, 210); err != nil {
		t.Fatalf("SetPageSize: %v", err)
	}
	doc := documentXML(t, a)
	if !strings.Contains(doc, `w:w="8391"`) || !strings.Contains(doc, `w:h="11906"`) {
		t.Fatalf("page size attrs not applied: %s", doc)
	}
}

func TestSetPageSizeKeepsLandscape(t *testing.T) {
	a := parseFixture(t, "本文")
	if err := a.SwapOrientation(); err != nil {
		t.Fatalf("SwapOrientation: %v", err)
	}
	if err := a.SetPageSize(210, 297); err != nil {
		t.Fatalf("SetPageSize: %v", err)
	}
	doc := documentXML(t, a)
	// 横向きのまま長辺が幅になる
	if !strings.Contains(doc, `w:orient="landscape"`) {
		t.Fatalf("orientation lost: %s", doc)
	}
	if !strings.Contains(doc, `w:w="16838"`) || !strings.Contains(doc, `w:h="11906"`) {
		t.Fatalf("landscape dimensions wrong: %s", doc)
	}
}

func TestSwapOrientationRoundTrip(t *testing.T) {
	a := parseFixture(t, "本文")
	if err := a.SwapOrientation(); err != nil {
		t.Fatalf("SwapOrientation: %v", err)
	}
	doc := documentXML(t, a)
	if !strings.Contains(doc, `w:orient="landscape"`) || !strings.Contains(doc, `w:w="16838"`) {
		t.Fatalf("landscape not applied: %s", doc)
	}

	if err := a.SwapOrientation(); err != nil {
		t.Fatalf("SwapOrientation back: %v", err)
	}
	doc = documentXML(t, a)
	if strings.Contains(doc, "landscape") || !strings.Contains(doc, `w:w="11906"`) {
		t.Fatalf("portrait not restored: %s", doc)
	}
}

func TestSetMargins(t *testing.T) {
	a := parseFixture(t, "本文")
	if err := a.SetMargins(20, 20, 30, 30); err != nil {
		t.Fatalf("SetMargins: %v", err)
	}
	doc := documentXML(t, a)
	// 20mm = 1134 twips, 30mm = 1701 twips
	if !strings.Contains(doc, `w:top="1134"`) || !strings.Contains(doc, `w:left="1701"`) {
		t.Fatalf("margins not applied: %s", doc)
	}
}

func TestSetPageColor(t *testing.T) {
	a := parseFixture(t, "本文")
	if err := a.SetPageColor("ff8800"); err != nil {
		t.Fatalf("SetPageColor: %v", err)
	}
	doc := documentXML(t, a)
	if !strings.Contains(doc, `<w:background w:color="FF8800"/>`) {
		t.Fatalf("background missing: %s", doc)
	}
	settings, ok := a.Part(PartSettings)
	if !ok || !strings.Contains(string(settings), "<w:displayBackgroundShape/>") {
		t.Fatalf("displayBackgroundShape missing: %s", settings)
	}

	// 再適用しても background 要素は1つのまま
	if err := a.SetPageColor("00FF00"); err != nil {
		t.Fatalf("SetPageColor again: %v", err)
	}
	doc = documentXML(t, a)
	if strings.Count(doc, "<w:background") != 1 {
		t.Fatalf("background duplicated: %s", doc)
	}
}

func TestSetTextColor(t *testing.T) {
	a := parseFixture(t, "こんにちは", "世界")
	if err := a.SetTextColor("0000FF"); err != nil {
		t.Fatalf("SetTextColor: %v", err)
	}
	doc := documentXML(t, a)
	if strings.Count(doc, `<w:color w:val="0000FF"/>`) != 2 {
		t.Fatalf("color not applied to all runs: %s", doc)
	}
}

func TestSetFont(t *testing.T) {
	a := parseFixture(t, "text")
	if err := a.SetFont("Noto Sans JP", 12); err != nil {
		t.Fatalf("SetFont: %v", err)
	}
	doc := documentXML(t, a)
	if !strings.Contains(doc, `w:ascii="Noto Sans JP"`) {
		t.Fatalf("font name missing: %s", doc)
	}
	// 12pt = 24 half-points
	if !strings.Contains(doc, `<w:sz w:val="24"/>`) || !strings.Contains(doc, `<w:szCs w:val="24"/>`) {
		t.Fatalf("font size missing: %s", doc)
	}
}

func TestSetFontNameOnly(t *testing.T) {
	a := parseFixture(t, "text")
	if err := a.SetFont("Arial", 0); err != nil {
		t.Fatalf("SetFont: %v", err)
	}
	doc := documentXML(t, a)
	if !strings.Contains(doc, `w:ascii="Arial"`) {
		t.Fatalf("font name missing: %s", doc)
	}
	if strings.Contains(doc, "<w:sz ") {
		t.Fatalf("size should be untouched: %s", doc)
	}
}

func TestAddPageNumberFooter(t *testing.T) {
	a := parseFixture(t, "本文")
	if err := a.AddPageNumberFooter(); err != nil {
		t.Fatalf("AddPageNumberFooter: %v", err)
	}

	footer, ok := a.Part("word/footerPageNumbers.xml")
	if !ok {
		t.Fatal("footer part missing")
	}
	if !strings.Contains(string(footer), "PAGE") {
		t.Fatalf("footer has no PAGE field: %s", footer)
	}

	ct, _ := a.Part(PartContentTypes)
	if !strings.Contains(string(ct), "/word/footerPageNumbers.xml") {
		t.Fatalf("content type override missing: %s", ct)
	}

	rels, _ := a.Part(PartDocumentRels)
	if !strings.Contains(string(rels), "footerPageNumbers.xml") {
		t.Fatalf("relationship missing: %s", rels)
	}

	doc := documentXML(t, a)
	if !strings.Contains(doc, "<w:footerReference") {
		t.Fatalf("footerReference missing: %s", doc)
	}
	if !strings.Contains(doc, "xmlns:r=") {
		t.Fatalf("r namespace missing: %s", doc)
	}
}

func TestExtractText(t *testing.T) {
	a := parseFixture(t, "最初の段落", "second paragraph")
	got := a.ExtractText()
	want := "最初の段落\nsecond paragraph"
	if got != want {
		t.Fatalf("ExtractText = %q, want %q", got, want)
	}
}

func TestBoldKeywordsSplitsRuns(t *testing.T) {
	a := parseFixture(t, "the quick brown fox")
	if err := a.BoldKeywords([]string{"quick", "fox"}); err != nil {
		t.Fatalf("BoldKeywords: %v", err)
	}
	doc := documentXML(t, a)
	if strings.Count(doc, "<w:b/>") != 2 {
		t.Fatalf("expected 2 bold runs: %s", doc)
	}
	// 本文テキストは変わらない
	if got := a.ExtractText(); got != "the quick brown fox" {
		t.Fatalf("text changed: %q", got)
	}
}

func TestBoldKeywordsCaseInsensitive(t *testing.T) {
	a := parseFixture(t, "Pipeline and pipeline")
	if err := a.BoldKeywords([]string{"pipeline"}); err != nil {
		t.Fatalf("BoldKeywords: %v", err)
	}
	doc := documentXML(t, a)
	if strings.Count(doc, "<w:b/>") != 2 {
		t.Fatalf("case-insensitive match failed: %s", doc)
	}
}

func TestBoldKeywordsNoMatchLeavesRunIntact(t *testing.T) {
	a := parseFixture(t, "nothing to see here")
	before := documentXML(t, a)
	if err := a.BoldKeywords([]string{"absent"}); err != nil {
		t.Fatalf("BoldKeywords: %v", err)
	}
	if documentXML(t, a) != before {
		t.Fatal("document changed despite no keyword match")
	}
}

func TestBoldKeywordsEmptyListNoop(t *testing.T) {
	a := parseFixture(t, "text")
	before := documentXML(t, a)
	if err := a.BoldKeywords([]string{" ", ""}); err != nil {
		t.Fatalf("BoldKeywords: %v", err)
	}
	if documentXML(t, a) != before {
		t.Fatal("document changed for empty keyword list")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	a := parseFixture(t, "往復")
	if err := a.SetTextColor("333333"); err != nil {
		t.Fatalf("SetTextColor: %v", err)
	}
	path := t.TempDir() + "/out.docx"
	if err := a.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open saved file: %v", err)
	}
	if got := reopened.ExtractText(); got != "往復" {
		t.Fatalf("round-trip text = %q", got)
	}
	doc, _ := reopened.Part(PartDocument)
	if !strings.Contains(string(doc), `<w:color w:val="333333"/>`) {
		t.Fatal("color lost in round trip")
	}
}
