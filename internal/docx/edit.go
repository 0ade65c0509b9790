package docx

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	pgSzRe       = regexp.MustCompile(`<w:pgSz[^>]*/>`)
	pgMarRe      = regexp.MustCompile(`<w:pgMar[^>]*/>`)
	sectPrOpenRe = regexp.MustCompile(`<w:sectPr(\s[^>]*)?>`)
	backgroundRe = regexp.MustCompile(`(?s)<w:background[^>]*/>|<w:background[^>]*>.*?</w:background>`)
	docOpenRe    = regexp.MustCompile(`<w:document[^>]*>`)
	settingsRe   = regexp.MustCompile(`<w:settings[^>]*>`)
	footerRefRe  = regexp.MustCompile(`<w:footerReference[^>]*/>`)
	textRunRe    = regexp.MustCompile(`(?s)^(<w:rPr>.*?</w:rPr>|<w:rPr/>)?<w:t(\s[^>]*)?>(.*)</w:t>$`)
	wtRe         = regexp.MustCompile(`(?s)<w:t[^>]*>(.*?)</w:t>`)
	relIDRe      = regexp.MustCompile(`Id="rId(\d+)"`)
)

// SetPageSize は全セクションのページサイズを設定します。
// 現在の向きを保ち、縦向きなら短辺を幅に、横向きなら長辺を幅に割り当てます。
func (a *Archive) SetPageSize(widthMM, heightMM float64) error {
	doc, _ := a.Part(PartDocument)
	s := string(doc)
	if !sectPrOpenRe.MatchString(s) {
		return fmt.Errorf("sectPr が見つかりません")
	}

	short, long := Twips(widthMM), Twips(heightMM)
	if short > long {
		short, long = long, short
	}

	if pgSzRe.MatchString(s) {
		s = pgSzRe.ReplaceAllStringFunc(s, func(tag string) string {
			orient, _ := tagAttr(tag, "w:orient")
			w, h := short, long
			if orient == "landscape" {
				w, h = long, short
			}
			tag = setTagAttr(tag, "w:w", strconv.Itoa(w))
			tag = setTagAttr(tag, "w:h", strconv.Itoa(h))
			return tag
		})
	} else {
		s = sectPrOpenRe.ReplaceAllStringFunc(s, func(open string) string {
			return open + fmt.Sprintf(`<w:pgSz w:w="%d" w:h="%d"/>`, short, long)
		})
	}

	a.SetPart(PartDocument, []byte(s))
	return nil
}

// SwapOrientation は全セクションの縦横を入れ替えます。
func (a *Archive) SwapOrientation() error {
	doc, _ := a.Part(PartDocument)
	s := string(doc)
	if !pgSzRe.MatchString(s) {
		return fmt.Errorf("pgSz が見つかりません")
	}

	s = pgSzRe.ReplaceAllStringFunc(s, func(tag string) string {
		wStr, okW := tagAttr(tag, "w:w")
		hStr, okH := tagAttr(tag, "w:h")
		if !okW || !okH {
			return tag
		}
		w, errW := strconv.Atoi(wStr)
		h, errH := strconv.Atoi(hStr)
		if errW != nil || errH != nil {
			return tag
		}
		tag = setTagAttr(tag, "w:w", strconv.Itoa(h))
		tag = setTagAttr(tag, "w:h", strconv.Itoa(w))
		if orient, _ := tagAttr(tag, "w:orient"); orient == "landscape" {
			tag = dropTagAttr(tag, "w:orient")
		} else {
			tag = setTagAttr(tag, "w:orient", "landscape")
		}
		return tag
	})

	a.SetPart(PartDocument, []byte(s))
	return nil
}

// SetMargins は全セクションの余白をmm単位で設定します。
func (a *Archive) SetMargins(topMM, bottomMM, leftMM, rightMM float64) error {
	doc, _ := a.Part(PartDocument)
	s := string(doc)
	if !sectPrOpenRe.MatchString(s) {
		return fmt.Errorf("sectPr が見つかりません")
	}

	apply := func(tag string) string {
		tag = setTagAttr(tag, "w:top", strconv.Itoa(Twips(topMM)))
		tag = setTagAttr(tag, "w:bottom", strconv.Itoa(Twips(bottomMM)))
		tag = setTagAttr(tag, "w:left", strconv.Itoa(Twips(leftMM)))
		tag = setTagAttr(tag, "w:right", strconv.Itoa(Twips(rightMM)))
		return tag
	}

	if pgMarRe.MatchString(s) {
		s = pgMarRe.ReplaceAllStringFunc(s, apply)
	} else {
		s = sectPrOpenRe.ReplaceAllStringFunc(s, func(open string) string {
			return open + apply(`<w:pgMar/>`)
		})
	}

	a.SetPart(PartDocument, []byte(s))
	return nil
}

// SetPageColor はページ背景色を設定します。hexは6桁のRRGGBBです。
// 背景要素は w:document 直下に置き、settings.xml の displayBackgroundShape を有効にします。
func (a *Archive) SetPageColor(hex string) error {
	doc, _ := a.Part(PartDocument)
	s := string(doc)

	s = backgroundRe.ReplaceAllString(s, "")
	loc := docOpenRe.FindStringIndex(s)
	if loc == nil {
		return fmt.Errorf("w:document が見つかりません")
	}
	s = s[:loc[1]] + fmt.Sprintf(`<w:background w:color="%s"/>`, strings.ToUpper(hex)) + s[loc[1]:]
	a.SetPart(PartDocument, []byte(s))

	settings, ok := a.Part(PartSettings)
	if !ok {
		return a.createSettingsPart()
	}
	ss := string(settings)
	if !strings.Contains(ss, "<w:displayBackgroundShape/>") {
		if loc := settingsRe.FindStringIndex(ss); loc != nil {
			ss = ss[:loc[1]] + "<w:displayBackgroundShape/>" + ss[loc[1]:]
			a.SetPart(PartSettings, []byte(ss))
		}
	}
	return nil
}

// SetTextColor は文書中の全ランの文字色を設定します。
func (a *Archive) SetTextColor(hex string) error {
	doc, _ := a.Part(PartDocument)
	colorXML := fmt.Sprintf(`<w:color w:val="%s"/>`, strings.ToUpper(hex))
	out := mutateRuns(doc, func(run []byte) []byte {
		return ensureRunProp(run, "w:color", colorXML)
	})
	a.SetPart(PartDocument, out)
	return nil
}

// SetFont はフォント名・サイズ（ポイント）を文書全体へ適用します。
// name が空、sizePt が0の項目は変更しません。
func (a *Archive) SetFont(name string, sizePt float64) error {
	doc, _ := a.Part(PartDocument)
	out := doc
	if name != "" {
		fontsXML := fmt.Sprintf(`<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/>`, escapeXML(name), escapeXML(name), escapeXML(name))
		out = mutateRuns(out, func(run []byte) []byte {
			return ensureRunProp(run, "w:rFonts", fontsXML)
		})
	}
	if sizePt > 0 {
		half := HalfPoints(sizePt)
		out = mutateRuns(out, func(run []byte) []byte {
			run = ensureRunProp(run, "w:szCs", fmt.Sprintf(`<w:szCs w:val="%d"/>`, half))
			return ensureRunProp(run, "w:sz", fmt.Sprintf(`<w:sz w:val="%d"/>`, half))
		})
	}
	a.SetPart(PartDocument, out)
	return nil
}

const footerPartName = "word/footerPageNumbers.xml"

const footerRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"

const footerContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"

const footerXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:fldChar w:fldCharType="begin"/></w:r><w:r><w:instrText xml:space="preserve">PAGE</w:instrText></w:r><w:r><w:fldChar w:fldCharType="end"/></w:r></w:p></w:ftr>`

// AddPageNumberFooter は中央揃えのページ番号フッターを全セクションへ追加します。
// 既存のフッター参照は置き換えます。
func (a *Archive) AddPageNumberFooter() error {
	a.SetPart(footerPartName, []byte(footerXML))
	if err := a.addContentTypeOverride("/"+footerPartName, footerContentType); err != nil {
		return err
	}
	rid, err := a.addRelationship(footerRelType, "footerPageNumbers.xml")
	if err != nil {
		return err
	}

	doc, _ := a.Part(PartDocument)
	s := string(doc)
	if !sectPrOpenRe.MatchString(s) {
		return fmt.Errorf("sectPr が見つかりません")
	}
	s = footerRefRe.ReplaceAllString(s, "")
	s = sectPrOpenRe.ReplaceAllStringFunc(s, func(open string) string {
		return open + fmt.Sprintf(`<w:footerReference w:type="default" r:id="%s"/>`, rid)
	})

	// r名前空間が未宣言の文書には宣言を足す
	if loc := docOpenRe.FindStringIndex(s); loc != nil {
		open := s[loc[0]:loc[1]]
		if !strings.Contains(open, "xmlns:r=") {
			open = strings.Replace(open, ">",
				` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`, 1)
			s = s[:loc[0]] + open + s[loc[1]:]
		}
	}

	a.SetPart(PartDocument, []byte(s))
	return nil
}

// BoldKeywords は本文中のキーワードを太字にします。大文字小文字は区別しません。
// 長いキーワードを優先して照合します。
func (a *Archive) BoldKeywords(keywords []string) error {
	valid := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" {
			valid = append(valid, kw)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	sort.Slice(valid, func(i, j int) bool { return len(valid[i]) > len(valid[j]) })

	quoted := make([]string, len(valid))
	for i, kw := range valid {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	kwRe, err := regexp.Compile(`(?i)` + strings.Join(quoted, "|"))
	if err != nil {
		return fmt.Errorf("キーワードの正規表現生成に失敗しました: %w", err)
	}

	doc, _ := a.Part(PartDocument)
	out := mutateRuns(doc, func(run []byte) []byte {
		return boldRun(run, kwRe)
	})
	a.SetPart(PartDocument, out)
	return nil
}

// boldRun は単一ランをキーワード区切りで分割し、一致部分を太字ランに置き換えます。
// 単純なテキストラン以外（フィールドや改行を含むラン）はそのまま残します。
func boldRun(run []byte, kwRe *regexp.Regexp) []byte {
	s := string(run)
	gt := strings.Index(s, ">")
	if gt < 0 || !strings.HasSuffix(s, "</w:r>") {
		return run
	}
	inner := s[gt+1 : len(s)-len("</w:r>")]

	m := textRunRe.FindStringSubmatch(inner)
	if m == nil {
		return run
	}
	rPr := m[1]
	text := unescapeXML(m[3])
	if !kwRe.MatchString(text) {
		return run
	}

	boldPr := "<w:rPr><w:b/></w:rPr>"
	if rPr != "" && rPr != "<w:rPr/>" {
		if strings.Contains(rPr, "<w:b/>") || strings.Contains(rPr, "<w:b ") {
			boldPr = rPr
		} else {
			boldPr = strings.Replace(rPr, "<w:rPr>", "<w:rPr><w:b/>", 1)
		}
	}

	var b strings.Builder
	last := 0
	for _, loc := range kwRe.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			writeTextRun(&b, rPr, text[last:loc[0]])
		}
		writeTextRun(&b, boldPr, text[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		writeTextRun(&b, rPr, text[last:])
	}
	return []byte(b.String())
}

func writeTextRun(b *strings.Builder, rPr, text string) {
	b.WriteString("<w:r>")
	if rPr != "" && rPr != "<w:rPr/>" {
		b.WriteString(rPr)
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	b.WriteString(escapeXML(text))
	b.WriteString("</w:t></w:r>")
}

// ExtractText は本文テキストを段落ごとに改行区切りで抽出します。
func (a *Archive) ExtractText() string {
	doc, _ := a.Part(PartDocument)
	paragraphs := strings.Split(string(doc), "</w:p>")
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		var sb strings.Builder
		for _, m := range wtRe.FindAllStringSubmatch(p, -1) {
			sb.WriteString(unescapeXML(m[1]))
		}
		if sb.Len() > 0 {
			lines = append(lines, sb.String())
		}
	}
	return strings.Join(lines, "\n")
}

func (a *Archive) addContentTypeOverride(partName, contentType string) error {
	ct, ok := a.Part(PartContentTypes)
	if !ok {
		return fmt.Errorf("[Content_Types].xml が見つかりません")
	}
	s := string(ct)
	if strings.Contains(s, fmt.Sprintf(`PartName="%s"`, partName)) {
		return nil
	}
	idx := strings.LastIndex(s, "</Types>")
	if idx < 0 {
		return fmt.Errorf("[Content_Types].xml の形式が不正です")
	}
	override := fmt.Sprintf(`<Override PartName="%s" ContentType="%s"/>`, partName, contentType)
	a.SetPart(PartContentTypes, []byte(s[:idx]+override+s[idx:]))
	return nil
}

func (a *Archive) addRelationship(relType, target string) (string, error) {
	rels, ok := a.Part(PartDocumentRels)
	if !ok {
		rels = []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`)
	}
	s := string(rels)

	// 既存なら同じIDを返す
	existingRe := regexp.MustCompile(`<Relationship Id="(rId\d+)"[^>]*Target="` + regexp.QuoteMeta(target) + `"`)
	if m := existingRe.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}

	maxID := 0
	for _, m := range relIDRe.FindAllStringSubmatch(s, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxID {
			maxID = n
		}
	}
	rid := fmt.Sprintf("rId%d", maxID+1)

	idx := strings.LastIndex(s, "</Relationships>")
	if idx < 0 {
		return "", fmt.Errorf("document.xml.rels の形式が不正です")
	}
	rel := fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="%s"/>`, rid, relType, target)
	a.SetPart(PartDocumentRels, []byte(s[:idx]+rel+s[idx:]))
	return rid, nil
}

func (a *Archive) createSettingsPart() error {
	a.SetPart(PartSettings, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:displayBackgroundShape/></w:settings>`))
	if err := a.addContentTypeOverride("/"+PartSettings, "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"); err != nil {
		return err
	}
	_, err := a.addRelationship("http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings", "settings.xml")
	return err
}
