package docx

import (
	"fmt"
	"regexp"
	"strings"
)

// TwipsPerMM は1mmあたりのtwip数です（1440 twip/インチ、25.4mm/インチ）。
const TwipsPerMM = 1440.0 / 25.4

// Twips はmm値をtwipへ変換します。
func Twips(mm float64) int {
	return int(mm*TwipsPerMM + 0.5)
}

// HalfPoints はポイント値をOOXMLのフォントサイズ単位（半ポイント）へ変換します。
func HalfPoints(pt float64) int {
	return int(pt*2 + 0.5)
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

var unescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func escapeXML(s string) string {
	return escaper.Replace(s)
}

func unescapeXML(s string) string {
	return unescaper.Replace(s)
}

// setTagAttr は自己終了タグ1つの属性を設定（既存は置換、なければ追加）します。
func setTagAttr(tag, name, value string) string {
	attrRe := regexp.MustCompile(regexp.QuoteMeta(name) + `="[^"]*"`)
	if attrRe.MatchString(tag) {
		return attrRe.ReplaceAllString(tag, fmt.Sprintf(`%s="%s"`, name, value))
	}
	idx := strings.LastIndex(tag, "/>")
	if idx < 0 {
		idx = strings.LastIndex(tag, ">")
		if idx < 0 {
			return tag
		}
		return tag[:idx] + fmt.Sprintf(` %s="%s"`, name, value) + tag[idx:]
	}
	return tag[:idx] + fmt.Sprintf(` %s="%s"`, name, value) + tag[idx:]
}

// dropTagAttr はタグから属性を取り除きます。
func dropTagAttr(tag, name string) string {
	attrRe := regexp.MustCompile(`\s*` + regexp.QuoteMeta(name) + `="[^"]*"`)
	return attrRe.ReplaceAllString(tag, "")
}

// tagAttr はタグの属性値を取得します。
func tagAttr(tag, name string) (string, bool) {
	attrRe := regexp.MustCompile(regexp.QuoteMeta(name) + `="([^"]*)"`)
	m := attrRe.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// mutateRuns は document.xml 中の各 <w:r> 要素へ変換を適用します。
// ラン要素は入れ子にならないため、開きタグから直近の閉じタグまでを1要素として扱います。
func mutateRuns(doc []byte, fn func(run []byte) []byte) []byte {
	var out []byte
	src := doc
	for {
		idx := indexRunOpen(src)
		if idx < 0 {
			out = append(out, src...)
			break
		}
		end := indexRunClose(src, idx)
		if end < 0 {
			out = append(out, src...)
			break
		}
		out = append(out, src[:idx]...)
		out = append(out, fn(src[idx:end])...)
		src = src[end:]
	}
	return out
}

func indexRunOpen(src []byte) int {
	offset := 0
	for {
		i := indexBytes(src[offset:], "<w:r")
		if i < 0 {
			return -1
		}
		i += offset
		rest := src[i+len("<w:r"):]
		if len(rest) > 0 && (rest[0] == '>' || rest[0] == ' ') {
			return i
		}
		offset = i + len("<w:r")
	}
}

func indexRunClose(src []byte, from int) int {
	i := indexBytes(src[from:], "</w:r>")
	if i < 0 {
		return -1
	}
	return from + i + len("</w:r>")
}

func indexBytes(src []byte, sub string) int {
	return strings.Index(string(src), sub)
}

var rPrBlockRe = regexp.MustCompile(`(?s)<w:rPr>.*?</w:rPr>|<w:rPr/>`)

// ensureRunProp はランの rPr に指定プロパティを設定します。
// 既存の同名プロパティは置き換え、rPr が無いランには新設します。
func ensureRunProp(run []byte, propTag, propXML string) []byte {
	s := string(run)
	propRe := regexp.MustCompile(`<` + regexp.QuoteMeta(propTag) + `(\s[^>]*)?/>`)

	if loc := rPrBlockRe.FindStringIndex(s); loc != nil {
		block := s[loc[0]:loc[1]]
		if block == "<w:rPr/>" {
			block = "<w:rPr>" + propXML + "</w:rPr>"
		} else {
			block = propRe.ReplaceAllString(block, "")
			block = strings.Replace(block, "<w:rPr>", "<w:rPr>"+propXML, 1)
		}
		return []byte(s[:loc[0]] + block + s[loc[1]:])
	}

	gt := strings.Index(s, ">")
	if gt < 0 {
		return run
	}
	return []byte(s[:gt+1] + "<w:rPr>" + propXML + "</w:rPr>" + s[gt+1:])
}
