package ops

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultKeywordCount は extract_keywords_for_bolding の top_n 既定値です。
const DefaultKeywordCount = 20

var wordRe = regexp.MustCompile(`[\p{L}\p{N}']+`)

// 頻度集計から除外する定常語。
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {},
	"on": {}, "or": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "will": {}, "with": {},
	"これ": {}, "それ": {}, "あれ": {}, "ため": {}, "こと": {}, "もの": {},
}

// RankKeywords は本文から出現頻度の高い語を topN 件まで抽出します。
// 同頻度の語は長い順、さらに辞書順で安定に並べます。
func RankKeywords(text string, topN int) []string {
	if topN <= 0 {
		topN = DefaultKeywordCount
	}

	counts := make(map[string]int)
	display := make(map[string]string)
	for _, w := range wordRe.FindAllString(text, -1) {
		if len([]rune(w)) < 2 {
			continue
		}
		key := strings.ToLower(w)
		if _, skip := stopwords[key]; skip {
			continue
		}
		counts[key]++
		if _, seen := display[key]; !seen {
			display[key] = w
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	if len(keys) > topN {
		keys = keys[:topN]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = display[k]
	}
	return out
}
