package ops

// Slot は実行コンテキスト内の名前付きスロットを表します。
type Slot string

// SlotExtractedKeywords は抽出済みキーワードを後続ステップへ渡すスロットです。
const SlotExtractedKeywords Slot = "extracted_keywords"

// ExecContext は1回のパイプライン実行に閉じた共有コンテキストです。
// 先行ステップの出力を後続ステップが読み取るために使い、実行終了とともに破棄されます。
type ExecContext struct {
	values map[Slot]any
}

// NewExecContext は空の ExecContext を作成します。
func NewExecContext() *ExecContext {
	return &ExecContext{values: make(map[Slot]any)}
}

// Set はスロットへ値を格納します。
func (c *ExecContext) Set(slot Slot, value any) {
	c.values[slot] = value
}

// Lookup はスロットの値を取得します。
func (c *ExecContext) Lookup(slot Slot) (any, bool) {
	v, ok := c.values[slot]
	return v, ok
}

// Keywords はスロットからキーワード一覧を取得します。
func (c *ExecContext) Keywords(slot Slot) ([]string, bool) {
	v, ok := c.values[slot]
	if !ok {
		return nil, false
	}
	kw, ok := v.([]string)
	if !ok || len(kw) == 0 {
		return nil, false
	}
	return kw, true
}
