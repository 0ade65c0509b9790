// Package ops は文書操作のレジストリと各操作の実装を提供します。
package ops

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DocType は処理対象の文書種別を表します。
type DocType string

const (
	DocTypeDOCX DocType = "docx"
	DocTypePDF  DocType = "pdf"
)

// OperationSpec はクライアントが要求した1操作を表します。
type OperationSpec struct {
	Type   string `json:"type"`
	Params Params `json:"params,omitempty"`
}

// Pipeline は順序付きの操作列です。先頭から順に実行されます。
type Pipeline []OperationSpec

// ParamKind はパラメーターの型種別です。
type ParamKind string

const (
	ParamString     ParamKind = "string"
	ParamInt        ParamKind = "int"
	ParamFloat      ParamKind = "float"
	ParamBool       ParamKind = "bool"
	ParamStringList ParamKind = "string_list"
	ParamFloatMap   ParamKind = "float_map"
	ParamFloatPair  ParamKind = "float_pair"
)

// ParamSpec は操作パラメーターのスキーマです。
type ParamSpec struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"kind"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Description string    `json:"description,omitempty"`
}

// StepInput は1ステップ実行時の入出力情報です。
// 操作は InputPath の文書を読み、変換結果を OutputPath へ書き出します。
type StepInput struct {
	DocType    DocType
	InputPath  string
	OutputPath string
	Params     Params
}

// CapabilityFunc は操作本体の実装です。
type CapabilityFunc func(ctx context.Context, in StepInput, ec *ExecContext) error

// Capability は登録済み操作の定義一式です。
type Capability struct {
	Type     string
	Summary  string
	DocTypes []DocType
	Params   []ParamSpec
	Produces []Slot
	Consumes []Slot

	// Check はスキーマ検証後に呼ばれる相関チェックです（任意）。
	Check func(p Params) error
	Run   CapabilityFunc
}

// Supports は指定の文書種別に対応しているかを返します。
func (c *Capability) Supports(dt DocType) bool {
	for _, t := range c.DocTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Registry は操作種別から Capability への不変な対応表です。
// プロセス起動時に一度だけ構築し、検証と実行の両方へ明示的に渡します。
type Registry struct {
	caps  map[string]*Capability
	order []string
}

// NewRegistry は全操作を登録したレジストリを構築します。
func NewRegistry() *Registry {
	r := &Registry{caps: make(map[string]*Capability)}
	for _, c := range []*Capability{
		capLayoutConvert(),
		capSetPageSize(),
		capSetPageColor(),
		capSetTextColor(),
		capSetFontProperties(),
		capAddPageNumbers(),
		capExtractKeywords(),
		capBoldKeywords(),
		capRotatePages(),
		capResizeAndMargin(),
	} {
		r.register(c)
	}
	return r
}

func (r *Registry) register(c *Capability) {
	if _, exists := r.caps[c.Type]; exists {
		panic(fmt.Sprintf("duplicate operation type: %s", c.Type))
	}
	r.caps[c.Type] = c
	r.order = append(r.order, c.Type)
}

// Lookup は操作種別に対応する Capability を返します。
func (r *Registry) Lookup(opType string) (*Capability, bool) {
	c, ok := r.caps[opType]
	return c, ok
}

// ValidateSpec は1操作の妥当性を文書種別込みで検証します。実行は伴いません。
func (r *Registry) ValidateSpec(dt DocType, spec OperationSpec) error {
	c, ok := r.caps[spec.Type]
	if !ok {
		return newError(CodeUnknownOperation, fmt.Sprintf("未知の操作種別です: %s", spec.Type), nil)
	}
	if !c.Supports(dt) {
		return newError(CodeUnsupportedOperation, fmt.Sprintf("操作 %s は %s 文書では利用できません。", spec.Type, dt), nil)
	}

	params := spec.Params
	if params == nil {
		params = Params{}
	}
	for _, ps := range c.Params {
		if _, present := params[ps.Name]; !present {
			if ps.Required {
				return newError(CodeMissingParameter, fmt.Sprintf("操作 %s に必須パラメーター %s がありません。", spec.Type, ps.Name), nil)
			}
			continue
		}
		if err := checkParamKind(params, ps); err != nil {
			return err
		}
	}
	if c.Check != nil {
		if err := c.Check(params); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePipeline はパイプライン全体を投入前に検証します。
// 検証エラーの場合、ジョブは作成されません。
func (r *Registry) ValidatePipeline(dt DocType, pl Pipeline) error {
	if len(pl) == 0 {
		return newError(CodeInvalidInput, "operations には1つ以上の操作を指定してください。", nil)
	}
	for i, spec := range pl {
		if err := r.ValidateSpec(dt, spec); err != nil {
			var opErr *Error
			if errors.As(err, &opErr) {
				// どのステップで弾かれたかを応答メッセージに残す
				return newError(opErr.Code,
					fmt.Sprintf("operations[%d] %s: %s", i, spec.Type, opErr.Message), err)
			}
			return fmt.Errorf("operations[%d]: %w", i, err)
		}
	}
	return nil
}

func checkParamKind(p Params, ps ParamSpec) error {
	switch ps.Kind {
	case ParamString:
		s, _, err := p.String(ps.Name)
		if err != nil {
			return err
		}
		if len(ps.Enum) > 0 && !stringIn(s, ps.Enum) {
			return newError(CodeInvalidParameter, fmt.Sprintf("%s には %v のいずれかを指定してください (received: %s)", ps.Name, ps.Enum, s), nil)
		}
	case ParamInt:
		_, _, err := p.Int(ps.Name)
		return err
	case ParamFloat:
		_, _, err := p.Float(ps.Name)
		return err
	case ParamBool:
		_, _, err := p.Bool(ps.Name)
		return err
	case ParamStringList:
		_, _, err := p.StringList(ps.Name)
		return err
	case ParamFloatMap:
		_, _, err := p.FloatMap(ps.Name)
		return err
	case ParamFloatPair:
		_, _, err := p.FloatPair(ps.Name)
		return err
	}
	return nil
}

func stringIn(s string, list []string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// CatalogEntry は操作カタログの1項目です。クライアントのリクエスト組み立てに使われます。
type CatalogEntry struct {
	Type     string      `json:"type"`
	Summary  string      `json:"summary"`
	DocTypes []DocType   `json:"docTypes"`
	Params   []ParamSpec `json:"params"`
	Produces []Slot      `json:"produces,omitempty"`
	Consumes []Slot      `json:"consumes,omitempty"`
}

// Catalog は登録順の操作一覧を返します。
func (r *Registry) Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(r.order))
	for _, opType := range r.order {
		c := r.caps[opType]
		entries = append(entries, CatalogEntry{
			Type:     c.Type,
			Summary:  c.Summary,
			DocTypes: c.DocTypes,
			Params:   c.Params,
			Produces: c.Produces,
			Consumes: c.Consumes,
		})
	}
	return entries
}
