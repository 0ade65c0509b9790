package ops

import (
	"fmt"
	"math"
)

// Params は操作のパラメーター集合です。JSONから復元されたmapを想定します。
type Params map[string]any

// String は文字列パラメーターを取得します。
func (p Params) String(name string) (string, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, newError(CodeInvalidParameter, fmt.Sprintf("%s は文字列で指定してください。", name), nil)
	}
	return s, true, nil
}

// Int は整数パラメーターを取得します。JSON経由のfloat64も受け付けます。
func (p Params) Int(name string) (int, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, false, newError(CodeInvalidParameter, fmt.Sprintf("%s は整数で指定してください。", name), nil)
		}
		return int(n), true, nil
	default:
		return 0, false, newError(CodeInvalidParameter, fmt.Sprintf("%s は整数で指定してください。", name), nil)
	}
}

// Float は数値パラメーターを取得します。
func (p Params) Float(name string) (float64, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case float64:
		return n, true, nil
	default:
		return 0, false, newError(CodeInvalidParameter, fmt.Sprintf("%s は数値で指定してください。", name), nil)
	}
}

// Bool は真偽値パラメーターを取得します。
func (p Params) Bool(name string) (bool, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, false, newError(CodeInvalidParameter, fmt.Sprintf("%s は真偽値で指定してください。", name), nil)
	}
	return b, true, nil
}

// StringList は文字列配列パラメーターを取得します。
func (p Params) StringList(name string) ([]string, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return nil, false, nil
	}
	switch list := v.(type) {
	case []string:
		return list, true, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false, newError(CodeInvalidParameter, fmt.Sprintf("%s は文字列配列で指定してください。", name), nil)
			}
			out = append(out, s)
		}
		return out, true, nil
	default:
		return nil, false, newError(CodeInvalidParameter, fmt.Sprintf("%s は文字列配列で指定してください。", name), nil)
	}
}

// FloatMap は {名前: 数値} 形式のパラメーターを取得します。マージン指定などに使います。
func (p Params) FloatMap(name string) (map[string]float64, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return nil, false, nil
	}
	switch m := v.(type) {
	case map[string]float64:
		return m, true, nil
	case map[string]any:
		out := make(map[string]float64, len(m))
		for k, item := range m {
			f, err := toFloat(item)
			if err != nil {
				return nil, false, newError(CodeInvalidParameter, fmt.Sprintf("%s.%s は数値で指定してください。", name, k), nil)
			}
			out[k] = f
		}
		return out, true, nil
	default:
		return nil, false, newError(CodeInvalidParameter, fmt.Sprintf("%s はオブジェクトで指定してください。", name), nil)
	}
}

// FloatPair は [幅, 高さ] のような数値2要素の配列を取得します。
func (p Params) FloatPair(name string) ([2]float64, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return [2]float64{}, false, nil
	}
	list, ok := v.([]any)
	if !ok {
		if pair, isPair := v.([2]float64); isPair {
			return pair, true, nil
		}
		return [2]float64{}, false, newError(CodeInvalidParameter, fmt.Sprintf("%s は数値2要素の配列で指定してください。", name), nil)
	}
	if len(list) != 2 {
		return [2]float64{}, false, newError(CodeInvalidParameter, fmt.Sprintf("%s は数値2要素の配列で指定してください。", name), nil)
	}
	var pair [2]float64
	for i, item := range list {
		f, err := toFloat(item)
		if err != nil {
			return [2]float64{}, false, newError(CodeInvalidParameter, fmt.Sprintf("%s は数値2要素の配列で指定してください。", name), nil)
		}
		pair[i] = f
	}
	return pair, true, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
