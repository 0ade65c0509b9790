package ops

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Makamaruchan5858/Mightier/internal/docx"
)

var hexColorRe = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

func checkHexColor(p Params, name string) error {
	v, ok, err := p.String(name)
	if err != nil {
		return err
	}
	if ok && !hexColorRe.MatchString(v) {
		return newError(CodeInvalidParameter,
			fmt.Sprintf("%s には6桁の16進カラーコード（例: FF0000）を指定してください。", name), nil)
	}
	return nil
}

// editDocx は入力DOCXを開き、fn を適用して出力先へ保存する共通処理です。
func editDocx(in StepInput, fn func(a *docx.Archive) error) error {
	a, err := docx.Open(in.InputPath)
	if err != nil {
		return newError(CodeOperationFailed, "DOCXファイルを開けませんでした。", err)
	}
	if err := fn(a); err != nil {
		return err
	}
	if err := a.Save(in.OutputPath); err != nil {
		return newError(CodeOperationFailed, "DOCXファイルの保存に失敗しました。", err)
	}
	return nil
}

func capLayoutConvert() *Capability {
	return &Capability{
		Type:     "layout_convert",
		Summary:  "ページの縦横変換と余白設定を行います。",
		DocTypes: []DocType{DocTypeDOCX},
		Params: []ParamSpec{
			{Name: "orientation_change", Kind: ParamBool, Default: false,
				Description: "trueの場合、全セクションの縦横を入れ替えます。"},
			{Name: "margins", Kind: ParamFloatMap,
				Description: "top/bottom/left/right をmm単位で指定します。省略時は上下20mm・左右30mm。"},
		},
		Check: func(p Params) error {
			_, hasOrient, err := p.Bool("orientation_change")
			if err != nil {
				return err
			}
			m, hasMargins, err := p.FloatMap("margins")
			if err != nil {
				return err
			}
			if !hasOrient && !hasMargins {
				return newError(CodeMissingParameter,
					"layout_convert には orientation_change か margins の少なくとも一方を指定してください。", nil)
			}
			for k := range m {
				switch k {
				case "top", "bottom", "left", "right":
				default:
					return newError(CodeInvalidParameter,
						fmt.Sprintf("margins のキー %q は不正です。top/bottom/left/right を指定してください。", k), nil)
				}
			}
			return nil
		},
		Run: func(ctx context.Context, in StepInput, ec *ExecContext) error {
			return editDocx(in, func(a *docx.Archive) error {
				change, _, _ := in.Params.Bool("orientation_change")
				if change {
					if err := a.SwapOrientation(); err != nil {
						return newError(CodeOperationFailed, "縦横変換に失敗しました。", err)
					}
				}
				margins, ok, _ := in.Params.FloatMap("margins")
				if ok {
					get := func(key string, def float64) float64 {
						if v, present := margins[key]; present {
							return v
						}
						return def
					}
					err := a.SetMargins(get("top", 20), get("bottom", 20), get("left", 30), get("right", 30))
					if err != nil {
						return newError(CodeOperationFailed, "余白の設定に失敗しました。", err)
					}
				}
				return nil
			})
		},
	}
}

func capSetPageSize() *Capability {
	return &Capability{
		Type:     "set_page_size",
		Summary:  "ページサイズを規定の用紙サイズへ変更します。",
		DocTypes: []DocType{DocTypeDOCX},
		Params: []ParamSpec{
			{Name: "size_identifier", Kind: ParamString, Required: true,
				Enum: PageSizeIdentifiers(), Description: "用紙サイズ識別子。"},
		},
		Run: func(ctx context.Context, in StepInput, ec *ExecContext) error {
			id, _, _ := in.Params.String("size_identifier")
			size, ok := LookupPageSize(strings.ToUpper(id))
			if !ok {
				return newError(CodeInvalidParameter,
					fmt.Sprintf("未対応の用紙サイズです: %s", id), nil)
			}
			return editDocx(in, func(a *docx.Archive) error {
				if err := a.SetPageSize(size.WidthMM, size.HeightMM); err != nil {
					return newError(CodeOperationFailed, "ページサイズの変更に失敗しました。", err)
				}
				return nil
			})
		},
	}
}

func capSetPageColor() *Capability {
	return &Capability{
		Type:     "set_page_color",
		Summary:  "ページ背景色を設定します。",
		DocTypes: []DocType{DocTypeDOCX},
		Params: []ParamSpec{
			{Name: "hex_color", Kind: ParamString, Required: true,
				Description: "6桁の16進カラーコード（RRGGBB）。"},
		},
		Check: func(p Params) error { return checkHexColor(p, "hex_color") },
		Run: func(ctx context.Context, in StepInput, ec *ExecContext) error {
			hex, _, _ := in.Params.String("hex_color")
			return editDocx(in, func(a *docx.Archive) error {
				if err := a.SetPageColor(hex); err != nil {
					return newError(CodeOperationFailed, "ページ背景色の設定に失敗しました。", err)
				}
				return nil
			})
		},
	}
}

func capSetTextColor() *Capability {
	return &Capability{
		Type:     "set_text_color",
		Summary:  "本文全体の文字色を設定します。",
		DocTypes: []DocType{DocTypeDOCX},
		Params: []ParamSpec{
			{Name: "hex_color", Kind: ParamString, Required: true,
				Description: "6桁の16進カラーコード（RRGGBB）。"},
		},
		Check: func(p Params) error { return checkHexColor(p, "hex_color") },
		Run: func(ctx context.Context, in StepInput, ec *ExecContext) error {
			hex, _, _ := in.Params.String("hex_color")
			return editDocx(in, func(a *docx.Archive) error {
				if err := a.SetTextColor(hex); err != nil {
					return newError(CodeOperationFailed, "文字色の設定に失敗しました。", err)
				}
				return nil
			})
		},
	}
}

func capSetFontProperties() *Capability {
	return &Capability{
		Type:     "set_font_properties",
		Summary:  "本文全体のフォント名・サイズを設定します。",
		DocTypes: []DocType{DocTypeDOCX},
		Params: []ParamSpec{
			{Name: "font_name", Kind: ParamString, Description: "適用するフォント名。"},
			{Name: "font_size_pt", Kind: ParamFloat, Description: "フォントサイズ（ポイント）。"},
		},
		Check: func(p Params) error {
			_, hasName, err := p.String("font_name")
			if err != nil {
				return err
			}
			size, hasSize, err := p.Float("font_size_pt")
			if err != nil {
				return err
			}
			if !hasName && !hasSize {
				return newError(CodeMissingParameter,
					"set_font_properties には font_name か font_size_pt の少なくとも一方を指定してください。", nil)
			}
			if hasSize && size <= 0 {
				return newError(CodeInvalidParameter, "font_size_pt には正の値を指定してください。", nil)
			}
			return nil
		},
		Run: func(ctx context.Context, in StepInput, ec *ExecContext) error {
			name, _, _ := in.Params.String("font_name")
			size, _, _ := in.Params.Float("font_size_pt")
			return editDocx(in, func(a *docx.Archive) error {
				if err := a.SetFont(name, size); err != nil {
					return newError(CodeOperationFailed, "フォント設定に失敗しました。", err)
				}
				return nil
			})
		},
	}
}

func capExtractKeywords() *Capability {
	return &Capability{
		Type:     "extract_keywords_for_bolding",
		Summary:  "本文から頻出キーワードを抽出し、後続の bold_keywords へ渡します。",
		DocTypes: []DocType{DocTypeDOCX},
		Params: []ParamSpec{
			{Name: "top_n", Kind: ParamInt, Default: DefaultKeywordCount,
				Description: "抽出するキーワード数の上限。"},
		},
		Produces: []Slot{SlotExtractedKeywords},
		Check: func(p Params) error {
			n, ok, err := p.Int("top_n")
			if err != nil {
				return err
			}
			if ok && n <= 0 {
				return newError(CodeInvalidParameter, "top_n には正の整数を指定してください。", nil)
			}
			return nil
		},
		Run: func(ctx context.Context, in StepInput, ec *ExecContext) error {
			a, err := docx.Open(in.InputPath)
			if err != nil {
				return newError(CodeOperationFailed, "DOCXファイルを開けませんでした。", err)
			}
			topN, ok, _ := in.Params.Int("top_n")
			if !ok {
				topN = DefaultKeywordCount
			}
			ec.Set(SlotExtractedKeywords, RankKeywords(a.ExtractText(), topN))

			// 文書自体は変更しない
			if err := CopyFile(in.InputPath, in.OutputPath); err != nil {
				return newError(CodeOperationFailed, "作業ファイルの引き継ぎに失敗しました。", err)
			}
			return nil
		},
	}
}

func capBoldKeywords() *Capability {
	return &Capability{
		Type:     "bold_keywords",
		Summary:  "指定したキーワード、または抽出済みキーワードを太字にします。",
		DocTypes: []DocType{DocTypeDOCX},
		Params: []ParamSpec{
			{Name: "keywords_list", Kind: ParamStringList, Description: "太字にするキーワードの一覧。"},
			{Name: "use_extracted", Kind: ParamBool, Default: false,
				Description: "trueの場合、先行する extract_keywords_for_bolding の結果を使います。"},
		},
		Consumes: []Slot{SlotExtractedKeywords},
		Check: func(p Params) error {
			_, hasList, err := p.StringList("keywords_list")
			if err != nil {
				return err
			}
			useExtracted, _, err := p.Bool("use_extracted")
			if err != nil {
				return err
			}
			if !hasList && !useExtracted {
				return newError(CodeMissingParameter,
					"bold_keywords には keywords_list を指定するか use_extracted を有効にしてください。", nil)
			}
			return nil
		},
		Run: func(ctx context.Context, in StepInput, ec *ExecContext) error {
			useExtracted, _, _ := in.Params.Bool("use_extracted")
			var keywords []string
			if useExtracted {
				extracted, ok := ec.Keywords(SlotExtractedKeywords)
				if !ok {
					return newError(CodeContextMissing,
						"抽出済みキーワードがありません。先に extract_keywords_for_bolding を実行してください。", nil)
				}
				keywords = extracted
			} else {
				keywords, _, _ = in.Params.StringList("keywords_list")
			}
			return editDocx(in, func(a *docx.Archive) error {
				if err := a.BoldKeywords(keywords); err != nil {
					return newError(CodeOperationFailed, "キーワードの太字化に失敗しました。", err)
				}
				return nil
			})
		},
	}
}
