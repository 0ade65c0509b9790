package ops

import (
	"context"
	"fmt"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Makamaruchan5858/Mightier/internal/docx"
)

func capRotatePages() *Capability {
	return &Capability{
		Type:     "rotate_pages",
		Summary:  "全ページを指定角度だけ回転します。",
		DocTypes: []DocType{DocTypePDF},
		Params: []ParamSpec{
			{Name: "rotation_degrees", Kind: ParamInt, Default: 90,
				Enum: []string{"90", "180", "270"}, Description: "時計回りの回転角度。"},
		},
		Check: func(p Params) error {
			deg, ok, err := p.Int("rotation_degrees")
			if err != nil {
				return err
			}
			if ok && deg != 90 && deg != 180 && deg != 270 {
				return newError(CodeInvalidParameter,
					"rotation_degrees には 90・180・270 のいずれかを指定してください。", nil)
			}
			return nil
		},
		Run: func(ctx context.Context, in StepInput, ec *ExecContext) error {
			deg, ok, _ := in.Params.Int("rotation_degrees")
			if !ok {
				deg = 90
			}
			if err := pdfapi.RotateFile(in.InputPath, in.OutputPath, deg, nil, nil); err != nil {
				return newError(CodeOperationFailed, "ページの回転に失敗しました。", err)
			}
			return nil
		},
	}
}

func capResizeAndMargin() *Capability {
	return &Capability{
		Type:     "resize_and_margin",
		Summary:  "ページサイズの変更と、本文を縮小して収める余白付けを行います。",
		DocTypes: []DocType{DocTypePDF},
		Params: []ParamSpec{
			{Name: "target_size_identifier", Kind: ParamString,
				Enum: PageSizeIdentifiers(), Description: "変更後の用紙サイズ識別子。"},
			{Name: "custom_target_size_mm", Kind: ParamFloatPair,
				Description: "[幅, 高さ] をmm単位で指定します。"},
			{Name: "margins_mm", Kind: ParamFloatMap,
				Description: "top/bottom/left/right の余白（mm）。最大値が全周に適用されます。"},
		},
		Check: func(p Params) error {
			id, hasID, err := p.String("target_size_identifier")
			if err != nil {
				return err
			}
			if hasID {
				if _, ok := LookupPageSize(strings.ToUpper(id)); !ok {
					return newError(CodeInvalidParameter,
						fmt.Sprintf("未対応の用紙サイズです: %s", id), nil)
				}
			}
			pair, hasPair, err := p.FloatPair("custom_target_size_mm")
			if err != nil {
				return err
			}
			if hasPair && (pair[0] <= 0 || pair[1] <= 0) {
				return newError(CodeInvalidParameter,
					"custom_target_size_mm には正の幅・高さを指定してください。", nil)
			}
			margins, hasMargins, err := p.FloatMap("margins_mm")
			if err != nil {
				return err
			}
			if hasMargins {
				for k, v := range margins {
					switch k {
					case "top", "bottom", "left", "right":
					default:
						return newError(CodeInvalidParameter,
							fmt.Sprintf("margins_mm のキー %q は不正です。top/bottom/left/right を指定してください。", k), nil)
					}
					if v < 0 {
						return newError(CodeInvalidParameter, "margins_mm には0以上の値を指定してください。", nil)
					}
				}
			}
			if !hasID && !hasPair && !hasMargins {
				return newError(CodeMissingParameter,
					"resize_and_margin には target_size_identifier・custom_target_size_mm・margins_mm のいずれかを指定してください。", nil)
			}
			return nil
		},
		Run: runResizeAndMargin,
	}
}

func runResizeAndMargin(ctx context.Context, in StepInput, ec *ExecContext) error {
	widthPt, heightPt, err := resizeTargetPoints(in)
	if err != nil {
		return err
	}

	margins, hasMargins, _ := in.Params.FloatMap("margins_mm")
	marginPt := 0.0
	if hasMargins {
		for _, v := range margins {
			if v*MMToPoints > marginPt {
				marginPt = v * MMToPoints
			}
		}
	}
	if marginPt*2 >= widthPt || marginPt*2 >= heightPt {
		return newError(CodeInvalidParameter, "余白が変更後のページサイズに対して大きすぎます。", nil)
	}

	if marginPt > 0 {
		// 1-upレイアウトで本文を縮小配置し、余白を確保する
		desc := fmt.Sprintf("dimensions:%.2f %.2f, margin:%.2f, border:off", widthPt, heightPt, marginPt)
		nup, err := pdfapi.PDFNUpConfig(1, desc, nil)
		if err != nil {
			return newError(CodeOperationFailed, "余白設定の解析に失敗しました。", err)
		}
		if err := pdfapi.NUpFile([]string{in.InputPath}, in.OutputPath, nil, nup, nil); err != nil {
			return newError(CodeOperationFailed, "余白付きリサイズに失敗しました。", err)
		}
		return nil
	}

	rs, err := pdfcpu.ParseResizeConfig(fmt.Sprintf("dimensions:%.2f %.2f", widthPt, heightPt), types.POINTS)
	if err != nil {
		return newError(CodeOperationFailed, "リサイズ設定の解析に失敗しました。", err)
	}
	if err := pdfapi.ResizeFile(in.InputPath, in.OutputPath, nil, rs, nil); err != nil {
		return newError(CodeOperationFailed, "ページサイズの変更に失敗しました。", err)
	}
	return nil
}

// resizeTargetPoints は変更後のページ寸法をポイント単位で決定します。
// サイズ指定が無い場合は先頭ページの寸法を維持します。
func resizeTargetPoints(in StepInput) (float64, float64, error) {
	if id, ok, _ := in.Params.String("target_size_identifier"); ok {
		size, found := LookupPageSize(strings.ToUpper(id))
		if !found {
			return 0, 0, newError(CodeInvalidParameter,
				fmt.Sprintf("未対応の用紙サイズです: %s", id), nil)
		}
		return size.WidthMM * MMToPoints, size.HeightMM * MMToPoints, nil
	}
	if pair, ok, _ := in.Params.FloatPair("custom_target_size_mm"); ok {
		return pair[0] * MMToPoints, pair[1] * MMToPoints, nil
	}

	dims, err := pdfapi.PageDimsFile(in.InputPath)
	if err != nil || len(dims) == 0 {
		return 0, 0, newError(CodeOperationFailed, "PDFのページ寸法を取得できませんでした。", err)
	}
	return dims[0].Width, dims[0].Height, nil
}

func capAddPageNumbers() *Capability {
	return &Capability{
		Type:     "add_page_numbers",
		Summary:  "各ページの下部中央にページ番号を追加します。",
		DocTypes: []DocType{DocTypeDOCX, DocTypePDF},
		Params: []ParamSpec{
			{Name: "font_name", Kind: ParamString, Default: "Helvetica",
				Description: "ページ番号のフォント名（PDFのみ）。"},
			{Name: "font_size_pt", Kind: ParamFloat, Default: 10.0,
				Description: "ページ番号のフォントサイズ（PDFのみ）。"},
			{Name: "position_bottom_mm", Kind: ParamFloat, Default: 10.0,
				Description: "下端からの距離（mm、PDFのみ）。"},
		},
		Check: func(p Params) error {
			size, ok, err := p.Float("font_size_pt")
			if err != nil {
				return err
			}
			if ok && size <= 0 {
				return newError(CodeInvalidParameter, "font_size_pt には正の値を指定してください。", nil)
			}
			offset, ok, err := p.Float("position_bottom_mm")
			if err != nil {
				return err
			}
			if ok && offset < 0 {
				return newError(CodeInvalidParameter, "position_bottom_mm には0以上の値を指定してください。", nil)
			}
			return nil
		},
		Run: func(ctx context.Context, in StepInput, ec *ExecContext) error {
			if in.DocType == DocTypeDOCX {
				return editDocx(in, func(a *docx.Archive) error {
					if err := a.AddPageNumberFooter(); err != nil {
						return newError(CodeOperationFailed, "ページ番号フッターの追加に失敗しました。", err)
					}
					return nil
				})
			}
			return addPDFPageNumbers(in)
		},
	}
}

func addPDFPageNumbers(in StepInput) error {
	font, ok, _ := in.Params.String("font_name")
	if !ok || font == "" {
		font = "Helvetica"
	}
	size, ok, _ := in.Params.Float("font_size_pt")
	if !ok {
		size = 10
	}
	bottomMM, ok, _ := in.Params.Float("position_bottom_mm")
	if !ok {
		bottomMM = 10
	}

	desc := fmt.Sprintf(
		"fontname:%s, points:%.1f, position:bc, offset:0 %.2f, scalefactor:1 abs, rotation:0, fillcolor:#000000",
		font, size, bottomMM*MMToPoints)
	wm, err := pdfapi.TextWatermark("%p", desc, true, false, types.POINTS)
	if err != nil {
		return newError(CodeOperationFailed, "ページ番号の設定解析に失敗しました。", err)
	}
	if err := pdfapi.AddWatermarksFile(in.InputPath, in.OutputPath, nil, wm, nil); err != nil {
		return newError(CodeOperationFailed, "ページ番号の追加に失敗しました。", err)
	}
	return nil
}
