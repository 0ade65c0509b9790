// Package document はアップロードされた文書の受付・保存・参照を提供します。
package document

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Makamaruchan5858/Mightier/internal/ops"
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePDF  = "application/pdf"
)

// Handle はアップロード済み文書への参照です。
type Handle struct {
	FileID       string      `json:"fileId"`
	OriginalName string      `json:"originalName"`
	Type         ops.DocType `json:"type"`
	Size         int64       `json:"size"`
	StoredPath   string      `json:"storedPath"`
	UploadedAt   time.Time   `json:"uploadedAt"`
}

// DetectType は拡張子と先頭バイトの両方から文書種別を判定します。
// 拡張子と内容が食い違う場合は判定失敗とします。
func DetectType(filename string, data []byte) (ops.DocType, bool) {
	var want ops.DocType
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		want = ops.DocTypeDOCX
	case ".pdf":
		want = ops.DocTypePDF
	default:
		return "", false
	}

	mt := mimetype.Detect(data)
	switch want {
	case ops.DocTypeDOCX:
		if mt.Is(mimeDOCX) || mt.Is("application/zip") {
			return ops.DocTypeDOCX, true
		}
	case ops.DocTypePDF:
		if mt.Is(mimePDF) {
			return ops.DocTypePDF, true
		}
	}
	return "", false
}

// ContentType は文書種別に対応するMIMEタイプを返します。
func ContentType(dt ops.DocType) string {
	if dt == ops.DocTypePDF {
		return mimePDF
	}
	return mimeDOCX
}

// DefaultOutputFilename は出力ファイル名を決定します。
// 未指定なら「<元名>_processed<拡張子>」とし、拡張子は常に元文書の種別に合わせます。
func DefaultOutputFilename(requested, originalName string, dt ops.DocType) string {
	ext := "." + string(dt)
	name := strings.TrimSpace(requested)
	if name == "" {
		base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
		return base + "_processed" + ext
	}
	name = filepath.Base(name)
	if !strings.EqualFold(filepath.Ext(name), ext) {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ext
	}
	return name
}
