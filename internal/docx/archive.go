// Package docx は WordprocessingML (.docx) アーカイブの読み書きと
// パート単位の書き換えを提供します。文書構造を保ったまま、対象パートの
// XMLだけを置き換えます。
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
)

// 主要パート名。
const (
	PartDocument     = "word/document.xml"
	PartSettings     = "word/settings.xml"
	PartContentTypes = "[Content_Types].xml"
	PartDocumentRels = "word/_rels/document.xml.rels"
)

// Archive は展開済みの .docx を表します。パートの順序は元のまま保持されます。
type Archive struct {
	names []string
	parts map[string][]byte
}

// Open はファイルパスから .docx を読み込みます。
func Open(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read docx: %w", err)
	}
	return Parse(data)
}

// Parse はバイト列から .docx を読み込みます。
func Parse(data []byte) (*Archive, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docxの展開に失敗しました: %w", err)
	}

	a := &Archive{parts: make(map[string][]byte)}
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("docxパート %s のオープンに失敗しました: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("docxパート %s の読み込みに失敗しました: %w", f.Name, err)
		}
		a.names = append(a.names, f.Name)
		a.parts[f.Name] = content
	}

	if _, ok := a.parts[PartDocument]; !ok {
		return nil, fmt.Errorf("word/document.xml を含まないアーカイブです")
	}
	return a, nil
}

// Part はパートの内容を返します。
func (a *Archive) Part(name string) ([]byte, bool) {
	data, ok := a.parts[name]
	return data, ok
}

// SetPart はパートの内容を置き換えます。存在しない場合は末尾に追加します。
func (a *Archive) SetPart(name string, data []byte) {
	if _, exists := a.parts[name]; !exists {
		a.names = append(a.names, name)
	}
	a.parts[name] = data
}

// Save はアーカイブをファイルへ書き出します。
func (a *Archive) Save(path string) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("docxファイルの作成に失敗しました: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, name := range a.names {
		fw, err := w.Create(name)
		if err != nil {
			w.Close()
			return fmt.Errorf("docxパート %s の書き込みに失敗しました: %w", name, err)
		}
		if _, err := fw.Write(a.parts[name]); err != nil {
			w.Close()
			return fmt.Errorf("docxパート %s の書き込みに失敗しました: %w", name, err)
		}
	}
	return w.Close()
}

// Bytes はアーカイブをバイト列として書き出します。
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range a.names {
		fw, err := w.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(a.parts[name]); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
