// Package storage はアップロードファイルの保存先を抽象化します。
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store はバイト列の保存と取り出しを行います。
type Store interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Load(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// Local はローカルファイルシステム上のストアです。
type Local struct {
	root string
}

// NewLocal は保存先ディレクトリを用意してストアを返します。
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: 保存先ディレクトリが指定されていません")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("storage: 保存先ディレクトリを作成できません: %w", err)
	}
	return &Local{root: root}, nil
}

// Save は name で data を保存し、絶対パスを返します。
// name はベース名のみ使用し、ディレクトリトラバーサルを防ぎます。
func (l *Local) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("storage: ファイル名が不正です: %q", name)
	}
	path := filepath.Join(l.root, base)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("storage: ファイルの保存に失敗しました: %w", err)
	}
	return path, nil
}

func (l *Local) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: ファイルの読み込みに失敗しました: %w", err)
	}
	return data, nil
}

func (l *Local) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: ファイルの削除に失敗しました: %w", err)
	}
	return nil
}
