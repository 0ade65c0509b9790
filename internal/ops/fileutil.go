package ops

import (
	"fmt"
	"io"
	"os"
)

// CopyFile は src の内容を dst へ複製します。dst は上書きされます。
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("コピー元を開けません: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("コピー先を作成できません: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("ファイルのコピーに失敗しました: %w", err)
	}
	return out.Sync()
}
