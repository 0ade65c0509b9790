package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Makamaruchan5858/Mightier/internal/ops"
)

// NotReadyError はジョブが未完了のままダウンロードされたことを表します。
// 現在の状態を保持し、ハンドラー側で応答に含めます。
type NotReadyError struct {
	Status Status
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("job not ready: status=%s", e.Status)
}

// ResultFile は完了ジョブの成果物メタデータです。
type ResultFile struct {
	JobID    string
	Filename string
	Size     int64
	DocType  ops.DocType
}

// RecordGetter はジョブ情報の参照を提供します。*Store が実装します。
type RecordGetter interface {
	Get(ctx context.Context, jobID string) (*Record, error)
}

// OpenResult は完了済みジョブの成果物を開きます。
// ジョブが completed 以外の場合は *NotReadyError を、
// ジョブまたは成果物が存在しない場合はコード付きエラーを返します。
func OpenResult(ctx context.Context, records RecordGetter, jobID string) (*ResultFile, io.ReadCloser, error) {
	record, err := records.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ops.NewError(ops.CodeJobNotFound, "指定されたジョブは存在しません。", err)
		}
		return nil, nil, ops.NewError(ops.CodeInternalError, "ジョブ情報の取得に失敗しました。", err)
	}

	if record.Status != StatusCompleted {
		return nil, nil, &NotReadyError{Status: record.Status}
	}

	file, err := os.Open(record.OutputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ops.NewError(ops.CodeJobNotFound, "ジョブの成果物は既に削除されています。", err)
		}
		return nil, nil, ops.NewError(ops.CodeInternalError, "ジョブの成果物を開けませんでした。", err)
	}

	dt := ops.DocTypeDOCX
	if strings.EqualFold(filepath.Ext(record.OutputFilename), ".pdf") {
		dt = ops.DocTypePDF
	}

	return &ResultFile{
		JobID:    record.JobID,
		Filename: record.OutputFilename,
		Size:     record.OutputSize,
		DocType:  dt,
	}, file, nil
}

// OpenResult は Manager のストアを使って成果物を開きます。
func (m *Manager) OpenResult(ctx context.Context, jobID string) (*ResultFile, io.ReadCloser, error) {
	return OpenResult(ctx, m.store, jobID)
}
