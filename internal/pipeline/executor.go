// Package pipeline は操作列を作業ディレクトリ上で順次実行します。
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Makamaruchan5858/Mightier/internal/ops"
	"github.com/Makamaruchan5858/Mightier/internal/storage"
)

// ProgressFunc は各ステップ完了後に呼ばれる進捗通知です。
type ProgressFunc func(stepIndex, stepCount int, message string)

// StepError は失敗したステップの位置と操作種別を保持します。
type StepError struct {
	Index  int
	OpType string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("operations[%d] %s: %v", e.Index, e.OpType, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Artifact は実行結果の成果物です。
type Artifact struct {
	Path     string
	Filename string
	Size     int64
}

// Executor は1ジョブ分のパイプラインを専用の作業領域で実行します。
// 入力文書の取り出しは files を経由します。
type Executor struct {
	registry *ops.Registry
	files    storage.Store
	workRoot string
	logger   *log.Logger
}

func NewExecutor(registry *ops.Registry, files storage.Store, workRoot string, logger *log.Logger) *Executor {
	return &Executor{registry: registry, files: files, workRoot: workRoot, logger: logger}
}

// WorkspaceDir はジョブの作業ディレクトリのパスを返します。
func (e *Executor) WorkspaceDir(jobID string) string {
	return filepath.Join(e.workRoot, jobID)
}

// Cleanup はジョブの作業ディレクトリを削除します。
func (e *Executor) Cleanup(jobID string) {
	if err := os.RemoveAll(e.WorkspaceDir(jobID)); err != nil {
		e.logger.Printf("[pipeline] workspace cleanup failed job=%s err=%v", jobID, err)
	}
}

// Run は sourcePath の文書へ操作列を順に適用し、成果物を返します。
// いずれかのステップが失敗した時点で中断し *StepError を返します。
// 成果物は作業ディレクトリ配下に残るため、呼び出し側が Cleanup の時機を管理します。
func (e *Executor) Run(ctx context.Context, dt ops.DocType, sourcePath string, pl ops.Pipeline, jobID, outputFilename string, report ProgressFunc) (*Artifact, error) {
	if report == nil {
		report = func(int, int, string) {}
	}

	dir := e.WorkspaceDir(jobID)
	inDir := filepath.Join(dir, "in")
	outDir := filepath.Join(dir, "out")
	for _, d := range []string{inDir, outDir} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return nil, ops.NewError(ops.CodeInternalError, "作業ディレクトリを作成できませんでした。", err)
		}
	}

	ext := "." + string(dt)
	current := filepath.Join(inDir, "source"+ext)
	data, err := e.files.Load(ctx, sourcePath)
	if err != nil {
		return nil, ops.NewError(ops.CodeInternalError, "入力ファイルの読み込みに失敗しました。", err)
	}
	if err := os.WriteFile(current, data, 0o640); err != nil {
		return nil, ops.NewError(ops.CodeInternalError, "入力ファイルの複製に失敗しました。", err)
	}

	ec := ops.NewExecContext()
	total := len(pl)
	for i, spec := range pl {
		if err := ctx.Err(); err != nil {
			return nil, &StepError{Index: i, OpType: spec.Type, Err: err}
		}

		c, ok := e.registry.Lookup(spec.Type)
		if !ok {
			return nil, &StepError{Index: i, OpType: spec.Type,
				Err: ops.NewError(ops.CodeUnknownOperation, fmt.Sprintf("未対応の操作です: %s", spec.Type), nil)}
		}

		next := filepath.Join(inDir, fmt.Sprintf("step_%02d_%s%s", i+1, spec.Type, ext))
		in := ops.StepInput{
			DocType:    dt,
			InputPath:  current,
			OutputPath: next,
			Params:     spec.Params,
		}

		e.logger.Printf("[pipeline] job=%s step=%d/%d op=%s", jobID, i+1, total, spec.Type)
		if err := c.Run(ctx, in, ec); err != nil {
			return nil, &StepError{Index: i, OpType: spec.Type, Err: err}
		}

		current = next
		report(i+1, total, fmt.Sprintf("操作 %s が完了しました（%d/%d）。", spec.Type, i+1, total))
	}

	resultPath := filepath.Join(outDir, outputFilename)
	if err := ops.CopyFile(current, resultPath); err != nil {
		return nil, ops.NewError(ops.CodeInternalError, "成果物の出力に失敗しました。", err)
	}
	info, err := os.Stat(resultPath)
	if err != nil {
		return nil, ops.NewError(ops.CodeInternalError, "成果物の確認に失敗しました。", err)
	}

	return &Artifact{Path: resultPath, Filename: outputFilename, Size: info.Size()}, nil
}
