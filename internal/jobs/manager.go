package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/Makamaruchan5858/Mightier/internal/config"
	"github.com/Makamaruchan5858/Mightier/internal/document"
	"github.com/Makamaruchan5858/Mightier/internal/ops"
	"github.com/Makamaruchan5858/Mightier/internal/pipeline"
)

const (
	taskTypeProcess = "doc:process"
	queueDocuments  = "docs"
)

// Manager はジョブの投入・実行・状態管理を担います。
type Manager struct {
	cfg       *config.Config
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	store     *Store
	documents *document.Service
	registry  *ops.Registry
	executor  *pipeline.Executor
	logger    *log.Logger
}

// TaskPayload は文書処理ジョブのペイロードです。
type TaskPayload struct {
	JobID string `json:"jobId"`
}

// NewManager は Manager を初期化します。
func NewManager(cfg *config.Config, documents *document.Service, registry *ops.Registry, executor *pipeline.Executor, store *Store, logger *log.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if documents == nil {
		return nil, errors.New("documents is nil")
	}
	if registry == nil {
		return nil, errors.New("registry is nil")
	}
	if executor == nil {
		return nil, errors.New("executor is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	opt, err := asynq.ParseRedisURI(cfg.QueueRedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				queueDocuments: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	manager := &Manager{
		cfg:       cfg,
		client:    client,
		server:    server,
		mux:       mux,
		store:     store,
		documents: documents,
		registry:  registry,
		executor:  executor,
		logger:    logger,
	}
	mux.HandleFunc(taskTypeProcess, manager.handleProcessTask)
	return manager, nil
}

// StartWorkers は Asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	go func() {
		if err := m.server.Run(m.mux); err != nil && err != asynq.ErrServerClosed {
			m.logger.Printf("asynq server stopped with error: %v", err)
		}
	}()
}

// Shutdown はサーバーとクライアントを閉じます。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.server.Shutdown()
	m.client.Close()
	return nil
}

// Submit はパイプラインを検証してジョブを作成し、キューへ投入します。
// 検証に失敗した場合はジョブを作成せずエラーを返します。
func (m *Manager) Submit(ctx context.Context, fileID string, pl ops.Pipeline, outputFilename string) (*Record, error) {
	handle, err := m.documents.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if err := m.registry.ValidatePipeline(handle.Type, pl); err != nil {
		return nil, err
	}

	record := &Record{
		JobID:          uuid.New().String(),
		FileID:         fileID,
		OutputFilename: document.DefaultOutputFilename(outputFilename, handle.OriginalName, handle.Type),
		Pipeline:       pl,
	}
	if err := m.store.Create(ctx, record); err != nil {
		return nil, ops.NewError(ops.CodeInternalError, "ジョブの作成に失敗しました。", err)
	}

	payload, err := json.Marshal(&TaskPayload{JobID: record.JobID})
	if err != nil {
		_ = m.store.Delete(ctx, record.JobID)
		return nil, ops.NewError(ops.CodeInternalError, "ジョブの作成に失敗しました。", err)
	}

	task := asynq.NewTask(taskTypeProcess, payload, asynq.Queue(queueDocuments))
	if _, err := m.client.EnqueueContext(ctx, task, asynq.MaxRetry(1)); err != nil {
		_ = m.store.Delete(ctx, record.JobID)
		return nil, ops.NewError(ops.CodeInternalError, "ジョブのキュー投入に失敗しました。", err)
	}

	m.logger.Printf("[jobs] submitted job=%s file=%s steps=%d", record.JobID, fileID, len(pl))
	return record, nil
}

// GetRecord はジョブ情報を取得します。
func (m *Manager) GetRecord(ctx context.Context, jobID string) (*Record, error) {
	return m.store.Get(ctx, jobID)
}

func (m *Manager) handleProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	if payload.JobID == "" {
		return fmt.Errorf("missing jobId in payload")
	}

	record, began, err := m.store.Begin(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// レコードが期限切れで消えている。再試行しても意味がない
			m.logger.Printf("[jobs] job record expired job=%s", payload.JobID)
			return nil
		}
		return err
	}
	if !began {
		// 再配送。既に実行中か終端状態なので何もしない
		m.logger.Printf("[jobs] duplicate delivery ignored job=%s status=%s", payload.JobID, record.Status)
		return nil
	}

	handle, err := m.documents.Get(ctx, record.FileID)
	if err != nil {
		return m.failJob(ctx, payload.JobID, err)
	}

	report := func(stepIndex, stepCount int, message string) {
		percent := 0
		if stepCount > 0 {
			percent = stepIndex * 100 / stepCount
		}
		if err := m.store.UpdateProgress(ctx, payload.JobID, ProgressInfo{
			Percent: percent,
			Message: message,
		}); err != nil {
			m.logger.Printf("[jobs] failed to update progress job=%s: %v", payload.JobID, err)
		}
	}

	artifact, err := m.executor.Run(ctx, handle.Type, handle.StoredPath, record.Pipeline, record.JobID, record.OutputFilename, report)
	if err != nil {
		m.executor.Cleanup(payload.JobID)
		return m.failJob(ctx, payload.JobID, err)
	}

	if err := m.store.Succeed(ctx, payload.JobID, artifact.Path, artifact.Size); err != nil {
		return err
	}
	m.logger.Printf("[jobs] completed job=%s output=%s size=%d", payload.JobID, artifact.Filename, artifact.Size)
	m.scheduleCleanup(payload.JobID)
	return nil
}

// failJob はジョブを failed にし、タスク自体は成功扱いにします。
// 業務エラーはキュー側で再試行しても結果が変わらないためです。
func (m *Manager) failJob(ctx context.Context, jobID string, cause error) error {
	info := &ErrorInfo{Code: ops.CodeInternalError, Message: "処理中に予期しないエラーが発生しました。"}

	var apiErr *ops.Error
	if errors.As(cause, &apiErr) {
		info.Code = apiErr.Code
		info.Message = apiErr.Message
	}
	var stepErr *pipeline.StepError
	if errors.As(cause, &stepErr) {
		info.Message = fmt.Sprintf("operations[%d] %s: %s", stepErr.Index, stepErr.OpType, info.Message)
	}

	if err := m.store.Fail(ctx, jobID, info); err != nil {
		m.logger.Printf("[jobs] failed to record failure job=%s: %v", jobID, err)
		return err
	}
	m.logger.Printf("[jobs] failed job=%s code=%s", jobID, info.Code)
	return nil
}

// scheduleCleanup はレコードの保持期間経過後に作業ディレクトリを削除します。
func (m *Manager) scheduleCleanup(jobID string) {
	ttl := time.Duration(m.cfg.JobExpireMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	time.AfterFunc(ttl, func() {
		m.executor.Cleanup(jobID)
	})
}
