// Package jobs は文書処理ジョブの状態管理と非同期実行を提供します。
package jobs

import (
	"time"

	"github.com/Makamaruchan5858/Mightier/internal/ops"
)

// Status はジョブの実行状態を表します。
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal は終端状態かどうかを返します。
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProgressInfo は進捗の補足情報を表します。
type ProgressInfo struct {
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
}

// ErrorInfo はジョブ失敗時のエラー情報を保持します。
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Record はジョブの現在状態を表します。
type Record struct {
	JobID          string       `json:"jobId"`
	FileID         string       `json:"fileId"`
	OutputFilename string       `json:"outputFilename"`
	Pipeline       ops.Pipeline `json:"pipeline"`
	Status         Status       `json:"status"`
	Progress       ProgressInfo `json:"progress"`
	OutputPath     string       `json:"outputPath,omitempty"`
	OutputSize     int64        `json:"outputSize,omitempty"`
	Error          *ErrorInfo   `json:"error,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	ExpiresAt      time.Time    `json:"expiresAt"`
}

// beginTransition は begin 時の遷移先を返します。
// queued 以外からは遷移せず、再配送時の二重実行を防ぎます。
func beginTransition(s Status) (Status, bool) {
	if s == StatusQueued {
		return StatusProcessing, true
	}
	return s, false
}

// canRecordProgress は進捗更新が許される状態かを返します。
func canRecordProgress(s Status) bool {
	return s == StatusProcessing
}

// canSucceed は completed への遷移が許される状態かを返します。
func canSucceed(s Status) bool {
	return s == StatusProcessing
}

// canFail は failed への遷移が許される状態かを返します。
// 実行開始前に入力が失われた場合は queued から直接 failed になります。
func canFail(s Status) bool {
	return s == StatusQueued || s == StatusProcessing
}
