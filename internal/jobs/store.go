package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const jobKeyPrefix = "job:"

// ErrNotFound はジョブが存在しない（または期限切れで消えた）ことを表します。
var ErrNotFound = errors.New("job not found")

// errNoTransition は状態遷移ガードにより更新を行わなかったことを表す内部エラーです。
var errNoTransition = errors.New("transition not allowed")

// Store はジョブ状態を Redis に保存します。
// 1ジョブ1キーのJSONレコードとし、更新は WATCH による楽観ロックで直列化します。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

// Create は新規ジョブを queued 状態で保存します。
func (s *Store) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if record.JobID == "" {
		return fmt.Errorf("jobID is required")
	}
	now := time.Now().UTC()
	record.Status = StatusQueued
	record.Progress = ProgressInfo{Percent: 0, Message: "キューで待機中です。"}
	record.CreatedAt = now
	record.UpdatedAt = now
	if s.ttl > 0 {
		record.ExpiresAt = now.Add(s.ttl)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, jobKey(record.JobID), payload, s.ttl).Err()
}

// Get はジョブ情報を取得します。存在しない場合は ErrNotFound を返します。
func (s *Store) Get(ctx context.Context, jobID string) (*Record, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID is required")
	}
	data, err := s.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Begin は queued → processing の遷移を試みます。
// 既に processing か終端状態の場合は began=false の no-op となり、
// キューの at-least-once 配送による再実行を吸収します。
func (s *Store) Begin(ctx context.Context, jobID string) (*Record, bool, error) {
	began := false
	record, err := s.update(ctx, jobID, func(r *Record) error {
		next, ok := beginTransition(r.Status)
		if !ok {
			return errNoTransition
		}
		began = true
		r.Status = next
		r.Progress = ProgressInfo{Percent: 0, Message: "処理を開始しました。"}
		return nil
	})
	if errors.Is(err, errNoTransition) {
		return record, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return record, began, nil
}

// UpdateProgress は processing 中のジョブの進捗を更新します。
// それ以外の状態では何もしません。
func (s *Store) UpdateProgress(ctx context.Context, jobID string, progress ProgressInfo) error {
	_, err := s.update(ctx, jobID, func(r *Record) error {
		if !canRecordProgress(r.Status) {
			return errNoTransition
		}
		r.Progress = progress
		return nil
	})
	if errors.Is(err, errNoTransition) {
		return nil
	}
	return err
}

// Succeed は processing → completed の遷移と成果物情報の記録を行います。
func (s *Store) Succeed(ctx context.Context, jobID, outputPath string, outputSize int64) error {
	_, err := s.update(ctx, jobID, func(r *Record) error {
		if !canSucceed(r.Status) {
			return fmt.Errorf("cannot complete job in status %s", r.Status)
		}
		r.Status = StatusCompleted
		r.Progress = ProgressInfo{Percent: 100, Message: "全ての操作が完了しました。"}
		r.OutputPath = outputPath
		r.OutputSize = outputSize
		r.Error = nil
		return nil
	})
	return err
}

// Fail は queued/processing → failed の遷移とエラー情報の記録を行います。
func (s *Store) Fail(ctx context.Context, jobID string, errInfo *ErrorInfo) error {
	_, err := s.update(ctx, jobID, func(r *Record) error {
		if !canFail(r.Status) {
			return fmt.Errorf("cannot fail job in status %s", r.Status)
		}
		r.Status = StatusFailed
		if errInfo != nil {
			r.Error = errInfo
		}
		return nil
	})
	return err
}

// Delete はジョブレコードを削除します。
func (s *Store) Delete(ctx context.Context, jobID string) error {
	return s.rdb.Del(ctx, jobKey(jobID)).Err()
}

// update はレコードの読み取り・変更・書き戻しをアトミックに行います。
// 書き戻しは残TTLを維持し、競合時は再試行します。
func (s *Store) update(ctx context.Context, jobID string, mutate func(*Record) error) (*Record, error) {
	key := jobKey(jobID)
	var result *Record
	for {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrNotFound
				}
				return err
			}
			var record Record
			if err := json.Unmarshal(data, &record); err != nil {
				return err
			}
			if err := mutate(&record); err != nil {
				result = &record
				return err
			}
			record.UpdatedAt = time.Now().UTC()
			payload, err := json.Marshal(&record)
			if err != nil {
				return err
			}
			result = &record
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, redis.KeepTTL)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}
