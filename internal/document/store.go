package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const fileKeyPrefix = "file:"

// ErrNotFound は文書が存在しない（または期限切れで消えた）ことを表します。
var ErrNotFound = errors.New("document not found")

// Store は文書メタデータを Redis に保存します。
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

// Save は文書参照を保存します。
func (s *Store) Save(ctx context.Context, handle *Handle) error {
	if handle == nil {
		return fmt.Errorf("handle is nil")
	}
	if handle.FileID == "" {
		return fmt.Errorf("fileID is required")
	}
	payload, err := json.Marshal(handle)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, fileKey(handle.FileID), payload, s.ttl).Err()
}

// Get は文書参照を取得します。存在しない場合は ErrNotFound を返します。
func (s *Store) Get(ctx context.Context, fileID string) (*Handle, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}
	data, err := s.rdb.Get(ctx, fileKey(fileID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var handle Handle
	if err := json.Unmarshal(data, &handle); err != nil {
		return nil, err
	}
	return &handle, nil
}

func fileKey(id string) string {
	return fileKeyPrefix + id
}
