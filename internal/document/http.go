package document

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Makamaruchan5858/Mightier/internal/httpapi"
	"github.com/Makamaruchan5858/Mightier/internal/ops"
	"github.com/Makamaruchan5858/Mightier/internal/storage"
)

// Service はアップロード文書の検証と保存を行います。
type Service struct {
	store   *Store
	files   storage.Store
	maxSize int64
	logger  *log.Logger
}

// NewService は Service を作成します。
func NewService(store *Store, files storage.Store, maxSize int64, logger *log.Logger) *Service {
	return &Service{
		store:   store,
		files:   files,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Upload は文書を検証して保存し、参照を返します。
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (*Handle, error) {
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." {
		return nil, ops.NewError(ops.CodeInvalidInput, "ファイル名が指定されていません。", nil)
	}
	if len(data) == 0 {
		return nil, ops.NewError(ops.CodeInvalidInput, "空のファイルはアップロードできません。", nil)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, ops.NewError(ops.CodeLimitExceeded,
			fmt.Sprintf("ファイルサイズが上限（%dMB）を超えています。", s.maxSize/(1024*1024)), nil)
	}

	dt, ok := DetectType(filename, data)
	if !ok {
		return nil, ops.NewError(ops.CodeInvalidInput,
			"対応していないファイル形式です。.docx または .pdf をアップロードしてください。", nil)
	}

	fileID := uuid.New().String()
	path, err := s.files.Save(ctx, fileID+"."+string(dt), data)
	if err != nil {
		return nil, ops.NewError(ops.CodeInternalError, "ファイルの保存に失敗しました。", err)
	}

	handle := &Handle{
		FileID:       fileID,
		OriginalName: filename,
		Type:         dt,
		Size:         int64(len(data)),
		StoredPath:   path,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.store.Save(ctx, handle); err != nil {
		_ = s.files.Delete(ctx, path)
		return nil, ops.NewError(ops.CodeInternalError, "ファイル情報の保存に失敗しました。", err)
	}

	s.logger.Printf("[document] uploaded file=%s type=%s size=%d", fileID, dt, handle.Size)
	return handle, nil
}

// MaxFileSize は受け付ける最大バイト数を返します。0 以下は無制限です。
func (s *Service) MaxFileSize() int64 {
	return s.maxSize
}

// Get は文書参照を取得します。存在しない場合はコード付きエラーを返します。
func (s *Service) Get(ctx context.Context, fileID string) (*Handle, error) {
	handle, err := s.store.Get(ctx, fileID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ops.NewError(ops.CodeFileNotFound, "指定されたファイルは存在しません。", err)
		}
		return nil, ops.NewError(ops.CodeInternalError, "ファイル情報の取得に失敗しました。", err)
	}
	return handle, nil
}

// Uploader は文書を受け付けるサービスが実装します。
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (*Handle, error)
	MaxFileSize() int64
}

// UploadHandler は POST /upload のハンドラーを返します。
func UploadHandler(svc Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    ops.CodeInvalidInput,
				"message": "multipart/form-data の file フィールドで文書を送信してください。",
			})
			return
		}

		// 本体を読み込む前にヘッダー上のサイズで弾く
		if limit := svc.MaxFileSize(); limit > 0 && fileHeader.Size > limit {
			httpapi.RespondWithError(c, ops.NewError(ops.CodeLimitExceeded,
				fmt.Sprintf("ファイルサイズが上限（%dMB）を超えています。", limit/(1024*1024)), nil))
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			httpapi.RespondWithError(c, ops.NewError(ops.CodeInternalError, "アップロードファイルを開けませんでした。", err))
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			httpapi.RespondWithError(c, ops.NewError(ops.CodeInternalError, "アップロードファイルの読み込みに失敗しました。", err))
			return
		}

		handle, err := svc.Upload(c.Request.Context(), fileHeader.Filename, data)
		if err != nil {
			httpapi.RespondWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"file_id":   handle.FileID,
			"file_name": handle.OriginalName,
			"file_type": handle.Type,
			"file_size": handle.Size,
			"message":   "ファイルをアップロードしました。",
		})
	}
}
