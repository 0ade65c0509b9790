package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Makamaruchan5858/Mightier/internal/document"
	"github.com/Makamaruchan5858/Mightier/internal/httpapi"
	"github.com/Makamaruchan5858/Mightier/internal/jobs"
	"github.com/Makamaruchan5858/Mightier/internal/ops"
)

func jobStatusHandler(manager *jobs.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := strings.TrimSpace(c.Param("id"))
		if jobID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    ops.CodeInvalidInput,
				"message": "jobId を指定してください。",
			})
			return
		}

		record, err := manager.GetRecord(c.Request.Context(), jobID)
		if err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"code":    ops.CodeJobNotFound,
					"message": "指定されたジョブは存在しません。",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    ops.CodeInternalError,
				"message": "ジョブ情報の取得に失敗しました。",
			})
			return
		}

		payload := gin.H{
			"job_id": record.JobID,
			"status": record.Status,
			"progress": gin.H{
				"percent": record.Progress.Percent,
				"message": record.Progress.Message,
			},
			"updated_at": record.UpdatedAt,
		}
		if record.Status == jobs.StatusCompleted {
			payload["result_url"] = fmt.Sprintf("/jobs/%s/download", record.JobID)
			payload["output_filename"] = record.OutputFilename
		}
		if record.Error != nil {
			payload["error"] = record.Error
		}

		c.JSON(http.StatusOK, payload)
	}
}

// resultOpener は完了ジョブの成果物を提供します。*jobs.Manager が実装します。
type resultOpener interface {
	OpenResult(ctx context.Context, jobID string) (*jobs.ResultFile, io.ReadCloser, error)
}

func jobDownloadHandler(results resultOpener) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := strings.TrimSpace(c.Param("id"))
		if jobID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    ops.CodeInvalidInput,
				"message": "jobId を指定してください。",
			})
			return
		}

		result, file, err := results.OpenResult(c.Request.Context(), jobID)
		if err != nil {
			var notReady *jobs.NotReadyError
			if errors.As(err, &notReady) {
				c.JSON(http.StatusConflict, gin.H{
					"code":    ops.CodeJobNotReady,
					"message": "ジョブはまだ完了していません。",
					"status":  notReady.Status,
				})
				return
			}
			httpapi.RespondWithError(c, err)
			return
		}
		defer file.Close()

		contentType := document.ContentType(result.DocType)
		encodedName := url.PathEscape(result.Filename)
		c.Header("Content-Type", contentType)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", result.Filename, encodedName))
		c.Header("Cache-Control", "no-store")
		c.Header("X-Job-Id", result.JobID)
		c.DataFromReader(http.StatusOK, result.Size, contentType, file, nil)
	}
}

// operationsHandler は登録済み操作の一覧とパラメータースキーマを返します。
func operationsHandler(registry *ops.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"operations": registry.Catalog(),
		})
	}
}
