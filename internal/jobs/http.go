package jobs

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Makamaruchan5858/Mightier/internal/httpapi"
	"github.com/Makamaruchan5858/Mightier/internal/ops"
)

// ProcessRequest は POST /process/:fileId のリクエストボディです。
type ProcessRequest struct {
	Operations     ops.Pipeline `json:"operations"`
	OutputFilename string       `json:"output_filename"`
}

// Submitter はジョブを受け付けるサービスが実装します。
type Submitter interface {
	Submit(ctx context.Context, fileID string, pl ops.Pipeline, outputFilename string) (*Record, error)
}

// ProcessHandler は POST /process/:fileId のハンドラーを返します。
func ProcessHandler(svc Submitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileID := strings.TrimSpace(c.Param("fileId"))
		if fileID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    ops.CodeInvalidInput,
				"message": "fileId を指定してください。",
			})
			return
		}

		var req ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    ops.CodeInvalidInput,
				"message": "リクエストボディの形式が不正です。",
			})
			return
		}

		record, err := svc.Submit(c.Request.Context(), fileID, req.Operations, req.OutputFilename)
		if err != nil {
			httpapi.RespondWithError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"job_id":              record.JobID,
			"file_id":             record.FileID,
			"status":              record.Status,
			"status_check_url":    fmt.Sprintf("/jobs/%s/status", record.JobID),
			"result_download_url": fmt.Sprintf("/jobs/%s/download", record.JobID),
		})
	}
}
