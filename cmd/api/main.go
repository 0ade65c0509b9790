// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/Makamaruchan5858/Mightier/internal/config"
	"github.com/Makamaruchan5858/Mightier/internal/document"
	"github.com/Makamaruchan5858/Mightier/internal/jobs"
	"github.com/Makamaruchan5858/Mightier/internal/ops"
	"github.com/Makamaruchan5858/Mightier/internal/pipeline"
	"github.com/Makamaruchan5858/Mightier/internal/storage"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	logger := log.Default()

	// Redisクライアント（ジョブ状態・文書メタデータの保存先）
	redisOpt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		log.Fatalf("Failed to parse redis url: %v", err)
	}
	redisClient := redis.NewClient(redisOpt)

	ttl := time.Duration(cfg.JobExpireMinutes) * time.Minute

	// ストレージと各サービスの組み立て
	files, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	documents := document.NewService(document.NewStore(redisClient, ttl), files, cfg.MaxFileSize, logger)

	registry := ops.NewRegistry()
	executor := pipeline.NewExecutor(registry, files, cfg.WorkDir, logger)
	jobStore := jobs.NewStore(redisClient, ttl)

	manager, err := jobs.NewManager(cfg, documents, registry, executor, jobStore, logger)
	if err != nil {
		log.Fatalf("Failed to init job manager: %v", err)
	}
	manager.StartWorkers()

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
	}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, documents, manager, registry)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "mightier-api",
		"version": "0.1.0",
	})
}

func setupRoutes(router *gin.Engine, documents *document.Service, manager *jobs.Manager, registry *ops.Registry) {
	router.GET("/health", handleHealth)
	router.GET("/operations", operationsHandler(registry))

	router.POST("/upload", document.UploadHandler(documents))
	router.POST("/process/:fileId", jobs.ProcessHandler(manager))

	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("/:id/status", jobStatusHandler(manager))
		jobRoutes.GET("/:id/download", jobDownloadHandler(manager))
	}
}
