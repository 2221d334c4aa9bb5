// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"journal-assist-go/internal/config"
	"journal-assist-go/internal/handler"
	"journal-assist-go/internal/middleware"
	"journal-assist-go/internal/model"
	"journal-assist-go/internal/pipeline"
	"journal-assist-go/internal/repository"
	"journal-assist-go/internal/service"
	"journal-assist-go/pkg/database"
	"journal-assist-go/pkg/embedding"
	"journal-assist-go/pkg/es"
	"journal-assist-go/pkg/kafka"
	"journal-assist-go/pkg/llm"
	"journal-assist-go/pkg/log"
	"journal-assist-go/pkg/storage"
	"journal-assist-go/pkg/token"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("./configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库与 Redis
	db, err := database.NewMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatalf("MySQL 初始化失败: %v", err)
	}
	rdb, err := database.NewRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Fatalf("Redis 初始化失败: %v", err)
	}

	// 4. 初始化外部依赖：载荷归档、分块存储、任务队列
	archive, err := storage.NewMinioArchive(cfg.MinIO)
	if err != nil {
		log.Fatalf("MinIO 初始化失败: %v", err)
	}

	var chunkRepo repository.ChunkRepository
	switch cfg.Store.Driver {
	case "elasticsearch":
		esClient, err := es.NewClient(cfg.Elasticsearch, cfg.Embedding.Dimensions)
		if err != nil {
			log.Fatalf("Elasticsearch 初始化失败: %v", err)
		}
		chunkRepo = repository.NewESChunkRepository(esClient, cfg.Elasticsearch.IndexName, cfg.Embedding.Dimensions)
	case "memory":
		// 内存驱动只用于本地开发与联调，进程退出后数据丢失
		chunkRepo = repository.NewMemoryChunkRepository(cfg.Elasticsearch.IndexName)
		log.Warnf("分块存储使用内存驱动，数据不会持久化")
	default:
		log.Fatalf("未知的分块存储驱动: %s", cfg.Store.Driver)
	}

	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// 5. 初始化 Repository
	userRepository := repository.NewUserRepository(db)
	usageRepo := repository.NewRedisUsageRepository(rdb)

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	userService := service.NewUserService(userRepository, jwtManager)
	searchService := service.NewSearchService(embeddingClient, chunkRepo, cfg.Search)
	documentService := service.NewDocumentService(chunkRepo)
	compareService := service.NewCompareService(documentService, llmClient, cfg.Compare)
	usageService := service.NewUsageService(usageRepo)
	ingestService := service.NewIngestService(archive, producer, chunkRepo)

	// 7. 启动后台 Kafka 消费者，处理分块批次的向量化与入库
	processor := pipeline.NewProcessor(archive, embeddingClient, chunkRepo)
	go kafka.StartConsumer(cfg.Kafka, rdb, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	uploadHandler := handler.NewUploadHandler(ingestService)
	searchHandler := handler.NewSearchHandler(searchService, usageService, cfg.Search)
	documentHandler := handler.NewDocumentHandler(documentService)
	compareHandler := handler.NewCompareHandler(compareService)
	usageHandler := handler.NewUsageHandler(usageService)
	userHandler := handler.NewUserHandler(userService)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "journal-assist",
			"status":  "ok",
		})
	})

	api := r.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
		}
		auth := api.Group("/auth")
		{
			auth.POST("/refreshToken", userHandler.RefreshToken)
		}

		// 公开的读取接口
		api.GET("/stats", uploadHandler.Stats)
		api.POST("/similarity_search", searchHandler.SimilaritySearch)
		api.GET("/journals/:journalId", documentHandler.GetDocument)
		api.POST("/compare", compareHandler.Compare)

		// 需要认证与权限的接口
		authed := api.Group("/")
		authed.Use(middleware.AuthMiddleware(jwtManager))
		{
			authed.GET("/me", userHandler.GetProfile)
			authed.PUT("/upload", middleware.RequirePermission(model.PermissionUpload), uploadHandler.Upload)
			authed.GET("/popular", middleware.RequirePermission(model.PermissionPopular), usageHandler.Popular)
			authed.GET("/analytics", middleware.RequirePermission(model.PermissionAnalytics), usageHandler.Analytics)
		}
	}

	// 10. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
