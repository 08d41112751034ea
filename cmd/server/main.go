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

	"resume-smart-go/internal/config"
	"resume-smart-go/internal/handler"
	"resume-smart-go/internal/middleware"
	"resume-smart-go/internal/model"
	"resume-smart-go/internal/pipeline"
	"resume-smart-go/internal/repository"
	"resume-smart-go/internal/service"
	"resume-smart-go/pkg/database"
	"resume-smart-go/pkg/embedding"
	"resume-smart-go/pkg/es"
	"resume-smart-go/pkg/kafka"
	"resume-smart-go/pkg/llm"
	"resume-smart-go/pkg/log"
	"resume-smart-go/pkg/storage"
	"resume-smart-go/pkg/tika"
	"resume-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	// 1. 初始化配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 后台任务（Kafka 消费者）跟随该 context 退出
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// 3. 初始化数据库、Redis 与 Elasticsearch
	db, err := database.NewMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatal("MySQL 初始化失败", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		log.Fatal("users 表迁移失败", err)
	}
	rdb, err := database.NewRedis(appCtx, cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Fatal("Redis 初始化失败", err)
	}
	esClient, err := es.NewClient(cfg.Elasticsearch, cfg.Embedding.Dimensions)
	if err != nil {
		log.Fatal("Elasticsearch 初始化失败", err)
	}
	if err := esClient.EnsureIndex(appCtx); err != nil {
		log.Fatal("Elasticsearch 索引初始化失败", err)
	}

	// 4. 初始化模型客户端与 Repository
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(rdb)
	segmentRepo := repository.NewSegmentRepository(esClient, embeddingClient)

	// 5. 初始化入库管道
	var fallback pipeline.FallbackExtractor
	if tikaClient := tika.NewClient(cfg.Tika); tikaClient != nil {
		fallback = tikaClient
	}
	chunker, err := pipeline.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		log.Fatal("切块参数无效", err)
	}
	ingestor := pipeline.NewIngestor(pipeline.NewExtractor(fallback), chunker, segmentRepo, cfg.Ingest.CategorizeWorkers)

	// 6. 异步入库：Kafka 与 MinIO 都配置时启用
	var (
		objectStore storage.ObjectStore
		producer    service.TaskProducer
	)
	if cfg.AsyncIngestEnabled() {
		minioStore, err := storage.NewMinIO(appCtx, cfg.MinIO)
		if err != nil {
			log.Fatal("MinIO 初始化失败", err)
		}
		kafkaProducer := kafka.NewProducer(cfg.Kafka)
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				log.Error("关闭 Kafka 生产者失败", err)
			}
		}()
		objectStore, producer = minioStore, kafkaProducer

		processor := pipeline.NewProcessor(minioStore, ingestor)
		go kafka.StartConsumer(appCtx, cfg.Kafka, processor, repository.NewTaskAttemptRepository(rdb))
	} else {
		log.Info("未配置 Kafka 或 MinIO，异步入库已关闭")
	}

	// 7. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	userService := service.NewUserService(userRepo, tokenRepo, jwtManager)
	documentService := service.NewDocumentService(ingestor, segmentRepo, objectStore, producer, cfg.Ingest)
	searchService := service.NewSearchService(segmentRepo, cfg.Search.DefaultLimit)
	resumeService := service.NewResumeService(searchService, llmClient, cfg.Resume)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.Ingest.MaxFileSizeMB) << 20
	r.Use(middleware.RequestLogger(), gin.Recovery())
	registerRoutes(r, routeDeps{
		jwtManager: jwtManager,
		users:      userService,
		documents:  documentService,
		search:     searchService,
		resume:     resumeService,
		health:     esClient,

		maxFileSizeMB: cfg.Ingest.MaxFileSizeMB,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 先停止 Kafka 消费者，再关闭 HTTP 服务器
	cancelApp()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

type routeDeps struct {
	jwtManager *token.JWTManager
	users      service.UserService
	documents  service.DocumentService
	search     service.SearchService
	resume     service.ResumeService
	health     handler.Pinger

	maxFileSizeMB int
}

// registerRoutes 注册所有 HTTP 路由。
func registerRoutes(r *gin.Engine, d routeDeps) {
	userHandler := handler.NewUserHandler(d.users)
	documentHandler := handler.NewDocumentHandler(d.documents, d.maxFileSizeMB)
	authRequired := middleware.AuthMiddleware(d.jwtManager, d.users)

	r.GET("/health", handler.NewHealthHandler(d.health).Health)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(d.users).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(authRequired)
			{
				authed.GET("/me", userHandler.GetProfile)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		// Document 路由组，需要认证
		documents := apiV1.Group("/documents")
		documents.Use(authRequired)
		{
			documents.POST("/upload", documentHandler.Upload)
			documents.GET("", documentHandler.ListDocuments)
			documents.DELETE("/:documentId", documentHandler.DeleteDocument)
		}
		apiV1.GET("/stats", authRequired, documentHandler.Stats)

		apiV1.POST("/search", authRequired, handler.NewSearchHandler(d.search).Search)
		apiV1.POST("/resume/generate", authRequired, handler.NewResumeHandler(d.resume).Generate)
	}
}
