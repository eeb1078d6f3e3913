package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"interviewiq-go/internal/classifier"
	"interviewiq-go/internal/config"
	"interviewiq-go/internal/handler"
	"interviewiq-go/internal/middleware"
	"interviewiq-go/internal/pipeline"
	"interviewiq-go/internal/repository"
	"interviewiq-go/internal/service"
	"interviewiq-go/pkg/database"
	"interviewiq-go/pkg/es"
	"interviewiq-go/pkg/kafka"
	"interviewiq-go/pkg/log"
	"interviewiq-go/pkg/storage"
	"interviewiq-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the chat event consumer",
	RunE:  runServe,
}

// optional 保存按配置启用的外部依赖，未启用时对应字段为 nil。
type optional struct {
	producer *kafka.Producer
	esClient *es.Client
	store    *storage.Store
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. 初始化配置和日志记录器
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 初始化数据库和 Redis
	database.InitDB(cfg.Database)
	if err := database.AutoMigrate(database.DB); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	database.InitRedis(cfg.Database.Redis)

	deps := initOptional(ctx, cfg)
	if deps.producer != nil {
		defer deps.producer.Close()
	}

	// 3. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	recordRepo := repository.NewChatRecordRepository(database.DB)
	qaRepo := repository.NewQARepository(database.DB)
	interviewRepo := repository.NewInterviewRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)
	statsRepo := repository.NewStatsRepository(database.RDB)
	tokenRepo := repository.NewTokenRepository(database.RDB)

	// 4. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	chatClassifier := classifier.New(cfg.Classifier)

	var publisher service.EventPublisher
	if deps.producer != nil {
		publisher = deps.producer
	}
	var searcher service.ChatSearcher
	var indexer pipeline.ChatIndexer
	if deps.esClient != nil {
		searcher = deps.esClient
		indexer = deps.esClient
	}
	var store service.ObjectStore
	if deps.store != nil {
		store = deps.store
	}

	userService := service.NewUserService(userRepo, tokenRepo, jwtManager)
	chatService := service.NewChatService(chatClassifier, recordRepo, conversationRepo, publisher)
	conversationService := service.NewConversationService(recordRepo, conversationRepo, store)
	qaService := service.NewQAService(qaRepo)
	interviewService := service.NewInterviewService(interviewRepo)
	searchService := service.NewSearchService(searcher)
	adminService := service.NewAdminService(userRepo, recordRepo, statsRepo)

	seedAdmin(cfg.Admin, userRepo, userService)
	seedQAPairs(cfg.Admin.SeedQA, userRepo, cfg.Admin.Username, qaService)

	// 5. 启动后台 Kafka 消费者，ctx 取消时退出
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		processor := pipeline.NewProcessor(statsRepo, indexer)
		go func() {
			defer close(consumerDone)
			kafka.StartConsumer(ctx, cfg.Kafka, processor, statsRepo)
		}()
	} else {
		close(consumerDone)
	}

	// 6. 注册路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS(cfg.Server.CORSOrigins))

	auth := middleware.AuthMiddleware(jwtManager, userService)
	userHandler := handler.NewUserHandler(userService)
	chatHandler := handler.NewChatHandler(chatService, userService, jwtManager)
	conversationHandler := handler.NewConversationHandler(conversationService)
	qaHandler := handler.NewQAHandler(qaService)
	interviewHandler := handler.NewInterviewHandler(interviewService)
	adminHandler := handler.NewAdminHandler(adminService)
	searchHandler := handler.NewSearchHandler(searchService)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		apiV1.POST("/auth/refreshToken", handler.NewAuthHandler(userService).RefreshToken)

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(auth)
			{
				authed.GET("/me", userHandler.GetProfile)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		// Chatbot 路由组：聊天接口允许匿名访问，其余需要认证
		chatbot := apiV1.Group("/chatbot")
		{
			chatbot.POST("/chat", middleware.OptionalAuthMiddleware(jwtManager, userService), chatHandler.Chat)
			chatbot.GET("/history", auth, conversationHandler.GetHistory)
			chatbot.POST("/history/export", auth, conversationHandler.ExportHistory)
			chatbot.GET("/session", auth, conversationHandler.GetSession)
			chatbot.DELETE("/session", auth, conversationHandler.ClearSession)
		}

		// 面试日程，只能访问自己的记录
		interviews := apiV1.Group("/interviews")
		interviews.Use(auth)
		{
			interviews.POST("", interviewHandler.Create)
			interviews.GET("", interviewHandler.List)
			interviews.GET("/:id", interviewHandler.Get)
			interviews.PUT("/:id", interviewHandler.Update)
			interviews.DELETE("/:id", interviewHandler.Delete)
		}

		apiV1.POST("/qa/ask", qaHandler.Ask)

		admin := apiV1.Group("/admin")
		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin.Use(auth, middleware.AdminAuthMiddleware())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/chats", adminHandler.ListChatRecords)
			admin.GET("/chats/search", searchHandler.SearchChats)
			admin.GET("/stats", adminHandler.Stats)

			qa := admin.Group("/qa")
			{
				qa.GET("", qaHandler.List)
				qa.POST("", qaHandler.Create)
				qa.PUT("/:id", qaHandler.Update)
				qa.DELETE("/:id", qaHandler.Delete)
			}
		}
	}

	// Chat 路由 (WebSocket)
	r.GET("/chat/:token", chatHandler.Handle)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", handler.NewHealthHandler(healthChecks()).Health)

	// 7. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-consumerDone
		return fmt.Errorf("HTTP 服务监听失败: %w", err)
	case <-ctx.Done():
	}
	log.Info("接收到停机信号，正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	<-consumerDone
	log.Info("服务已优雅关闭")
	return nil
}

// initOptional 按配置初始化 Kafka、Elasticsearch 与 MinIO。初始化失败只记录日志，对应功能降级。
func initOptional(ctx context.Context, cfg config.Config) optional {
	var deps optional
	if cfg.Kafka.Enabled {
		deps.producer = kafka.NewProducer(cfg.Kafka)
	}
	if cfg.Elasticsearch.Enabled {
		client, err := es.NewClient(cfg.Elasticsearch)
		if err != nil {
			log.Errorf("Elasticsearch 初始化失败，聊天检索不可用: %v", err)
		} else {
			deps.esClient = client
		}
	}
	if cfg.MinIO.Enabled {
		store, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			log.Errorf("MinIO 初始化失败，历史导出不可用: %v", err)
		} else {
			deps.store = store
		}
	}
	return deps
}

func healthChecks() map[string]handler.HealthCheck {
	return map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := database.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return database.RDB.Ping(ctx).Err()
		},
	}
}
