package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	httpHandler "github.com/0pain01/RedisChat/internal/handler/http"
	wsHandler "github.com/0pain01/RedisChat/internal/handler/websocket"
	"github.com/0pain01/RedisChat/internal/hub"
	redisstate "github.com/0pain01/RedisChat/internal/infra/state/redis"
	"github.com/0pain01/RedisChat/internal/middleware"
	"github.com/0pain01/RedisChat/internal/service"
	"github.com/0pain01/RedisChat/internal/tasks"
	"github.com/0pain01/RedisChat/internal/worker"
)

// App 结构体包含应用的所有组件和配置
type App struct {
	Config         *Config
	Log            *logrus.Logger
	RedisClient    *redis.Client
	AsynqClient    *asynq.Client
	AsynqServer    *worker.WorkerServer
	Scheduler      *asynq.Scheduler
	Hub            *hub.Hub
	HttpServer     *http.Server
	redisClientOpt asynq.RedisClientOpt
}

// NewLogger 按配置创建 logger，生产环境输出 JSON
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)

	// 各包使用 logrus 包级函数，保持与 App logger 一致
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(logLevel)
	logrus.SetOutput(os.Stdout)
	return log
}

// NewRouter 组装 Gin Engine、中间件和全部路由
func NewRouter(cfg *Config, log *logrus.Logger, redisClient *redis.Client, roomService *service.RoomService, hubInstance *hub.Hub) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(LoggerMiddleware(log))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	router.Use(middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))

	roomHandler := httpHandler.NewRoomHandler(roomService)
	roomHandler.RegisterRoutes(router.Group("/api/chatapp/chatrooms"))

	websocketHandler := wsHandler.NewWebSocketHandler(hubInstance, roomService, cfg.CORSAllowedOrigin)
	websocketHandler.RegisterRoutes(router)

	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	return router
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		// logrus 此时还未配置
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := NewLogger(cfg)
	log.Infof("Logger initialized (Level: %s, Format: %T)", log.GetLevel().String(), log.Formatter)
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	redisClient, err := InitRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Asynq client initialized")

	// 4. 初始化 Repository 和 Service
	roomRepo := redisstate.NewRedisRoomRepository(redisClient, cfg.KeyPrefix)
	broadcaster := redisstate.NewRedisBroadcaster(redisClient, cfg.KeyPrefix)
	cleanupScheduler := tasks.NewAsynqCleanupScheduler(asynqClient)
	roomService := service.NewRoomService(roomRepo, broadcaster, cleanupScheduler)
	log.Info("Services initialized")

	// 5. 初始化 Hub 和 Worker
	hubInstance := hub.NewHub()
	workerServer := worker.NewWorkerServer(redisClientOpt, roomRepo, cfg.WorkerConcurrency, log)
	log.Info("Worker server initialized")

	// 6. 初始化 Gin Engine 和路由
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := NewRouter(cfg, log, redisClient, roomService, hubInstance)
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:         cfg,
		Log:            log,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Hub:            hubInstance,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}, nil
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{Location: time.UTC})

	schedule := a.Config.OrphanSweepSpec
	entryID, err := scheduler.Register(schedule, tasks.NewOrphanSweepTask(), asynq.Queue("low"))
	if err != nil {
		a.Log.Errorf("Could not register periodic orphan sweep task: %v", err)
		return
	}
	a.Log.Infof("Periodic orphan sweep task registered with schedule '%s' (EntryID: %s)", schedule, entryID)

	// Start 不阻塞，Shutdown 时停止
	if err := scheduler.Start(); err != nil {
		a.Log.Errorf("Asynq scheduler failed to start: %v", err)
		return
	}
	a.Scheduler = scheduler
	a.Log.Info("Asynq scheduler started")
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 关闭 HTTP 服务器，不再接受新连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 断开所有实时订阅 (被 hijack 的 WebSocket 连接不受 HttpServer.Shutdown 管理)
	if a.Hub != nil {
		a.Hub.StopAllSubscriptions()
	}

	// 3. 停止周期任务和 Worker
	if a.Scheduler != nil {
		a.Scheduler.Shutdown()
		a.Log.Info("Asynq scheduler stopped.")
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	// 4. 关闭 Asynq Client
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		} else {
			a.Log.Info("Asynq client closed.")
		}
	}

	// 5. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
			"request_id":  c.GetString(middleware.RequestIDKey),
		})

		switch {
		case errorMessage != "":
			entry.Error(errorMessage)
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
