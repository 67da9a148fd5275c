package worker

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/0pain01/RedisChat/internal/repository"
	"github.com/0pain01/RedisChat/internal/tasks"
)

// WorkerServer 封装了 Asynq Worker Server 的启动和关闭逻辑
type WorkerServer struct {
	server   *asynq.Server
	log      *logrus.Entry
	roomRepo repository.RoomRepository
}

// NewWorkerServer 创建一个新的 WorkerServer 实例
func NewWorkerServer(redisOpt asynq.RedisClientOpt, roomRepo repository.RoomRepository, concurrency int, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")
	if concurrency <= 0 {
		concurrency = 5
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &WorkerServer{
		server:   server,
		log:      logEntry,
		roomRepo: roomRepo,
	}
}

// NewServeMux 注册所有任务处理器
func NewServeMux(roomRepo repository.RoomRepository) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRoomCleanup, NewRoomCleanupHandler(roomRepo).ProcessTask)
	mux.HandleFunc(tasks.TypeOrphanSweep, NewOrphanSweepHandler(roomRepo).ProcessTask)
	return mux
}

// Start 运行 Worker Server
// 它应该在一个单独的 goroutine 中调用
func (ws *WorkerServer) Start() {
	mux := NewServeMux(ws.roomRepo)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		// 检查是否是正常关闭错误
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Errorf("Could not run worker server: %v", err)
		} else {
			ws.log.Info("Worker server stopped.")
		}
	}
}

// Shutdown 优雅地关闭 Worker Server
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
