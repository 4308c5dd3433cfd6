package utils

import (
	"sync"

	"go.uber.org/zap"

	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

// WorkerPool is a bounded pool for background jobs. Submits block when the
// queue is full, so producers queue up instead of being rejected.
type WorkerPool struct {
	JobQueue  chan func()
	WorkerNum int
	wg        sync.WaitGroup
	quit      chan bool
	log       *logger.Logger
}

var (
	GlobalWorkerPool *WorkerPool
	poolOnce         sync.Once
)

// InitGlobalWorkerPool initializes the process-wide pool once.
func InitGlobalWorkerPool(workerNum int, queueSize int, log *logger.Logger) {
	poolOnce.Do(func() {
		GlobalWorkerPool = NewWorkerPool(workerNum, queueSize, log)
		GlobalWorkerPool.Start()
	})
}

func NewWorkerPool(workerNum int, queueSize int, log *logger.Logger) *WorkerPool {
	return &WorkerPool{
		JobQueue:  make(chan func(), queueSize),
		WorkerNum: workerNum,
		quit:      make(chan bool),
		log:       log,
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for {
				select {
				case job := <-p.JobQueue:
					// A panicking job must not take the worker down with it.
					func() {
						defer func() {
							if r := recover(); r != nil {
								p.log.Error("worker recovered from panic",
									zap.Int("worker", workerID), zap.Any("panic", r))
							}
						}()
						job()
					}()
				case <-p.quit:
					return
				}
			}
		}(i)
	}
	p.log.Info("worker pool started", zap.Int("workers", p.WorkerNum))
}

// Submit enqueues a job, blocking while the queue is full.
func (p *WorkerPool) Submit(job func()) {
	p.JobQueue <- job
}

func (p *WorkerPool) Stop() {
	close(p.quit)
	p.wg.Wait()
}
