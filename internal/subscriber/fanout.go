package subscriber

import (
	"sync"

	"github.com/twmb/murmur3"
	"go.uber.org/zap"

	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

// FanoutPool executes per-sink sends off the broker inbound goroutine. Each
// worker owns a bounded queue and jobs are sharded by routing key, so frames
// for one key always run on the same worker and keep their order. A full
// queue drops the job: a slow consumer loses frames, it never stalls the
// broker loop or its neighbours.
type FanoutPool struct {
	queues []chan func()
	wg     sync.WaitGroup
	quit   chan struct{}
	log    *logger.Logger
}

func NewFanoutPool(workers, queueSize int, log *logger.Logger) *FanoutPool {
	if workers <= 0 {
		workers = 1
	}
	queues := make([]chan func(), workers)
	for i := range queues {
		queues[i] = make(chan func(), queueSize)
	}
	return &FanoutPool{
		queues: queues,
		quit:   make(chan struct{}),
		log:    log,
	}
}

func (p *FanoutPool) Start() {
	for i, queue := range p.queues {
		p.wg.Add(1)
		go func(workerID int, jobs <-chan func()) {
			defer p.wg.Done()
			for {
				select {
				case job := <-jobs:
					p.run(workerID, job)
				case <-p.quit:
					return
				}
			}
		}(i, queue)
	}
}

func (p *FanoutPool) run(workerID int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("fanout worker recovered from panic",
				zap.Int("worker", workerID), zap.Any("panic", r))
		}
	}()
	job()
}

// Submit queues the job on the worker owning key. It reports false when the
// worker's queue is full and the job was dropped.
func (p *FanoutPool) Submit(key string, job func()) bool {
	idx := murmur3.StringSum32(key) % uint32(len(p.queues))
	select {
	case p.queues[idx] <- job:
		return true
	default:
		p.log.Warn("fanout queue full, dropping frame",
			zap.String("key", key), zap.Uint32("worker", idx))
		return false
	}
}

func (p *FanoutPool) Stop() {
	close(p.quit)
	p.wg.Wait()
}
