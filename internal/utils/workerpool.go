// Package utils holds small ambient infrastructure shared by the transport
// layer.
package utils

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunction processes one queued task. A non-nil error is logged and
// the worker goes on to its next task; it does not kill the owning tomb.
type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool runs a fixed number of goroutines pulling tasks (e.g.
// net.Conn) off a shared channel.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool builds a pool with size workers.
func NewWorkerPool(size int) WorkerPool {
	return WorkerPool{
		tasks: make(chan any, taskChanSize),
		n:     size,
	}
}

// AddTask enqueues task for a worker to pick up.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup keeps the pool topped up with n live workers until t dies.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	log.Info().Int("activeWorkers", pool.n).Msg("adding workers")
	for i := 0; i < pool.n; i++ {
		t.Go(func() error {
			return pool.runWorker(t, work)
		})
	}
}

// runWorker keeps one goroutine alive across many tasks until t dies,
// respawning its processing loop rather than exiting after a single task.
func (pool *WorkerPool) runWorker(t *tomb.Tomb, work WorkerFunction) error {
	log.Info().Msg("worker starting")
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}
