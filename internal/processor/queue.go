package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aichess/internal/dispatch"

	"github.com/rs/zerolog"
)

var (
	ErrQueueFull     = errors.New("queue is full")
	ErrQueueShutdown = errors.New("queue is shutting down")
	ErrTurnStuck     = errors.New("AI turn exceeded safety timeout")
)

// TurnTask is one queued AI turn
type TurnTask struct {
	Input    dispatch.TurnInput
	Response chan<- TurnOutcome
}

// TurnOutcome is what a worker produced for a task
type TurnOutcome struct {
	GameID string
	Result dispatch.TurnResult
	Error  error
}

// TurnQueue runs AI turns on a fixed pool of workers
type TurnQueue struct {
	turn    *dispatch.Turn
	tasks   chan TurnTask
	workers int
	safety  time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewTurnQueue starts workerCount workers. safety bounds how long a
// submitter waits for a worker before giving up on the turn.
func NewTurnQueue(turn *dispatch.Turn, workerCount int, safety time.Duration, log zerolog.Logger) *TurnQueue {
	if workerCount < 1 {
		workerCount = 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &TurnQueue{
		turn:    turn,
		tasks:   make(chan TurnTask, 100),
		workers: workerCount,
		safety:  safety,
		log:     log.With().Str("component", "turn-queue").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

func (q *TurnQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}

			res, err := q.turn.Play(q.ctx, task.Input)
			outcome := TurnOutcome{GameID: task.Input.GameID, Result: res, Error: err}

			// Receiver may have given up
			select {
			case task.Response <- outcome:
			case <-time.After(100 * time.Millisecond):
				q.log.Debug().Int("worker", id).Str("game", task.Input.GameID).Msg("discarding abandoned turn result")
			}

		case <-q.ctx.Done():
			return
		}
	}
}

// Submit adds a task to the queue
func (q *TurnQueue) Submit(task TurnTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueShutdown
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitAsync queues a turn and calls callback exactly once with its outcome,
// or with ErrTurnStuck if no worker answered within the safety timeout
func (q *TurnQueue) SubmitAsync(in dispatch.TurnInput, callback func(TurnOutcome)) error {
	respChan := make(chan TurnOutcome, 1)

	if err := q.Submit(TurnTask{Input: in, Response: respChan}); err != nil {
		return err
	}

	go func() {
		timer := time.NewTimer(q.safety)
		defer timer.Stop()

		select {
		case outcome := <-respChan:
			callback(outcome)
		case <-timer.C:
			callback(TurnOutcome{GameID: in.GameID, Error: ErrTurnStuck})
		}
	}()

	return nil
}

// Shutdown stops accepting turns and waits for workers to exit
func (q *TurnQueue) Shutdown(timeout time.Duration) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.cancel()
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
