package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/domain"
)

const writeTimeout = 5 * time.Second

// Writer decouples durable writes from the live event path. Enqueue
// never blocks: jobs go through a buffered channel to background
// workers, and a full queue drops the write with a log line. A write
// failure is logged and never reaches the broadcast path.
type Writer struct {
	store Store
	wg    sync.WaitGroup

	mu      sync.Mutex
	jobs    chan func(context.Context) error
	stopped bool
}

func NewWriter(store Store, queueSize, workers int) *Writer {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	w := &Writer{
		store: store,
		jobs:  make(chan func(context.Context) error, queueSize),
	}
	w.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go w.run()
	}
	return w
}

func (w *Writer) run() {
	defer w.wg.Done()
	for job := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := job(ctx); err != nil {
			log.Error().Err(err).Str("module", "store.writer").Msg("durable write failed")
		}
		cancel()
	}
}

// Stop drains pending jobs and waits for the workers to finish.
// Safe to call more than once; a producer racing shutdown gets its
// write dropped, not a panic.
func (w *Writer) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.jobs)
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Writer) enqueue(job func(context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		log.Warn().Str("module", "store.writer").Msg("writer stopped, dropping record")
		return
	}
	select {
	case w.jobs <- job:
	default:
		log.Warn().Str("module", "store.writer").Msg("write queue full, dropping record")
	}
}

func (w *Writer) Participation(room domain.RoomID, pid domain.ParticipantID, joinedAt time.Time, leftAt *time.Time) {
	w.enqueue(func(ctx context.Context) error {
		return w.store.RecordParticipation(ctx, room, pid, joinedAt, leftAt)
	})
}

func (w *Writer) Message(room domain.RoomID, pid domain.ParticipantID, text string, at time.Time) {
	w.enqueue(func(ctx context.Context) error {
		return w.store.RecordMessage(ctx, room, pid, text, at)
	})
}

func (w *Writer) RoomClosed(room domain.RoomID, at time.Time) {
	w.enqueue(func(ctx context.Context) error {
		return w.store.RecordRoomClosed(ctx, room, at)
	})
}
