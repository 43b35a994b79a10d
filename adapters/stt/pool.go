package stt

import (
	"context"
	"errors"
	"sync"

	"github.com/gammazero/workerpool"

	"github.com/satriahrh/lisan/domain/repositories"
)

// ErrPoolStopped is returned for calls made after Stop.
var ErrPoolStopped = errors.New("recognizer pool stopped")

// PooledSpeechToText bounds the number of in-flight calls to the wrapped
// recognizer. Callers block until a worker picks up their request.
type PooledSpeechToText struct {
	next repositories.SpeechToText
	pool *workerpool.WorkerPool

	mu      sync.RWMutex
	stopped bool
}

type recognizeOutcome struct {
	recognition *repositories.Recognition
	err         error
}

// NewPooledSpeechToText wraps next with a pool of size workers.
func NewPooledSpeechToText(next repositories.SpeechToText, size int) *PooledSpeechToText {
	if size < 1 {
		size = 1
	}
	return &PooledSpeechToText{
		next: next,
		pool: workerpool.New(size),
	}
}

// Name reports the wrapped backend.
func (p *PooledSpeechToText) Name() string {
	return p.next.Name()
}

// Recognize implements repositories.SpeechToText
func (p *PooledSpeechToText) Recognize(ctx context.Context, audioData []byte, config repositories.AudioConfig) (*repositories.Recognition, error) {
	done := make(chan recognizeOutcome, 1)

	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return nil, repositories.NewRecognitionError(p.next.Name(), ErrPoolStopped)
	}
	p.pool.Submit(func() {
		// Skip work whose caller already gave up while queued.
		if err := ctx.Err(); err != nil {
			done <- recognizeOutcome{err: repositories.NewRecognitionError(p.next.Name(), err)}
			return
		}
		rec, err := p.next.Recognize(ctx, audioData, config)
		done <- recognizeOutcome{recognition: rec, err: err}
	})
	p.mu.RUnlock()

	select {
	case <-ctx.Done():
		return nil, repositories.NewRecognitionError(p.next.Name(), ctx.Err())
	case out := <-done:
		return out.recognition, out.err
	}
}

// WaitingQueueSize reports requests queued behind busy workers.
func (p *PooledSpeechToText) WaitingQueueSize() int {
	return p.pool.WaitingQueueSize()
}

// Stop waits for queued calls to finish and rejects new ones.
func (p *PooledSpeechToText) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.pool.StopWait()
}
