package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/inodb/vibe-ref/internal/reference"
)

// Opener returns a new, independently owned reference handle.
type Opener func() (reference.Reference, error)

// Pool hands out reference handles for exclusive use. A handle is never
// shared between two requests at the same time, and Close never closes a
// handle that is still checked out.
type Pool struct {
	handles chan reference.Reference
	size    int
	contigs []reference.Contig
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewPool opens size handles up front.
func NewPool(open Opener, size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: pool size %d", reference.ErrInvalidArgument, size)
	}

	p := &Pool{
		handles: make(chan reference.Reference, size),
		size:    size,
		done:    make(chan struct{}),
	}
	for i := range size {
		ref, err := open()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open reference for pool: %w", err)
		}
		if i == 0 {
			p.contigs = ref.Contigs()
		}
		p.handles <- ref
	}
	return p, nil
}

// Size returns the number of handles.
func (p *Pool) Size() int {
	return p.size
}

// Contigs returns the contigs shared by every handle.
func (p *Pool) Contigs() []reference.Contig {
	return p.contigs
}

// Acquire waits for a free handle until ctx is done or the pool is closed.
func (p *Pool) Acquire(ctx context.Context) (reference.Reference, error) {
	select {
	case <-p.done:
		return nil, fmt.Errorf("%w: pool closed", reference.ErrFailedPrecondition)
	default:
	}

	select {
	case ref := <-p.handles:
		return ref, nil
	case <-p.done:
		return nil, fmt.Errorf("%w: pool closed", reference.ErrFailedPrecondition)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for a reader: %v", reference.ErrFailedPrecondition, ctx.Err())
	}
}

// Release returns a handle obtained from Acquire. Once the pool is closed
// the handle is closed instead, and its close error returned.
func (p *Pool) Release(ref reference.Reference) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ref.Close()
	}
	p.handles <- ref
	return nil
}

// Close closes the idle handles. Handles still checked out are closed by
// Release.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	var errs []error
	for {
		select {
		case ref := <-p.handles:
			if err := ref.Close(); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}
