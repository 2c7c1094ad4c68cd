package pipeline

import (
	"image"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/local/pageviewer/internal/metrics"
	"github.com/local/pageviewer/internal/rendercache"
)

// Result is the outcome of an asynchronous render.
type Result struct {
	Gen   uint64
	Req   Request
	Image image.Image
	Err   *RenderError
}

type job struct {
	gen uint64
	req Request
}

// Worker rasterizes off the owning goroutine. At most one render runs at a
// time; a request submitted while another is queued replaces it, and results
// for anything but the latest request are dropped.
//
// Only rasterization happens on the worker. Results must be applied with
// Apply on the goroutine that owns the pipeline state.
type Worker struct {
	p *Pipeline

	mu      sync.Mutex
	cond    *sync.Cond
	gen     uint64
	pending *job
	busy    bool
	stopped bool

	results chan Result
	done    chan struct{}
}

// NewWorker starts a render goroutine for p.
func NewWorker(p *Pipeline) *Worker {
	w := &Worker{
		p:       p,
		results: make(chan Result, 1),
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Results delivers finished renders.
func (w *Worker) Results() <-chan Result { return w.results }

// Submit queues a render of the current state. It returns false when no
// document is open.
func (w *Worker) Submit() (uint64, bool) {
	req, ok := w.p.Snapshot()
	if !ok {
		return 0, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.pending = &job{gen: w.gen, req: req}
	w.cond.Broadcast()
	return w.gen, true
}

// Flush drops any queued request, invalidates the one in flight and waits
// for it to finish. Call it before releasing the document.
func (w *Worker) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.pending = nil
	for w.busy {
		w.cond.Wait()
	}
}

// Apply commits res to the cache, or reports its error, if it is still the
// latest request. It returns the new entry on success and whether res was
// applied at all.
func (w *Worker) Apply(res Result) (*rendercache.Entry, bool) {
	w.mu.Lock()
	latest := w.gen
	w.mu.Unlock()

	if res.Gen != latest {
		metrics.IncStaleRender()
		log.Debug().Uint64("gen", res.Gen).Uint64("latest", latest).Msg("discarding stale render")
		return nil, false
	}
	if res.Err != nil {
		w.p.Fail(res.Err)
		return nil, true
	}
	return w.p.Commit(res.Req, res.Image), true
}

// Stop ends the render goroutine after the render in flight, if any.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.pending = nil
	w.cond.Broadcast()
	w.mu.Unlock()
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for w.pending == nil && !w.stopped {
			w.cond.Wait()
		}
		if w.stopped {
			w.mu.Unlock()
			return
		}
		j := w.pending
		w.pending = nil
		w.busy = true
		w.mu.Unlock()

		img, rerr := Rasterize(j.req)

		w.mu.Lock()
		w.busy = false
		stale := j.gen != w.gen
		w.cond.Broadcast()
		w.mu.Unlock()

		if stale {
			metrics.IncStaleRender()
			continue
		}
		w.deliver(Result{Gen: j.gen, Req: j.req, Image: img, Err: rerr})
	}
}

// deliver keeps only the newest result in the channel.
func (w *Worker) deliver(res Result) {
	select {
	case w.results <- res:
	default:
		select {
		case <-w.results:
		default:
		}
		w.results <- res
	}
}
