package viewer

import "context"

// Loop owns a Viewer on one goroutine. Hosts with several event sources
// (HTTP handlers, a terminal, background renders) send work through Do.
type Loop struct {
	v    *Viewer
	cmds chan func(context.Context, *Viewer)
}

// NewLoop wraps v. Run must be called for Do to make progress.
func NewLoop(v *Viewer) *Loop {
	return &Loop{v: v, cmds: make(chan func(context.Context, *Viewer))}
}

// Run processes commands and render results until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.cmds:
			fn(ctx, l.v)
		case res := <-l.v.Results():
			l.v.Deliver(res)
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func(context.Context, *Viewer)) error {
	done := make(chan struct{})
	wrapped := func(c context.Context, v *Viewer) {
		defer close(done)
		fn(c, v)
	}
	select {
	case l.cmds <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}
