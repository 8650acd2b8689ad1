package cdp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/gogpu/osr/engine"
)

// ErrDevToolsUnavailable is returned by CreateDevTools when the engine
// was started without a fixed debugging port.
var ErrDevToolsUnavailable = errors.New("cdp: developer tools need WithDebugPort")

var _ engine.Engine = (*Engine)(nil)

// Engine runs one Chromium process and opens a page target per browser.
type Engine struct {
	opts options

	allocCancel context.CancelFunc
	rootCtx     context.Context
	rootCancel  context.CancelFunc

	logger atomic.Pointer[slog.Logger]

	mu       sync.Mutex
	browsers map[*Browser]struct{}
	closed   bool
}

// New starts Chromium. The process lives until Close or until ctx is
// cancelled.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{opts: o, browsers: make(map[*Browser]struct{})}
	e.SetLogger(o.logger)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, o.allocatorOptions()...)
	rootCtx, rootCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			e.log().Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			e.log().Warn(fmt.Sprintf(format, args...))
		}),
	)
	e.allocCancel = allocCancel
	e.rootCtx = rootCtx
	e.rootCancel = rootCancel

	if err := chromedp.Run(rootCtx); err != nil {
		rootCancel()
		allocCancel()
		return nil, fmt.Errorf("cdp: start browser: %w", err)
	}
	e.log().Info("cdp: browser started", "headless", o.headless, "debug_port", o.debugPort)
	return e, nil
}

// SetLogger sets the engine logger. nil discards output.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	e.logger.Store(l)
}

func (e *Engine) log() *slog.Logger {
	return e.logger.Load()
}

// CreateBrowser implements engine.Engine.
func (e *Engine) CreateBrowser(ctx context.Context, req engine.Request) (engine.Browser, error) {
	return e.open(ctx, req)
}

// CreateDevTools implements engine.Engine. The developer tools frontend
// is loaded into a new page and attached to parent over the debugging
// port.
func (e *Engine) CreateDevTools(ctx context.Context, parent engine.Browser, req engine.Request, inspectAt *engine.Point) (engine.Browser, error) {
	p, ok := parent.(*Browser)
	if !ok {
		return nil, fmt.Errorf("cdp: developer tools parent is %T", parent)
	}
	if e.opts.debugPort <= 0 {
		return nil, ErrDevToolsUnavailable
	}
	req.URL = devToolsURL(e.opts.debugPort, p.TargetID())

	b, err := e.open(ctx, req)
	if err != nil {
		return nil, err
	}
	if inspectAt != nil {
		if err := p.inspect(ctx, *inspectAt); err != nil {
			e.log().Debug("cdp: inspect element failed", "x", inspectAt.X, "y", inspectAt.Y, "err", err)
		}
	}
	return b, nil
}

func devToolsURL(port int, id target.ID) string {
	return fmt.Sprintf("devtools://devtools/bundled/inspector.html?ws=127.0.0.1:%d/devtools/page/%s", port, id)
}

func (e *Engine) open(ctx context.Context, req engine.Request) (*Browser, error) {
	if req.Handler == nil {
		return nil, errors.New("cdp: request has no render handler")
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, engine.ErrEngineClosed
	}
	e.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(e.rootCtx)
	b := newBrowser(e, tabCtx, cancel, req.Handler)

	if err := b.start(ctx, req); err != nil {
		b.Close(true)
		return nil, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		b.Close(true)
		return nil, engine.ErrEngineClosed
	}
	e.browsers[b] = struct{}{}
	e.mu.Unlock()

	e.log().Info("cdp: page opened", "target", b.TargetID(), "url", req.URL)
	return b, nil
}

func (e *Engine) forget(b *Browser) {
	e.mu.Lock()
	delete(e.browsers, b)
	e.mu.Unlock()
}

// Close closes every browser and stops Chromium. It is safe to call more
// than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	open := make([]*Browser, 0, len(e.browsers))
	for b := range e.browsers {
		open = append(open, b)
	}
	e.mu.Unlock()

	for _, b := range open {
		b.Close(true)
	}

	err := chromedp.Cancel(e.rootCtx)
	e.rootCancel()
	e.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("cdp: stop browser: %w", err)
	}
	e.log().Info("cdp: browser stopped")
	return nil
}

// inspect selects the element under p as the inspected node ($0).
func (b *Browser) inspect(ctx context.Context, p engine.Point) error {
	return b.runCtx(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := dom.GetDocument().WithDepth(0).Do(ctx); err != nil {
			return err
		}
		_, _, nodeID, err := dom.GetNodeForLocation(int64(p.X), int64(p.Y)).Do(ctx)
		if err != nil {
			return err
		}
		return dom.SetInspectedNode(nodeID).Do(ctx)
	}))
}
