package cdp

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	cdptypes "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/gogpu/osr/engine"
)

const closeTimeout = 5 * time.Second

// isolatedWorld names the execution context scripts for subframes run in.
const isolatedWorld = "osr"

var _ engine.Browser = (*Browser)(nil)

// Browser is a Chromium page target driven over the DevTools protocol.
type Browser struct {
	eng     *Engine
	ctx     context.Context
	cancel  context.CancelFunc
	handler engine.RenderHandler

	queueMu sync.Mutex // orders enqueue against the drain in Close
	queue   chan task
	stop    chan struct{}
	wg      sync.WaitGroup

	// actx bounds queued actions; Close cancels it before waiting for
	// the worker.
	actx    context.Context
	acancel context.CancelFunc
	do      func(ctx context.Context, a chromedp.Action) error

	mainFrame atomic.Value // cdptypes.FrameID
	loading   atomic.Bool
	closed    atomic.Bool

	paintMu sync.Mutex
	pix     []byte
}

// task is a queued action. abort, if set, runs when the action is dropped
// or fails.
type task struct {
	action chromedp.Action
	abort  func()
}

func (t task) fail() {
	if t.abort != nil {
		t.abort()
	}
}

func newBrowser(e *Engine, ctx context.Context, cancel context.CancelFunc, h engine.RenderHandler) *Browser {
	b := &Browser{
		eng:     e,
		ctx:     ctx,
		cancel:  cancel,
		handler: h,
		queue:   make(chan task, e.opts.queueSize),
		stop:    make(chan struct{}),
		do: func(ctx context.Context, a chromedp.Action) error {
			return chromedp.Run(ctx, a)
		},
	}
	b.actx, b.acancel = context.WithCancel(ctx)
	b.mainFrame.Store(cdptypes.FrameID(""))
	return b
}

// TargetID returns the page target identifier, or "" before the target
// is attached.
func (b *Browser) TargetID() target.ID {
	if c := chromedp.FromContext(b.ctx); c != nil && c.Target != nil {
		return c.Target.TargetID
	}
	return ""
}

// start attaches the target, configures the viewport and screencast and
// begins navigation. It returns once navigation has been requested.
func (b *Browser) start(ctx context.Context, req engine.Request) error {
	// The first Run attaches the target and must use the tab context
	// itself; cancelling a derived context here would close the tab.
	if err := chromedp.Run(b.ctx); err != nil {
		return fmt.Errorf("cdp: attach page: %w", err)
	}
	chromedp.ListenTarget(b.ctx, b.onEvent)

	b.wg.Add(1)
	go b.run()

	setup := chromedp.Tasks{
		b.viewport(),
		b.screencast(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			b.mainFrame.Store(tree.Frame.ID)
			return nil
		}),
	}
	if req.Transparent {
		setup = append(setup, emulation.SetDefaultBackgroundColorOverride().
			WithColor(&cdptypes.RGBA{R: 0, G: 0, B: 0, A: 0}))
	}
	if req.URL != "" {
		b.loading.Store(true)
		setup = append(setup, chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, errText, _, err := page.Navigate(req.URL).Do(ctx)
			if err != nil {
				return err
			}
			if errText != "" {
				b.loading.Store(false)
				b.eng.log().Warn("cdp: navigation failed", "url", req.URL, "error", errText)
			}
			return nil
		}))
	}
	if err := b.runCtx(ctx, setup); err != nil {
		return fmt.Errorf("cdp: set up page: %w", err)
	}
	return nil
}

func (b *Browser) scale() float64 {
	if info, ok := b.handler.ScreenInfo(); ok && info.ScaleFactor > 0 {
		return info.ScaleFactor
	}
	return 1
}

func (b *Browser) viewport() chromedp.Action {
	r := b.handler.ViewRect()
	return emulation.SetDeviceMetricsOverride(int64(max(r.Width, 1)), int64(max(r.Height, 1)), b.scale(), false)
}

func (b *Browser) screencast() chromedp.Action {
	w, h := deviceSize(b.handler.ViewRect(), b.scale())
	p := page.StartScreencast().
		WithFormat(b.eng.opts.format).
		WithMaxWidth(int64(w)).
		WithMaxHeight(int64(h)).
		WithEveryNthFrame(1)
	if b.eng.opts.format == page.ScreencastFormatJpeg {
		p = p.WithQuality(int64(b.eng.opts.quality))
	}
	return p
}

// runCtx runs actions on the page, giving up when either ctx or the page
// context is done.
func (b *Browser) runCtx(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (b *Browser) onEvent(ev any) {
	switch ev := ev.(type) {
	case *page.EventScreencastFrame:
		id := ev.SessionID
		go func() {
			_ = chromedp.Run(b.ctx, page.ScreencastFrameAck(id))
		}()
		img, err := decodeFrame(ev.Data)
		if err != nil {
			b.eng.log().Debug("cdp: bad screencast frame", "err", err)
			return
		}
		b.paint(img)
	case *page.EventFrameStartedLoading:
		if ev.FrameID == b.mainFrame.Load().(cdptypes.FrameID) {
			b.loading.Store(true)
		}
	case *page.EventFrameStoppedLoading:
		if ev.FrameID == b.mainFrame.Load().(cdptypes.FrameID) {
			b.loading.Store(false)
		}
	case *page.EventJavascriptDialogOpening:
		// Nobody can answer a dialog on an off-screen page. Alerts and
		// unload prompts are accepted, confirm and prompt are dismissed.
		accept := ev.Type == page.DialogTypeAlert || ev.Type == page.DialogTypeBeforeunload
		go func() {
			_ = chromedp.Run(b.ctx, page.HandleJavaScriptDialog(accept))
		}()
	}
}

// paint scales img to the view and delivers it as a full repaint.
func (b *Browser) paint(img image.Image) {
	if b.closed.Load() {
		return
	}
	w, h := deviceSize(b.handler.ViewRect(), b.scale())

	b.paintMu.Lock()
	defer b.paintMu.Unlock()
	b.pix = toBGRA(b.pix, img, w, h)
	b.handler.OnPaint(false, []engine.Rect{{Width: w, Height: h}}, b.pix, w, h)
}

func (b *Browser) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stop:
			return
		case t := <-b.queue:
			if err := b.do(b.actx, t.action); err != nil {
				t.fail()
				if b.actx.Err() != nil {
					return
				}
				b.eng.log().Debug("cdp: action failed", "target", b.TargetID(), "err", err)
			}
		}
	}
}

// enqueue hands a to the worker without blocking. When the browser is
// closed or the queue is full, a is dropped and abort runs instead.
func (b *Browser) enqueue(a chromedp.Action, abort func()) {
	t := task{action: a, abort: abort}
	b.queueMu.Lock()
	if b.closed.Load() {
		b.queueMu.Unlock()
		t.fail()
		return
	}
	select {
	case b.queue <- t:
		b.queueMu.Unlock()
	default:
		b.queueMu.Unlock()
		b.eng.log().Warn("cdp: action queue full, dropping", "target", b.TargetID())
		t.fail()
	}
}

// drain fails every task still queued. The queue is closed to new tasks.
func (b *Browser) drain() {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	for {
		select {
		case t := <-b.queue:
			t.fail()
		default:
			return
		}
	}
}

// SendMouseEvent implements engine.EventSink.
func (b *Browser) SendMouseEvent(ev engine.MouseEvent) {
	b.enqueue(mouseParams(ev), nil)
}

// SendKeyEvent implements engine.EventSink.
func (b *Browser) SendKeyEvent(ev engine.KeyEvent) {
	b.enqueue(keyParams(ev), nil)
}

// SendMouseWheelEvent implements engine.EventSink.
func (b *Browser) SendMouseWheelEvent(ev engine.WheelEvent) {
	b.enqueue(wheelParams(ev), nil)
}

// WasResized implements engine.Browser. The viewport is read back from
// the render handler and the screencast restarted at the new size.
func (b *Browser) WasResized(int, int) {
	b.enqueue(chromedp.Tasks{
		b.viewport(),
		page.StopScreencast(),
		b.screencast(),
	}, nil)
}

// Invalidate implements engine.Browser. The screencast only sends frames
// on change, so a screenshot stands in for the forced repaint.
func (b *Browser) Invalidate() {
	b.enqueue(chromedp.ActionFunc(func(ctx context.Context) error {
		data, err := page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		if err != nil {
			return err
		}
		img, err := decodeImage(data)
		if err != nil {
			return err
		}
		b.paint(img)
		return nil
	}), nil)
}

// SetFocus implements engine.Browser.
func (b *Browser) SetFocus(focused bool) {
	b.enqueue(emulation.SetFocusEmulationEnabled(focused), nil)
}

// Close implements engine.Browser. Without ignoreConfirmation the page
// runs its unload handlers first. It is safe to call more than once.
func (b *Browser) Close(ignoreConfirmation bool) {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	close(b.stop)
	b.acancel()
	b.wg.Wait()
	b.drain()

	if !ignoreConfirmation && b.ctx.Err() == nil {
		ctx, cancel := context.WithTimeout(b.ctx, closeTimeout)
		if err := chromedp.Run(ctx, page.Close()); err != nil {
			b.eng.log().Debug("cdp: page close", "err", err)
		}
		cancel()
	}
	if err := chromedp.Cancel(b.ctx); err != nil {
		b.eng.log().Debug("cdp: close target", "err", err)
	}
	b.cancel()
	b.eng.forget(b)
}

// ExecuteJavaScript implements engine.Browser. Scripts for a subframe
// run in an isolated world of the first frame whose URL is frameURL.
// The protocol has no starting line, so line is only used in logs.
func (b *Browser) ExecuteJavaScript(code, frameURL string, line int) {
	b.enqueue(chromedp.ActionFunc(func(ctx context.Context) error {
		p := runtime.Evaluate(code)
		if frameURL != "" {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			id, ok := findFrame(tree, frameURL)
			if !ok {
				return fmt.Errorf("cdp: no frame with url %q", frameURL)
			}
			if id != b.mainFrame.Load().(cdptypes.FrameID) {
				execID, err := page.CreateIsolatedWorld(id).WithWorldName(isolatedWorld).Do(ctx)
				if err != nil {
					return err
				}
				p = p.WithContextID(execID)
			}
		}
		_, exc, err := p.Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			b.eng.log().Debug("cdp: script exception",
				"frame", frameURL, "line", line+int(exc.LineNumber), "text", exc.Text)
		}
		return nil
	}), nil)
}

// GetSource implements engine.Browser. fn is called exactly once; it
// receives "" if the document cannot be read, the request is dropped or
// the browser closes first.
func (b *Browser) GetSource(fn func(source string)) {
	visit := visitOnce(fn)
	b.enqueue(chromedp.ActionFunc(func(ctx context.Context) error {
		root, err := dom.GetDocument().WithDepth(0).Do(ctx)
		if err != nil {
			return err
		}
		html, err := dom.GetOuterHTML().WithNodeID(root.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		visit(html)
		return nil
	}), func() { visit("") })
}

func visitOnce(fn func(string)) func(string) {
	var once sync.Once
	return func(s string) {
		once.Do(func() { fn(s) })
	}
}

// IsLoading implements engine.Browser.
func (b *Browser) IsLoading() bool {
	return b.loading.Load()
}

// findFrame returns the id of the first frame in tree, depth first, whose
// URL matches url.
func findFrame(tree *page.FrameTree, url string) (cdptypes.FrameID, bool) {
	if tree == nil {
		return "", false
	}
	if tree.Frame != nil && tree.Frame.URL == url {
		return tree.Frame.ID, true
	}
	for _, child := range tree.ChildFrames {
		if id, ok := findFrame(child, url); ok {
			return id, true
		}
	}
	return "", false
}
