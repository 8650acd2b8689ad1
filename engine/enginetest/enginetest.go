// Package enginetest provides a recording fake engine for tests.
package enginetest

import (
	"context"
	"errors"
	"sync"

	"github.com/gogpu/osr/engine"
)

// Engine is a fake engine.Engine. It records every browser it creates.
type Engine struct {
	mu       sync.Mutex
	browsers []*Browser
	ctxs     []context.Context
	failNext bool
}

// New returns an empty fake engine.
func New() *Engine {
	return &Engine{}
}

// FailNext makes the next create call fail.
func (e *Engine) FailNext() {
	e.mu.Lock()
	e.failNext = true
	e.mu.Unlock()
}

// CreateBrowser implements engine.Engine.
func (e *Engine) CreateBrowser(ctx context.Context, req engine.Request) (engine.Browser, error) {
	return e.create(ctx, req, nil, nil)
}

// CreateDevTools implements engine.Engine.
func (e *Engine) CreateDevTools(ctx context.Context, parent engine.Browser, req engine.Request, inspectAt *engine.Point) (engine.Browser, error) {
	p, ok := parent.(*Browser)
	if !ok {
		return nil, errors.New("enginetest: parent is not a fake browser")
	}
	return e.create(ctx, req, p, inspectAt)
}

func (e *Engine) create(ctx context.Context, req engine.Request, parent *Browser, inspectAt *engine.Point) (*Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failNext {
		e.failNext = false
		return nil, errors.New("enginetest: create failed")
	}
	b := &Browser{
		Request:   req,
		Parent:    parent,
		InspectAt: inspectAt,
		loading:   true,
	}
	e.browsers = append(e.browsers, b)
	e.ctxs = append(e.ctxs, ctx)
	return b, nil
}

// Browsers returns the browsers created so far, oldest first.
func (e *Engine) Browsers() []*Browser {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Browser, len(e.browsers))
	copy(out, e.browsers)
	return out
}

// CreateContext returns the context the i-th browser was created with.
func (e *Engine) CreateContext(i int) context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctxs[i]
}

// Browser is a fake engine.Browser that records the calls it receives.
type Browser struct {
	Request   engine.Request
	Parent    *Browser
	InspectAt *engine.Point

	mu          sync.Mutex
	mouse       []engine.MouseEvent
	keys        []engine.KeyEvent
	wheels      []engine.WheelEvent
	resizes     [][2]int
	scripts     []Script
	focus       []bool
	invalidates int
	closes      int
	ignoreConf  bool
	loading     bool
	source      string
}

// Script is a recorded ExecuteJavaScript call.
type Script struct {
	Code     string
	FrameURL string
	Line     int
}

// SendMouseEvent implements engine.EventSink.
func (b *Browser) SendMouseEvent(ev engine.MouseEvent) {
	b.mu.Lock()
	b.mouse = append(b.mouse, ev)
	b.mu.Unlock()
}

// SendKeyEvent implements engine.EventSink.
func (b *Browser) SendKeyEvent(ev engine.KeyEvent) {
	b.mu.Lock()
	b.keys = append(b.keys, ev)
	b.mu.Unlock()
}

// SendMouseWheelEvent implements engine.EventSink.
func (b *Browser) SendMouseWheelEvent(ev engine.WheelEvent) {
	b.mu.Lock()
	b.wheels = append(b.wheels, ev)
	b.mu.Unlock()
}

// WasResized implements engine.Browser.
func (b *Browser) WasResized(width, height int) {
	b.mu.Lock()
	b.resizes = append(b.resizes, [2]int{width, height})
	b.mu.Unlock()
}

// Invalidate implements engine.Browser.
func (b *Browser) Invalidate() {
	b.mu.Lock()
	b.invalidates++
	b.mu.Unlock()
}

// SetFocus implements engine.Browser.
func (b *Browser) SetFocus(focused bool) {
	b.mu.Lock()
	b.focus = append(b.focus, focused)
	b.mu.Unlock()
}

// Close implements engine.Browser.
func (b *Browser) Close(ignoreConfirmation bool) {
	b.mu.Lock()
	b.closes++
	b.ignoreConf = ignoreConfirmation
	b.mu.Unlock()
}

// ExecuteJavaScript implements engine.Browser.
func (b *Browser) ExecuteJavaScript(code, frameURL string, line int) {
	b.mu.Lock()
	b.scripts = append(b.scripts, Script{Code: code, FrameURL: frameURL, Line: line})
	b.mu.Unlock()
}

// GetSource implements engine.Browser. fn is called synchronously.
func (b *Browser) GetSource(fn func(string)) {
	b.mu.Lock()
	src := b.source
	b.mu.Unlock()
	fn(src)
}

// IsLoading implements engine.Browser.
func (b *Browser) IsLoading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// SetLoading sets the value reported by IsLoading.
func (b *Browser) SetLoading(loading bool) {
	b.mu.Lock()
	b.loading = loading
	b.mu.Unlock()
}

// SetSource sets the value delivered by GetSource.
func (b *Browser) SetSource(src string) {
	b.mu.Lock()
	b.source = src
	b.mu.Unlock()
}

// Paint delivers a frame to the browser's render handler, the way an
// engine paint goroutine would.
func (b *Browser) Paint(popup bool, dirty []engine.Rect, pixels []byte, width, height int) {
	b.Request.Handler.OnPaint(popup, dirty, pixels, width, height)
}

// MouseEvents returns the recorded mouse events.
func (b *Browser) MouseEvents() []engine.MouseEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]engine.MouseEvent(nil), b.mouse...)
}

// KeyEvents returns the recorded key events.
func (b *Browser) KeyEvents() []engine.KeyEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]engine.KeyEvent(nil), b.keys...)
}

// WheelEvents returns the recorded wheel events.
func (b *Browser) WheelEvents() []engine.WheelEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]engine.WheelEvent(nil), b.wheels...)
}

// Resizes returns the recorded WasResized sizes.
func (b *Browser) Resizes() [][2]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][2]int(nil), b.resizes...)
}

// Scripts returns the recorded scripts.
func (b *Browser) Scripts() []Script {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Script(nil), b.scripts...)
}

// Focus returns the recorded SetFocus values.
func (b *Browser) Focus() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.focus...)
}

// Invalidates returns the number of Invalidate calls.
func (b *Browser) Invalidates() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.invalidates
}

// Closes returns the number of Close calls and the last
// ignoreConfirmation argument.
func (b *Browser) Closes() (n int, ignoreConfirmation bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes, b.ignoreConf
}
