package cdp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// detachedBrowser returns a browser with no Chromium target behind it.
// Queued actions run directly against the action context.
func detachedBrowser(t *testing.T, queueSize int) *Browser {
	t.Helper()
	e := &Engine{opts: defaultOptions()}
	e.opts.queueSize = queueSize
	e.SetLogger(nil)
	ctx, cancel := context.WithCancel(context.Background())
	b := newBrowser(e, ctx, cancel, nopHandler{})
	b.do = func(ctx context.Context, a chromedp.Action) error {
		return a.Do(ctx)
	}
	return b
}

type visits struct {
	mu  sync.Mutex
	got []string
}

func (v *visits) fn(s string) {
	v.mu.Lock()
	v.got = append(v.got, s)
	v.mu.Unlock()
}

func (v *visits) all() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.got...)
}

func TestGetSourceAfterClose(t *testing.T) {
	b := detachedBrowser(t, 4)
	b.Close(true)

	var v visits
	b.GetSource(v.fn)
	assert.Equal(t, []string{""}, v.all())
}

func TestGetSourceQueueFull(t *testing.T) {
	b := detachedBrowser(t, 1)

	var first, second visits
	b.GetSource(first.fn)
	b.GetSource(second.fn)
	assert.Empty(t, first.all(), "first request is queued")
	assert.Equal(t, []string{""}, second.all(), "dropped request is answered")

	b.Close(true)
	assert.Equal(t, []string{""}, first.all(), "queued request is answered on close")
}

func TestGetSourceFailedAction(t *testing.T) {
	b := detachedBrowser(t, 4)
	b.do = func(context.Context, chromedp.Action) error {
		return errors.New("target gone")
	}
	b.wg.Add(1)
	go b.run()
	t.Cleanup(func() { b.Close(true) })

	done := make(chan string, 1)
	b.GetSource(func(s string) { done <- s })
	select {
	case s := <-done:
		assert.Empty(t, s)
	case <-time.After(5 * time.Second):
		t.Fatal("visitor not called")
	}
}

func TestCloseCancelsRunningAction(t *testing.T) {
	b := detachedBrowser(t, 4)
	b.wg.Add(1)
	go b.run()

	started := make(chan struct{})
	b.enqueue(chromedp.ActionFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}), nil)
	<-started

	var v visits
	b.GetSource(v.fn)

	closed := make(chan struct{})
	go func() {
		b.Close(true)
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on a running action")
	}
	require.Equal(t, []string{""}, v.all())
}

func TestVisitOnce(t *testing.T) {
	var v visits
	visit := visitOnce(v.fn)
	visit("<html></html>")
	visit("")
	assert.Equal(t, []string{"<html></html>"}, v.all())
}
