package osr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/google/uuid"

	"github.com/gogpu/osr/compositor"
	"github.com/gogpu/osr/engine"
	"github.com/gogpu/osr/input"
	"github.com/gogpu/osr/internal/staging"
)

// oversizedWarnEvery limits dropped-frame warnings per session.
const oversizedWarnEvery = time.Second

// State is the lifecycle state of a Session.
type State int32

// Session states. Transitions only move forward.
const (
	StateUninitialized State = iota
	StateCreated
	StateClosing
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreated:
		return "created"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// FrameStats counts paint traffic of a session.
type FrameStats struct {
	Submitted   uint64
	Dropped     uint64
	Overwritten uint64
	Uploaded    uint64
}

// Session is one off-screen browser: the engine handle, the staging
// buffer its paints land in, the compositor owning its texture, and the
// input router feeding it.
//
// Engine callbacks (the engine.RenderHandler methods) may run on any
// goroutine. Tick, Draw and Close must be called from the render goroutine.
type Session struct {
	id   uuid.UUID
	eng  engine.Engine
	url  string
	opts options

	parent    *Session
	inspectAt *engine.Point

	createMu sync.Mutex // serializes engine browser creation

	mu      sync.Mutex // guards state, browser and geom
	state   State
	browser engine.Browser
	geom    ViewGeometry

	staging *staging.Buffer
	comp    *compositor.Compositor
	router  *input.Router
}

// NewSession creates a session for url. The engine browser is created by
// CreateImmediately, or by the first input, script or source request.
func NewSession(eng engine.Engine, url string, opts ...Option) (*Session, error) {
	if eng == nil {
		return nil, ErrNilEngine
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newSession(eng, url, o), nil
}

func newSession(eng engine.Engine, url string, o options) *Session {
	l := Logger()
	s := &Session{
		id:      uuid.New(),
		eng:     eng,
		url:     url,
		opts:    o,
		geom:    o.geometry,
		staging: staging.New(l, oversizedWarnEvery),
		comp: compositor.New(
			compositor.WithTextureCreator(o.creator),
			compositor.WithTrackTextures(o.trackTextures),
			compositor.WithLogger(l),
		),
		router: input.NewRouter(nil),
	}
	s.router.SetSink(sessionSink{s})
	if o.registry != nil {
		o.registry.add(s)
	}
	return s
}

// ID returns the session's unique ID.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// URL returns the URL the session was created for.
func (s *Session) URL() string {
	return s.url
}

// Parent returns the inspected session of a developer tools session.
func (s *Session) Parent() *Session {
	return s.parent
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetLogger updates the logger of the session's components.
func (s *Session) SetLogger(l *slog.Logger) {
	propagateLogger(s.staging, l)
	propagateLogger(s.comp, l)
}

func (s *Session) handle() engine.Browser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser
}

// CreateImmediately creates the engine browser now instead of on demand.
// If the browser already exists it is focused instead.
func (s *Session) CreateImmediately(ctx context.Context) error {
	_, err := s.create(ctx, true)
	return err
}

// createIfRequired returns the engine browser, creating it with the
// session's create context when no interaction has needed it yet.
func (s *Session) createIfRequired() (engine.Browser, error) {
	if b := s.handle(); b != nil {
		return b, nil
	}
	return s.create(s.opts.createCtx, false)
}

func (s *Session) create(ctx context.Context, focus bool) (engine.Browser, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	s.mu.Lock()
	st, b := s.state, s.browser
	s.mu.Unlock()
	if st >= StateClosing {
		return nil, ErrClosed
	}
	if b != nil {
		if focus {
			b.SetFocus(true)
		}
		return b, nil
	}

	req := engine.Request{
		URL:            s.url,
		Transparent:    s.opts.transparent,
		RequestContext: s.opts.requestContext,
		Handler:        s,
	}

	var err error
	if s.parent != nil {
		pb := s.parent.handle()
		if pb == nil {
			return nil, fmt.Errorf("osr: developer tools parent: %w", ErrNotCreated)
		}
		b, err = s.eng.CreateDevTools(ctx, pb, req, s.inspectAt)
	} else {
		b, err = s.eng.CreateBrowser(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("osr: create browser: %w", err)
	}

	s.mu.Lock()
	if s.state >= StateClosing {
		// Closed while the engine was creating the browser.
		s.mu.Unlock()
		b.Close(true)
		return nil, ErrClosed
	}
	s.browser = b
	s.state = StateCreated
	s.mu.Unlock()

	Logger().Info("osr: browser created", "session", s.id, "url", s.url, "devtools", s.parent != nil, "lazy", !focus)
	return b, nil
}

// OpenDevTools opens a developer tools session inspecting s. inspectAt
// selects the element under a view point, or nil. The new session
// inherits transparency, registry and texture settings; opts override.
func (s *Session) OpenDevTools(ctx context.Context, inspectAt *engine.Point, opts ...Option) (*Session, error) {
	if s.State() >= StateClosing {
		return nil, ErrClosed
	}
	o := s.opts
	o.geometry = defaultGeometry()
	o.geometry.ScaleFactor = s.opts.geometry.ScaleFactor
	for _, opt := range opts {
		opt(&o)
	}
	child := newSession(s.eng, "", o)
	child.parent = s
	child.inspectAt = inspectAt
	if err := child.CreateImmediately(ctx); err != nil {
		_ = child.Close()
		return nil, err
	}
	return child, nil
}

// Resize changes the view size and notifies the engine. Textures are
// reallocated when the first frame of the new size arrives.
func (s *Session) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	s.mu.Lock()
	if s.state >= StateClosing {
		s.mu.Unlock()
		return ErrClosed
	}
	s.geom.Width = width
	s.geom.Height = height
	b := s.browser
	s.mu.Unlock()

	if b != nil {
		b.WasResized(width, height)
	}
	return nil
}

// Geometry returns the current view geometry.
func (s *Session) Geometry() ViewGeometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geom
}

// Tick moves the latest staged frame into the texture, then replays the
// last mouse move to the engine. Call it once per host frame.
func (s *Session) Tick() error {
	if s.State() >= StateClosing {
		return ErrClosed
	}

	var uploadErr error
	s.staging.Drain(func(f staging.Frame) {
		uploadErr = s.comp.Upload(f.Pixels, f.Width, f.Height, f.Dirty, f.FullRedraw, f.Popup)
	})
	if uploadErr != nil {
		Logger().Warn("osr: frame upload failed", "session", s.id, "err", uploadErr)
	}

	if s.handle() != nil {
		s.router.Replay()
	}
	return uploadErr
}

// Draw draws the page texture over the rectangle (x1, y1)-(x2, y2),
// followed by any visible popup.
func (s *Session) Draw(dc gpucontext.TextureDrawer, x1, y1, x2, y2 float32) error {
	if s.State() >= StateClosing {
		return ErrClosed
	}
	return s.comp.Draw(dc, x1, y1, x2, y2)
}

// TextureHandle returns the page texture, or nil before the first upload.
func (s *Session) TextureHandle() gpucontext.Texture {
	return s.comp.Texture()
}

// LiveTextures returns the number of textures alive for this session
// when texture tracking is enabled, zero otherwise.
func (s *Session) LiveTextures() int {
	return s.comp.LiveTextures()
}

// FrameStats returns paint traffic counters.
func (s *Session) FrameStats() FrameStats {
	st := s.staging.Stats()
	return FrameStats{
		Submitted:   st.Submitted,
		Dropped:     st.Dropped,
		Overwritten: st.Overwritten,
		Uploaded:    st.Drained,
	}
}

// Screenshot is not supported for off-screen sessions.
func (s *Session) Screenshot() (image.Image, error) {
	return nil, ErrNotSupported
}

// Attach routes a gogpu host's input and resize events to the session.
func (s *Session) Attach(src gpucontext.EventSource) {
	s.router.Attach(src)
	src.OnResize(func(width, height int) {
		if err := s.Resize(width, height); err != nil {
			Logger().Debug("osr: host resize ignored", "session", s.id, "err", err)
		}
	})
}

// RunJS executes code in the frame loaded from frameURL, or in the main
// frame if frameURL is empty.
func (s *Session) RunJS(code, frameURL string) error {
	b, err := s.createIfRequired()
	if err != nil {
		return err
	}
	b.ExecuteJavaScript(code, frameURL, 0)
	return nil
}

// VisitSource delivers the main frame's source to fn, possibly on
// another goroutine.
func (s *Session) VisitSource(fn func(source string)) error {
	b, err := s.createIfRequired()
	if err != nil {
		return err
	}
	b.GetSource(fn)
	return nil
}

// IsPageLoading reports whether the main frame is loading. It is false
// before the browser is created.
func (s *Session) IsPageLoading() bool {
	b := s.handle()
	return b != nil && b.IsLoading()
}

// Close closes the engine browser. Unless cleanup is disabled on the
// session's registry, it also leaves the registry and releases the
// textures. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state >= StateClosing {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosing
	b := s.browser
	s.mu.Unlock()

	reg := s.opts.registry
	if reg == nil || reg.Cleanup() {
		if reg != nil {
			reg.remove(s)
		}
		s.comp.Cleanup()
	}
	s.router.SetSink(nil)
	if b != nil {
		b.Close(true)
	}

	s.mu.Lock()
	s.state = StateClosed
	s.browser = nil
	s.mu.Unlock()

	Logger().Info("osr: session closed", "session", s.id)
	return nil
}
