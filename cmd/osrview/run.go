package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/backend"
	"github.com/gogpu/osr/backend/software"
	"github.com/gogpu/osr/config"
	"github.com/gogpu/osr/engine/cdp"

	// Registers the wgpu backend; it is only available once a host
	// device is set, so headless runs fall back to software.
	_ "github.com/gogpu/osr/backend/wgpu"
)

const loadPoll = 50 * time.Millisecond

type runOptions struct {
	frames  int
	out     string
	script  string
	timeout time.Duration
}

func newRunCmd(a *app) *cobra.Command {
	var ro runOptions
	cmd := &cobra.Command{
		Use:   "run [url]",
		Short: "Load a page, composite its frames and save a PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := a.cfg.Browser.HomePage
			if len(args) == 1 {
				url = args[0]
			}
			return runView(cmd.Context(), a.cfg, url, ro)
		},
	}
	f := cmd.Flags()
	f.IntVar(&ro.frames, "frames", 1, "frames to upload after the page has loaded")
	f.StringVarP(&ro.out, "out", "o", "osrview.png", "PNG output file, empty to skip")
	f.StringVar(&ro.script, "script", "", "JavaScript to run once the page has loaded")
	f.DurationVar(&ro.timeout, "timeout", 30*time.Second, "give up waiting for frames after this long")
	return cmd
}

// engineOptions maps configuration to engine options.
func engineOptions(cfg *config.Config) []cdp.Option {
	opts := []cdp.Option{
		cdp.WithHeadless(cfg.Browser.Headless),
		cdp.WithExecPath(cfg.Browser.ExecPath),
		cdp.WithArgs(cfg.Browser.EngineArgs...),
		cdp.WithDebugPort(cfg.Browser.DebugPort),
		cdp.WithLogger(osr.Logger()),
	}
	if cfg.Browser.JPEGQuality > 0 {
		opts = append(opts, cdp.WithJPEGFrames(cfg.Browser.JPEGQuality))
	}
	return opts
}

// canvasSize returns the device pixel size of the view.
func canvasSize(b config.BrowserConfig) (int, int) {
	w := int(math.Round(float64(b.Width) * b.ScaleFactor))
	h := int(math.Round(float64(b.Height) * b.ScaleFactor))
	return max(w, 1), max(h, 1)
}

func runView(ctx context.Context, cfg *config.Config, url string, ro runOptions) error {
	log := osr.Logger()

	tb, err := backend.Open(cfg.Render.Backend)
	if err != nil {
		return fmt.Errorf("texture backend: %w", err)
	}
	defer tb.Close()
	log.Info("osrview: texture backend ready", "backend", tb.Name())

	eng, err := cdp.New(ctx, engineOptions(cfg)...)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warn("osrview: engine shutdown", "err", err)
		}
	}()

	sess, err := osr.NewSession(eng, url,
		osr.WithSize(cfg.Browser.Width, cfg.Browser.Height),
		osr.WithScaleFactor(cfg.Browser.ScaleFactor),
		osr.WithTransparent(cfg.Browser.Transparent),
		osr.WithTextureCreator(tb.TextureCreator()),
		osr.WithTrackTextures(cfg.Render.TrackTextures),
	)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.CreateImmediately(ctx); err != nil {
		return err
	}

	cw, ch := canvasSize(cfg.Browser)
	canvas := software.NewCanvas(cw, ch)

	runCtx, cancel := context.WithTimeout(ctx, ro.timeout)
	defer cancel()

	loaded := make(chan struct{})
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return waitLoaded(gctx, sess, loaded, ro.script)
	})
	g.Go(func() error {
		return tickLoop(gctx, sess, canvas, cfg.Render.FPS, loaded, ro.frames)
	})

	err = g.Wait()
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		log.Warn("osrview: timed out waiting for frames", "timeout", ro.timeout)
		err = nil
	}
	if err != nil {
		return err
	}

	st := sess.FrameStats()
	log.Info("osrview: done",
		"submitted", st.Submitted, "uploaded", st.Uploaded,
		"overwritten", st.Overwritten, "dropped", st.Dropped,
		"live_textures", sess.LiveTextures())

	if ro.out == "" {
		return nil
	}
	if err := canvas.Snapshot().SavePNG(ro.out); err != nil {
		return fmt.Errorf("save %s: %w", ro.out, err)
	}
	log.Info("osrview: saved", "file", ro.out, "width", cw, "height", ch)
	return nil
}

// waitLoaded closes loaded once the main frame has finished loading,
// after running script.
func waitLoaded(ctx context.Context, sess *osr.Session, loaded chan<- struct{}, script string) error {
	t := time.NewTicker(loadPoll)
	defer t.Stop()
	for sess.IsPageLoading() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	osr.Logger().Info("osrview: page loaded", "url", sess.URL())
	if script != "" {
		if err := sess.RunJS(script, ""); err != nil {
			return err
		}
	}
	close(loaded)
	return nil
}

// tickLoop uploads and draws frames at fps until frames uploads have
// happened after load.
func tickLoop(ctx context.Context, sess *osr.Session, canvas *software.Canvas, fps int, loaded <-chan struct{}, frames int) error {
	t := time.NewTicker(time.Second / time.Duration(fps))
	defer t.Stop()

	var base uint64
	isLoaded := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-loaded:
			if !isLoaded {
				isLoaded = true
				base = sess.FrameStats().Uploaded
			}
			loaded = nil
		case <-t.C:
			if err := sess.Tick(); err != nil {
				return err
			}
			canvas.Clear()
			if sess.TextureHandle() != nil {
				if err := sess.Draw(canvas, 0, 0, float32(canvas.Image().Rect.Dx()), float32(canvas.Image().Rect.Dy())); err != nil {
					return err
				}
			}
			if isLoaded && sess.FrameStats().Uploaded-base >= uint64(max(frames, 0)) {
				return nil
			}
		}
	}
}
