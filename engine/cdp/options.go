package cdp

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Defaults for Engine options.
const (
	DefaultQueueSize = 256
	DefaultQuality   = 90
)

type options struct {
	execPath  string
	headless  bool
	args      []string
	debugPort int
	format    page.ScreencastFormat
	quality   int
	queueSize int
	logger    *slog.Logger
}

func defaultOptions() options {
	return options{
		headless:  true,
		format:    page.ScreencastFormatPng,
		quality:   DefaultQuality,
		queueSize: DefaultQueueSize,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithExecPath sets the Chromium executable. Empty means search the usual
// install locations.
func WithExecPath(path string) Option {
	return func(o *options) {
		o.execPath = path
	}
}

// WithHeadless toggles headless mode. The default is headless.
func WithHeadless(headless bool) Option {
	return func(o *options) {
		o.headless = headless
	}
}

// WithArgs appends command-line switches, "--name" or "--name=value".
// The leading dashes are optional.
func WithArgs(args ...string) Option {
	return func(o *options) {
		o.args = append(o.args, args...)
	}
}

// WithDebugPort pins the remote debugging port. Developer tools browsers
// need a known port to reach the inspected page.
func WithDebugPort(port int) Option {
	return func(o *options) {
		o.debugPort = port
	}
}

// WithJPEGFrames makes the screencast send JPEG frames at quality
// (1-100) instead of PNG.
func WithJPEGFrames(quality int) Option {
	return func(o *options) {
		o.format = page.ScreencastFormatJpeg
		if quality > 0 && quality <= 100 {
			o.quality = quality
		}
	}
}

// WithQueueSize sets how many input events may wait per browser before
// new ones are dropped.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// parseArg splits a command-line switch into a chromedp flag name and
// value. Bare switches map to true.
func parseArg(arg string) (string, any) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if name, value, ok := strings.Cut(arg, "="); ok {
		return name, value
	}
	return arg, true
}

func (o options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.headless),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
	)
	if o.execPath != "" {
		opts = append(opts, chromedp.ExecPath(o.execPath))
	}
	if o.debugPort > 0 {
		opts = append(opts, chromedp.Flag("remote-debugging-port", strconv.Itoa(o.debugPort)))
	}
	for _, arg := range o.args {
		name, value := parseArg(arg)
		if name == "" {
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}
