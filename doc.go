// Package osr composites off-screen browser frames into GPU textures.
//
// # Overview
//
// A browser engine paints pages on its own goroutine. A host application
// draws on its render loop. osr connects the two: engine paints land in a
// staging buffer, each host tick uploads the latest one into a texture
// (only the dirty rectangles when possible), and host input is translated
// into the engine's event conventions.
//
// # Quick Start
//
//	eng, _ := cdp.New(ctx)
//	s, _ := osr.NewSession(eng, "https://example.com", osr.WithSize(1280, 720))
//	defer s.Close()
//	_ = s.CreateImmediately(ctx)
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    _ = s.Tick()
//	    _ = s.Draw(dc.AsTextureDrawer(), 0, 0, 1280, 720)
//	})
//
// # Sessions
//
// A [Session] moves through uninitialized, created, closing and closed.
// The engine browser is created by [Session.CreateImmediately]; calling it
// again focuses the existing browser. [Session.OpenDevTools] opens a
// developer tools session attached to a parent. Sessions are tracked by a
// [Registry].
//
// # Frame Flow
//
//	engine OnPaint -> staging buffer -> Tick -> texture -> Draw
//
// A frame painted while the previous one is still staged replaces it and
// forces a full texture upload. Frames larger than their declared size
// are dropped with a warning.
//
// # Input
//
// Inject methods forward mouse, key and wheel events. Key releases without
// a character reuse the character of the matching press. The last mouse
// move is resent on every Tick.
//
// # Packages
//
//   - engine: engine contract, with engine/cdp and engine/enginetest
//   - compositor: texture upload and drawing
//   - keymap, input: key translation and event routing
//   - backend: texture backends (software, wgpu)
//   - config: application configuration
package osr
