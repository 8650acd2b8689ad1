// Package engine defines the contract between the off-screen compositing
// pipeline and an embedded browser engine.
//
// The engine is treated as an opaque collaborator. It produces pixels and
// loading notifications through [RenderHandler] callbacks, and it consumes
// input through the [Browser] handle returned by [Engine.CreateBrowser].
//
// # Callback Surface
//
// An engine calls into a RenderHandler from its own goroutine(s):
//
//   - OnPaint delivers a BGRA pixel buffer with its dirty rectangles
//   - OnPopupShow / OnPopupSize describe an overlay such as a select dropdown
//   - ScreenInfo / ViewRect / ScreenPoint answer geometry queries
//   - OnCursorChange, StartDragging and UpdateDragCursor report cursor and
//     drag state
//
// # Control Surface
//
// A Browser handle accepts mouse, key and wheel events encoded with the
// engine's own conventions: [Flags] modifier bitmask, Windows virtual-key
// codes for control keys, and wheel rotation/amount pairs.
//
// # Implementations
//
//   - engine/cdp drives Chromium through the DevTools protocol
//   - engine/enginetest is a recording fake for tests
package engine
