// Package cdp implements engine.Engine on top of Chromium's DevTools
// protocol using chromedp.
//
// Each browser is a page target of one shared Chromium process. Painting
// uses the page screencast: every frame is decoded, scaled to the view
// size in device pixels and handed to the render handler as a full BGRA
// repaint. Input is replayed with Input.dispatchMouseEvent and
// Input.dispatchKeyEvent from a per-browser queue, so the EventSink
// methods never block on the protocol round trip.
//
// Popup widgets are rendered into the page by headless Chromium, so
// OnPopupShow and OnPopupSize are never called by this engine.
package cdp
