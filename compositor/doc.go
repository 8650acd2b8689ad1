// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compositor uploads browser frames to GPU textures and draws them.
//
// The data flow is:
//
//	staged BGRA frame -> Upload (full or dirty rects) -> Texture -> Draw
//
// # Uploads
//
// A frame is uploaded in full when the caller asks for a full redraw, when
// the texture does not exist yet, or when the frame size differs from the
// texture size. Otherwise every dirty rectangle is clipped to the texture
// and uploaded through [gpucontext.TextureRegionUpdater]. Textures that do
// not support region updates receive the whole frame.
//
// Textures are created through a [gpucontext.TextureCreator]. When none was
// configured with [WithTextureCreator], creation is deferred until the
// first [Compositor.Draw], which borrows the creator of the draw context.
//
// # Popups
//
// Popup frames (select dropdowns and similar) go to a separate overlay
// texture drawn on top of the page at the rectangle reported through
// [Compositor.SetPopupRect]. Hiding the popup with [Compositor.ClearPopup]
// forces the next page upload to be a full redraw so that no popup pixels
// survive in the page texture.
//
// # Pixel Format
//
// Frames are 32-bit BGRA, 8 bits per channel, premultiplied. Creators
// taking RGBA receive a swizzled copy. A creator that reports
// [gputypes.TextureFormatBGRA8Unorm] through a Format method receives the
// frame bytes as they are.
//
// # Thread Safety
//
// Upload, Draw and Cleanup must be called from the render goroutine.
// SetPopupRect and ClearPopup may be called from any goroutine.
package compositor
