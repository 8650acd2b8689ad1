// Package wgpu provides GPU textures backed by gogpu/wgpu.
//
// The backend does no rendering of its own. It owns BGRA8 textures that
// browser frames are uploaded into with Queue.WriteTexture, either whole
// or one dirty rectangle at a time, and leaves drawing to the host's
// gpucontext.TextureDrawer.
//
// # Device
//
// The host application owns the device. Hand it over with [SetDevice]
// before selecting the backend through the registry, or build a backend
// directly:
//
//	b, err := wgpu.FromProvider(app) // app implements gpucontext.DeviceProvider
//	if err != nil {
//	    return err
//	}
//	if err := b.Init(); err != nil {
//	    return err
//	}
//	session, err := osr.NewSession(eng, url, osr.WithTextureCreator(b.TextureCreator()))
//
// Without a device the registered factory yields no backend, and
// backend.Open("") falls through to the software backend.
package wgpu
