// Package backend provides a pluggable texture backend abstraction.
//
// A backend supplies the gpucontext.TextureCreator that browser frames
// are uploaded through. Backends register themselves from init()
// functions and are selected at runtime.
//
// # Backend Registration
//
// Import the backends you want available:
//
//	import (
//		_ "github.com/gogpu/osr/backend/software"
//		_ "github.com/gogpu/osr/backend/wgpu"
//	)
//
// # Backend Selection
//
// Open returns an initialized backend. An empty name picks the first of
// wgpu and software that initializes:
//
//	b, err := backend.Open("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	s, _ := osr.NewSession(eng, url, osr.WithTextureCreator(b.TextureCreator()))
//
// # Available Backends
//
// - "software": CPU textures backed by image.RGBA (always available)
// - "wgpu": GPU textures via gogpu/wgpu
package backend
