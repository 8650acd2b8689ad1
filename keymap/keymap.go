// Package keymap translates host key codes into the virtual-key codes a
// browser engine expects for key-down and key-up events.
//
// Only control keys have a fixed mapping. For every other key the
// engine identifies the key by its character, which is why a key-up
// event without a character must be resolved through a [Recovery] cache
// filled in by the matching key-down.
package keymap

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// Windows virtual-key codes for the keys with a fixed mapping.
const (
	VKBack   = 0x08
	VKTab    = 0x09
	VKReturn = 0x0D
	VKEscape = 0x1B
	VKPrior  = 0x21
	VKNext   = 0x22
	VKEnd    = 0x23
	VKHome   = 0x24
	VKLeft   = 0x25
	VKUp     = 0x26
	VKRight  = 0x27
	VKDown   = 0x28
	VKDelete = 0x2E
)

var controlKeys = map[gpucontext.Key]int{
	gpucontext.KeyBackspace: VKBack,
	gpucontext.KeyDelete:    VKDelete,
	gpucontext.KeyDown:      VKDown,
	gpucontext.KeyEnter:     VKReturn,
	gpucontext.KeyEscape:    VKEscape,
	gpucontext.KeyLeft:      VKLeft,
	gpucontext.KeyRight:     VKRight,
	gpucontext.KeyTab:       VKTab,
	gpucontext.KeyUp:        VKUp,
	gpucontext.KeyPageUp:    VKPrior,
	gpucontext.KeyPageDown:  VKNext,
	gpucontext.KeyEnd:       VKEnd,
	gpucontext.KeyHome:      VKHome,
}

// Translate returns the engine key code for key.
// Keys outside the control table are identified by char.
func Translate(key gpucontext.Key, char rune) int {
	if vk, ok := controlKeys[key]; ok {
		return vk
	}
	return int(char)
}

// IsControl reports whether key has a fixed virtual-key mapping.
func IsControl(key gpucontext.Key) bool {
	_, ok := controlKeys[key]
	return ok
}

// Recovery remembers the last character produced by each key so that a
// release reported without a character can be matched to its press.
//
// Entries are never pruned; the key space is small and bounded.
// Recovery is safe for concurrent use.
type Recovery struct {
	mu    sync.Mutex
	chars map[gpucontext.Key]rune
}

// NewRecovery returns an empty cache.
func NewRecovery() *Recovery {
	return &Recovery{chars: make(map[gpucontext.Key]rune)}
}

// Remember records char for key. A NUL char is ignored.
func (r *Recovery) Remember(key gpucontext.Key, char rune) {
	if char == 0 {
		return
	}
	r.mu.Lock()
	r.chars[key] = char
	r.mu.Unlock()
}

// Resolve returns char if it is non-NUL, otherwise the character last
// remembered for key, or NUL if there is none.
func (r *Recovery) Resolve(key gpucontext.Key, char rune) rune {
	if char != 0 {
		return char
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chars[key]
}

// Len returns the number of remembered keys.
func (r *Recovery) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chars)
}
