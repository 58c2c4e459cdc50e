package substitute

import (
	"math/rand"
	"sync"
	"time"
)

// Picker chooses one of n tied candidates. It must return a value in [0, n).
type Picker interface {
	Pick(n int) int
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(n int) int

// Pick implements Picker.
func (f PickerFunc) Pick(n int) int { return f(n) }

// FirstPicker always takes the first tied candidate (lowest teacher ID).
var FirstPicker = PickerFunc(func(int) int { return 0 })

// RandPicker picks uniformly using a seeded source. Safe for concurrent use.
type RandPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandPicker seeds a picker. A zero seed uses the current time.
func NewRandPicker(seed int64) *RandPicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSeededPicker(seed)
}

// NewSeededPicker seeds a picker with exactly seed, zero included.
func NewSeededPicker(seed int64) *RandPicker {
	return &RandPicker{rnd: rand.New(rand.NewSource(seed))} //nolint:gosec
}

// Pick implements Picker.
func (p *RandPicker) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(n)
}
