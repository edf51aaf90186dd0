package control

// FirstOrderFilter is a discrete first-order low-pass filter
type FirstOrderFilter struct {
	x           float64
	alpha       float64
	initialized bool
}

// NewFirstOrderFilter creates a filter seeded at x0 with time constant rc,
// updated every dt seconds
func NewFirstOrderFilter(x0, rc, dt float64) *FirstOrderFilter {
	return &FirstOrderFilter{
		x:           x0,
		alpha:       dt / (rc + dt),
		initialized: true,
	}
}

// Update blends a new sample into the filter state and returns the new state
func (f *FirstOrderFilter) Update(sample float64) float64 {
	if f.initialized {
		f.x = (1.0-f.alpha)*f.x + f.alpha*sample
	} else {
		f.x = sample
		f.initialized = true
	}
	return f.x
}

// State returns the current filter state without updating it
func (f *FirstOrderFilter) State() float64 {
	return f.x
}

// Reset reseeds the filter state
func (f *FirstOrderFilter) Reset(x0 float64) {
	f.x = x0
	f.initialized = true
}
