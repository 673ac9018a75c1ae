package core

import "time"

const AVG_COUNT uint8 = 30

/** @brief Per-frame numbers reported by the job builder on submission. */
type FrameSample struct {
	Jobs         int
	ImplicitDeps int
	Resources    int
	SubmitTime   time.Duration
}

/**
 * @brief Rolling statistics over the last AVG_COUNT submitted frames.
 * Not safe for concurrent use; owned by the builder like the rest of its state.
 */
type FrameMetrics struct {
	counter   uint8
	filled    bool
	samples   [AVG_COUNT]FrameSample
	Frames    uint64
	TotalJobs uint64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{}
}

func (m *FrameMetrics) Update(sample FrameSample) {
	m.samples[m.counter] = sample
	if m.counter == AVG_COUNT-1 {
		m.filled = true
	}
	m.counter++
	m.counter %= AVG_COUNT

	m.Frames++
	m.TotalJobs += uint64(sample.Jobs)
}

func (m *FrameMetrics) window() []FrameSample {
	if m.filled {
		return m.samples[:]
	}
	return m.samples[:m.counter]
}

// AverageJobs returns the mean job count of the sampled frames.
func (m *FrameMetrics) AverageJobs() float64 {
	w := m.window()
	if len(w) == 0 {
		return 0
	}
	total := 0
	for _, s := range w {
		total += s.Jobs
	}
	return float64(total) / float64(len(w))
}

// AverageSubmitTime returns the mean SubmitRootJob duration of the sampled frames.
func (m *FrameMetrics) AverageSubmitTime() time.Duration {
	w := m.window()
	if len(w) == 0 {
		return 0
	}
	var total time.Duration
	for _, s := range w {
		total += s.SubmitTime
	}
	return total / time.Duration(len(w))
}

// Last returns the most recent sample.
func (m *FrameMetrics) Last() FrameSample {
	if m.Frames == 0 {
		return FrameSample{}
	}
	return m.samples[(m.counter+AVG_COUNT-1)%AVG_COUNT]
}
