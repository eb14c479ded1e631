package core

import "time"

// FPSCounter counts frames rendered during the last second.
type FPSCounter struct {
	now    func() time.Time
	frames []time.Time
}

func NewFPSCounter() *FPSCounter {
	return &FPSCounter{now: time.Now}
}

// Tick records a frame and returns the number of frames in the trailing
// one-second window, including this one.
func (c *FPSCounter) Tick() int {
	now := c.now()
	cutoff := now.Add(-time.Second)
	i := 0
	for i < len(c.frames) && !c.frames[i].After(cutoff) {
		i++
	}
	c.frames = append(c.frames[i:], now)
	return len(c.frames)
}
