package mas

// tickClock tells a layer when its next tick is due.
//
// The main layer is paced by the produced samples, the jingle
// layer is paced by video frames.
type tickClock interface {
	reset()

	// setTempo applies a new BPM; scale is a 6.10 multiplier.
	setTempo(bpm, scale uint32)

	// due reports whether a tick must run before more samples are mixed.
	due() bool
	tickDone()

	// budget returns how many samples can be mixed before the next tick.
	budget(limit int) int
	advanceSamples(n int)

	// advanceFrame returns the number of ticks elapsed during a frame.
	advanceFrame() int
}

// sampleClock counts the samples left until the next tick in 16.16 fixed point.
type sampleClock struct {
	sampleRate uint64
	rate       uint64
	remain     int64
}

func (c *sampleClock) reset() { c.remain = 0 }

func (c *sampleClock) setTempo(bpm, scale uint32) {
	tempo := uint64(clampMin((bpm*scale)>>10, 1))
	// A tick lasts 2.5/bpm seconds.
	c.rate = c.sampleRate * 163840 / tempo
}

func (c *sampleClock) due() bool { return c.remain < 1<<16 }

func (c *sampleClock) tickDone() { c.remain += int64(c.rate) }

func (c *sampleClock) budget(limit int) int {
	n := int(c.remain >> 16)
	if n < limit {
		return n
	}
	return limit
}

func (c *sampleClock) advanceSamples(n int) { c.remain -= int64(n) << 16 }

func (c *sampleClock) advanceFrame() int { return 0 }

// frameClock accumulates fractional ticks per video frame.
type frameClock struct {
	frameRate float64
	rate      uint32
	acc       uint32
}

func (c *frameClock) reset() { c.acc = 0 }

func (c *frameClock) setTempo(bpm, scale uint32) {
	ticksPerSecond := float64(bpm) * float64(scale) / 1024 * 0.4
	c.rate = uint32(ticksPerSecond / c.frameRate * 65536)
}

func (c *frameClock) due() bool { return false }

func (c *frameClock) tickDone() {}

func (c *frameClock) budget(limit int) int { return limit }

func (c *frameClock) advanceSamples(n int) {}

func (c *frameClock) advanceFrame() int {
	c.acc += c.rate
	n := int(c.acc >> 16)
	c.acc &= 0xFFFF
	return n
}
