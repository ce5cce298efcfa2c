package app

import "time"

// Ticker is the part of time.Ticker the session needs; tests inject fakes.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type stdTicker struct {
	t *time.Ticker
}

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// countdown forwards ticker fires into the session as Tick events while the
// quiz is active. Each countdown has its own generation so the session can
// drop ticks that were queued before it was cancelled.
type countdown struct {
	gen    uint64
	ticker Ticker
	stop   chan struct{}
}

func startCountdown(gen uint64, ticker Ticker, emit func(envelope, <-chan struct{}) bool) *countdown {
	c := &countdown{gen: gen, ticker: ticker, stop: make(chan struct{})}
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				if !emit(envelope{action: Tick{}, gen: gen}, c.stop) {
					return
				}
			case <-c.stop:
				return
			}
		}
	}()
	return c
}

func (c *countdown) cancel() {
	close(c.stop)
}
