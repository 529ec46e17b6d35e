// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// FakeClock is a manually advanced Clock for deterministic tests.
// Time only moves when Advance is called; tickers fire once per
// elapsed interval, delivered non-blockingly into their capacity-1
// channels (matching the drop-when-behind contract of Ticker).
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
}

// NewFake creates a fake clock frozen at start.
func NewFake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now implements Clock.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker implements Clock.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ticker := &fakeTicker{
		ch:       make(chan time.Time, 1),
		interval: d,
		next:     c.now.Add(d),
	}
	c.tickers = append(c.tickers, ticker)
	return &Ticker{
		C: ticker.ch,
		stopFunc: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			ticker.stopped = true
		},
	}
}

// TickerCount reports how many tickers have been created so far.
// Tests use it to wait for a goroutine under test to install its
// ticker before advancing time.
func (c *FakeClock) TickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// Advance moves the clock forward by d, firing due tickers in time
// order.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.now.Add(d)
	for {
		fired := false
		for _, ticker := range c.tickers {
			if ticker.stopped || ticker.next.After(target) {
				continue
			}
			c.now = ticker.next
			ticker.next = ticker.next.Add(ticker.interval)
			select {
			case ticker.ch <- c.now:
			default:
			}
			fired = true
		}
		if !fired {
			break
		}
	}
	c.now = target
}
