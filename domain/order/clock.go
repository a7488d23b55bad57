package order

import (
	"time"

	"github.com/benbjohnson/clock"
)

// AuctionClock owns the deadline arithmetic of auction orders
type AuctionClock struct {
	clock clock.Clock
}

func NewAuctionClock(c clock.Clock) *AuctionClock {
	if c == nil {
		c = clock.New()
	}
	return &AuctionClock{clock: c}
}

func (c *AuctionClock) Now() time.Time {
	return c.clock.Now()
}

// Start begins the countdown on the first bid
func (c *AuctionClock) Start(o *Order) {
	now := c.clock.Now()
	o.FirstBidTime = now
	o.EndTime = now.Add(o.Duration)
}

// MaybeExtend pushes the deadline to now + extension when a bid lands with
// strictly less than the extension left. It reports whether it did.
func (c *AuctionClock) MaybeExtend(o *Order) bool {
	now := c.clock.Now()
	if o.EndTime.Sub(now) >= o.ExtensionDuration {
		return false
	}
	o.EndTime = now.Add(o.ExtensionDuration)
	return true
}

// IsOver is true once a started auction reached its deadline
func (c *AuctionClock) IsOver(o *Order) bool {
	return o.HasBid() && !c.clock.Now().Before(o.EndTime)
}
