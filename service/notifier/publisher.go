package notifier

import (
	"encoding/json"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain/keys"
	"github.com/x-xyz/gomarket/domain/order"
	"github.com/x-xyz/gomarket/service/redis"
)

type publisher struct {
	redis redis.Service
}

// NewPublisher publishes events as json on the orderEvents:<type> redis channel
func NewPublisher(r redis.Service) order.Notifier {
	return &publisher{redis: r}
}

func Channel(t order.EventType) string {
	return keys.RedisKey(keys.PfxOrderEvents, string(t))
}

func (p *publisher) Notify(c ctx.Ctx, e *order.Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		c.WithField("err", err).Error("json.Marshal failed")
		return err
	}
	n, err := p.redis.Publish(c, Channel(e.Type), msg)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "type": e.Type}).Error("redis.Publish failed")
		return err
	}
	c.WithFields(log.Fields{"type": e.Type, "receivers": n}).Debug("event published")
	return nil
}
