package notifier

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/order"
	"github.com/x-xyz/gomarket/service/redis/mocks"
	paytoken "github.com/x-xyz/gomarket/stores/paytoken/repository"
)

type chanSink struct {
	events chan *order.Event
	err    error
}

func (s *chanSink) Notify(c ctx.Ctx, e *order.Event) error {
	s.events <- e
	return s.err
}

type fakeSender struct {
	channel string
	embeds  []*discordgo.MessageEmbed
	err     error
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	f.channel = channelID
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, f.err
}

func finished() *order.Event {
	return &order.Event{
		Seq:           3,
		Type:          order.EventOrderFinished,
		OrderId:       1,
		OrderType:     order.OrderTypeSell,
		TokenContract: "0xdcf0de6b17785a143d006e1515a6afd123cde8ba",
		TokenId:       "7",
		TokenOwner:    "0xce4468e7ce84aceb74363f4ea64e5a038176f369",
		Bidder:        "0xdf8650b0ca1260f7a2f4fdff9082aede554f65ad",
		Price:         "1000000000000000000",
		Currency:      domain.NativeCurrency,
	}
}

func TestDispatcherFansOut(t *testing.T) {
	req := require.New(t)
	a := &chanSink{events: make(chan *order.Event, 1)}
	b := &chanSink{events: make(chan *order.Event, 1), err: errors.New("sink down")}
	d := NewDispatcher(DispatcherCfg{Workers: 2}, a, b)
	defer d.Close()

	e := finished()
	req.NoError(d.Notify(ctx.Background(), e))

	for _, s := range []*chanSink{a, b} {
		select {
		case got := <-s.events:
			req.Equal(e, got)
		case <-time.After(time.Second):
			req.Fail("event not delivered")
		}
	}
}

func TestPublisher(t *testing.T) {
	req := require.New(t)
	r := &mocks.Service{}
	e := finished()
	msg, err := json.Marshal(e)
	req.NoError(err)

	r.On("Publish", mock.Anything, "orderEvents:OrderFinished", msg).Return(2, nil).Once()
	req.NoError(NewPublisher(r).Notify(ctx.Background(), e))

	r.On("Publish", mock.Anything, "orderEvents:OrderCreated", mock.Anything).Return(0, errors.New("conn refused")).Once()
	req.Error(NewPublisher(r).Notify(ctx.Background(), &order.Event{Type: order.EventOrderCreated}))
	r.AssertExpectations(t)
}

func TestDiscord(t *testing.T) {
	tokens := paytoken.NewPayTokenRepo([]*domain.PayToken{
		{Name: "Ether", Symbol: "ETH", TokenDecimals: 18, Address: domain.NativeCurrency},
	})

	tests := []struct {
		name     string
		event    *order.Event
		expSent  bool
		expPrice string
	}{
		{
			name:     "finished sale",
			event:    finished(),
			expSent:  true,
			expPrice: "1 ETH",
		},
		{
			name: "unknown token shown raw",
			event: func() *order.Event {
				e := finished()
				e.Currency = "0x07fe9ffd85b54a3a18467d3b5e91a55ecc52a268"
				e.Price = "1000000"
				return e
			}(),
			expSent:  true,
			expPrice: "1000000 (0x07fe9ffd85b54a3a18467d3b5e91a55ecc52a268)",
		},
		{
			name:  "other events ignored",
			event: &order.Event{Type: order.EventOrderBidCreated},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			sender := &fakeSender{}
			n := NewDiscord(DiscordCfg{ChannelId: "sales", AssetUrl: "https://market.example/asset/%s/%s"}, sender, tokens)
			req.NoError(n.Notify(ctx.Background(), tt.event))
			if !tt.expSent {
				req.Empty(sender.embeds)
				return
			}
			req.Len(sender.embeds, 1)
			embed := sender.embeds[0]
			req.Equal("sales", sender.channel)
			req.Equal("Item sold!", embed.Title)
			req.Equal("https://market.example/asset/0xdcf0de6b17785a143d006e1515a6afd123cde8ba/7", embed.Description)
			req.Equal(tt.expPrice, embed.Fields[2].Value)
		})
	}
}
