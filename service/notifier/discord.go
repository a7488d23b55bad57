package notifier

import (
	"fmt"
	"math/big"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/order"
)

// EmbedSender is the part of *discordgo.Session the bot uses
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
}

type DiscordCfg struct {
	BotKey    string `mapstructure:"botkey"`
	ChannelId string `mapstructure:"channelid"`
	// AssetUrl is formatted with contract and token id
	AssetUrl string `mapstructure:"asseturl"`
}

type discord struct {
	cfg      DiscordCfg
	sender   EmbedSender
	payToken domain.PayTokenRepo
}

// NewDiscordSession opens a bot session with cfg.BotKey
func NewDiscordSession(cfg DiscordCfg) (*discordgo.Session, error) {
	return discordgo.New(fmt.Sprintf("Bot %s", cfg.BotKey))
}

// NewDiscord posts an "Item sold!" embed for every finished order
func NewDiscord(cfg DiscordCfg, sender EmbedSender, payToken domain.PayTokenRepo) order.Notifier {
	return &discord{cfg: cfg, sender: sender, payToken: payToken}
}

func (d *discord) Notify(c ctx.Ctx, e *order.Event) error {
	if e.Type != order.EventOrderFinished {
		return nil
	}

	price, err := d.formatPrice(c, e.Currency, e.Price)
	if err != nil {
		return err
	}

	msg := &discordgo.MessageEmbed{
		Title: "Item sold!",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Seller", Value: string(e.TokenOwner)},
			{Name: "Buyer", Value: string(e.Bidder)},
			{Name: "Price", Value: price},
			{Name: "Sale", Value: string(e.OrderType)},
		},
	}
	if len(d.cfg.AssetUrl) > 0 {
		msg.Description = fmt.Sprintf(d.cfg.AssetUrl, e.TokenContract, e.TokenId)
	}

	if _, err := d.sender.ChannelMessageSendEmbed(d.cfg.ChannelId, msg); err != nil {
		c.WithFields(log.Fields{"err": err, "orderId": e.OrderId}).Error("discord.ChannelMessageSendEmbed failed")
		return err
	}
	return nil
}

// formatPrice renders a raw amount with the pay token symbol, unknown tokens are shown raw
func (d *discord) formatPrice(c ctx.Ctx, currency domain.Address, raw string) (string, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return "", domain.ErrInvalidNumberFormat
	}
	token, err := d.payToken.FindOne(c, currency)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "currency": currency}).Warn("payToken.FindOne failed")
		return fmt.Sprintf("%s (%s)", decimal.NewFromBigInt(amount, 0).String(), currency), nil
	}
	return fmt.Sprintf("%s %s", token.Format(amount), token.Symbol), nil
}
