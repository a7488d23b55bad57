package order

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrderCreatedCarriesEveryField(t *testing.T) {
	tests := []struct {
		name  string
		order *Order
		exp   map[string]interface{}
	}{
		{
			name:  "sell",
			order: &Order{Id: 1, OrderType: OrderTypeSell, Price: big.NewInt(1500)},
			exp: map[string]interface{}{
				"price": "1500", "reservePrice": "0",
				"duration": float64(0), "extensionDuration": float64(0), "minBidIncrement": float64(0),
			},
		},
		{
			name: "auction",
			order: &Order{
				Id: 2, OrderType: OrderTypeAuction, ReservePrice: big.NewInt(700),
				Duration: time.Hour, ExtensionDuration: DefaultExtensionDuration, MinBidIncrement: DefaultMinBidIncrement,
			},
			exp: map[string]interface{}{
				"price": "0", "reservePrice": "700",
				"duration":          float64(time.Hour),
				"extensionDuration": float64(DefaultExtensionDuration),
				"minBidIncrement":   float64(DefaultMinBidIncrement),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			raw, err := json.Marshal(NewOrderCreated(tt.order))
			req.NoError(err)
			got := map[string]interface{}{}
			req.NoError(json.Unmarshal(raw, &got))
			for k, v := range tt.exp {
				req.Contains(got, k)
				req.Equal(v, got[k], k)
			}
		})
	}
}
