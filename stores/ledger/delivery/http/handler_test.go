package http

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/middleware"
	ledgerrepo "github.com/x-xyz/gomarket/stores/ledger/repository"
)

const (
	weth   = domain.Address("0xb4fbf271143f4fbf7b91a5ded31805e42b2208d6")
	erc20  = domain.Address("0x07fe9ffd85b54a3a18467d3b5e91a55ecc52a268")
	nft    = domain.Address("0xdcf0de6b17785a143d006e1515a6afd123cde8ba")
	engine = domain.Address("0x1a01ecd2263a9d5b5967667e508ea22db478bc4b")
	bob    = domain.Address("0xdf8650b0ca1260f7a2f4fdff9082aede554f65ad")
)

func TestLedgerHandler(t *testing.T) {
	req := require.New(t)
	l := ledgerrepo.NewMemoryLedger(weth)
	l.DeployCollection(nft, ledger.InterfaceIdERC721)
	req.NoError(l.Mint(nft, "7", bob))
	l.Deal(domain.NativeCurrency, bob, big.NewInt(42))
	l.Deal(erc20, bob, big.NewInt(1000))
	req.NoError(l.Tokens().Approve(ctx.Background(), erc20, bob, engine, big.NewInt(300)))

	e := echo.New()
	e.Use(middleware.InitMiddleware().AddContext())
	New(e, l)

	tests := []struct {
		name   string
		target string
		code   int
		exp    map[string]interface{}
	}{
		{name: "native", target: "/ledger/native/" + string(bob), code: http.StatusOK,
			exp: map[string]interface{}{"account": string(bob), "token": string(domain.NativeCurrency), "balance": "42"}},
		{name: "token", target: "/ledger/token/" + string(erc20) + "/" + string(bob), code: http.StatusOK,
			exp: map[string]interface{}{"account": string(bob), "token": string(erc20), "balance": "1000"}},
		{name: "allowance", target: "/ledger/token/" + string(erc20) + "/" + string(bob) + "/allowance/" + string(engine), code: http.StatusOK,
			exp: map[string]interface{}{"allowance": "300"}},
		{name: "nft", target: "/ledger/nft/" + string(nft) + "/7", code: http.StatusOK,
			exp: map[string]interface{}{"contract": string(nft), "tokenId": "7", "owner": string(bob), "approved": string(domain.EmptyAddress)}},
		{name: "missing nft", target: "/ledger/nft/" + string(nft) + "/8", code: http.StatusBadRequest},
		{name: "invalid address", target: "/ledger/native/0xabc", code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			req.Equal(tt.code, rec.Code, rec.Body.String())
			if tt.exp == nil {
				return
			}
			res := struct {
				Data map[string]interface{} `json:"data"`
			}{}
			req.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
			req.Equal(tt.exp, res.Data)
		})
	}
}
