package finalizer

import (
	"math/big"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	bCtx "github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/order"
	"github.com/x-xyz/gomarket/service/currency"
	royaltysvc "github.com/x-xyz/gomarket/service/royalty"
	ledgerrepo "github.com/x-xyz/gomarket/stores/ledger/repository"
	marketrepo "github.com/x-xyz/gomarket/stores/market/repository"
	marketuc "github.com/x-xyz/gomarket/stores/market/usecase"
	orderrepo "github.com/x-xyz/gomarket/stores/order/repository"
	"github.com/x-xyz/gomarket/stores/order/usecase"
)

const (
	engine = domain.Address("0x1a01ecd2263a9d5b5967667e508ea22db478bc4b")
	weth   = domain.Address("0xb4fbf271143f4fbf7b91a5ded31805e42b2208d6")
	nft    = domain.Address("0xdcf0de6b17785a143d006e1515a6afd123cde8ba")
	admin  = domain.Address("0x9e2bb1b2ed22e4a2b0e6a5e8f5a1ba07e3d1ad4e")
	seller = domain.Address("0xce4468e7ce84aceb74363f4ea64e5a038176f369")
	bob    = domain.Address("0xdf8650b0ca1260f7a2f4fdff9082aede554f65ad")
)

type finalizerSuite struct {
	suite.Suite
	ctx    bCtx.Ctx
	clock  *clock.Mock
	ledger *ledgerrepo.MemoryLedger
	engine order.UseCase
	f      *Finalizer
}

func TestFinalizerSuite(t *testing.T) {
	suite.Run(t, new(finalizerSuite))
}

func (s *finalizerSuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.clock = clock.NewMock()
	s.clock.Set(time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC))

	l := ledgerrepo.NewMemoryLedger(weth)
	l.DeployCollection(nft, ledger.InterfaceIdERC721)
	for _, id := range []domain.TokenId{"1", "2", "3"} {
		s.Require().NoError(l.Mint(nft, id, seller))
	}
	s.Require().NoError(l.SetApprovalForAll(nft, seller, engine, true))
	l.Deal(domain.NativeCurrency, bob, big.NewInt(1000))
	s.ledger = l

	s.engine = usecase.New(&usecase.OrderUseCaseCfg{
		Address:   engine,
		OrderRepo: orderrepo.NewMemoryOrderRepo(),
		EventRepo: orderrepo.NewMemoryEventRepo(),
		Ledger:    l,
		Currency:  currency.NewService(&currency.ServiceCfg{Ledger: l, Escrow: engine}),
		Royalty:   royaltysvc.New(l.Royalty()),
		Market: marketuc.New(&marketuc.MarketUseCaseCfg{
			Repo:          marketrepo.NewMemorySettingsRepo(),
			Owner:         admin,
			WrappedNative: weth,
		}),
		Clock: s.clock,
	})
	s.f = New(&FinalizerCfg{
		Engine:       s.engine,
		Caller:       engine,
		Clock:        s.clock,
		Workers:      2,
		BackoffStart: time.Millisecond,
	})
}

func (s *finalizerSuite) auction(tokenId domain.TokenId, duration time.Duration) *order.Order {
	o, err := s.engine.CreateAuctionOrder(s.ctx, seller, order.CreateAuctionOrderParams{
		TokenContract: nft,
		TokenId:       tokenId,
		Currency:      domain.NativeCurrency,
		ReservePrice:  big.NewInt(100),
		Duration:      duration,
	})
	s.Require().NoError(err)
	return o
}

func (s *finalizerSuite) bid(id uint64, amount int64) {
	_, err := s.engine.CreateBidOrder(s.ctx, bob, id, big.NewInt(amount), big.NewInt(amount))
	s.Require().NoError(err)
}

func (s *finalizerSuite) TestFinalizeDue() {
	short := s.auction("1", time.Hour)
	long := s.auction("2", 3*time.Hour)
	idle := s.auction("3", time.Hour)
	s.bid(short.Id, 100)
	s.bid(long.Id, 200)

	n, err := s.f.FinalizeDue(s.ctx)
	s.NoError(err)
	s.Equal(0, n)

	s.clock.Add(2 * time.Hour)
	n, err = s.f.FinalizeDue(s.ctx)
	s.NoError(err)
	s.Equal(1, n)

	o, err := s.engine.GetOrder(s.ctx, short.Id)
	s.NoError(err)
	s.Equal(order.StatusSettled, o.Status)
	owner, err := s.ledger.Registry().OwnerOf(s.ctx, nft, "1")
	s.NoError(err)
	s.Equal(bob, owner)

	for _, id := range []uint64{long.Id, idle.Id} {
		o, err := s.engine.GetOrder(s.ctx, id)
		s.NoError(err)
		s.Equal(order.StatusActive, o.Status)
	}

	n, err = s.f.FinalizeDue(s.ctx)
	s.NoError(err)
	s.Equal(0, n)

	s.clock.Add(2 * time.Hour)
	n, err = s.f.FinalizeDue(s.ctx)
	s.NoError(err)
	s.Equal(1, n)
	s.Equal(2, s.f.Settled())
}

func (s *finalizerSuite) TestStartStopsWithCtx() {
	short := s.auction("1", time.Hour)
	s.bid(short.Id, 100)
	s.clock.Add(2 * time.Hour)

	c, cancel := bCtx.WithCancel(s.ctx)
	s.f.interval = time.Millisecond
	s.f.Start(c)
	s.Eventually(func() bool {
		o, err := s.engine.GetOrder(s.ctx, short.Id)
		return err == nil && o.Status == order.StatusSettled
	}, time.Second, 5*time.Millisecond)
	cancel()
	s.f.Wait()
}
