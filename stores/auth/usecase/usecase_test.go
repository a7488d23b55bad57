package usecase_test

import (
	"crypto/ecdsa"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/ethereum"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/keys"
	"github.com/x-xyz/gomarket/service/cache"
	"github.com/x-xyz/gomarket/service/cache/provider/primitive"
	"github.com/x-xyz/gomarket/stores/auth/usecase"
)

const template = "Sign in to gomarket, nonce: %s"

type authSuite struct {
	suite.Suite
	ctx     ctx.Ctx
	key     *ecdsa.PrivateKey
	address domain.Address
	uc      domain.AuthUsecase
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(authSuite))
}

func (s *authSuite) SetupTest() {
	s.ctx = ctx.Background()
	key, address, err := ethereum.GenerateKey()
	s.Require().NoError(err)
	s.key = key
	s.address = domain.Address(address.Hex())
	s.uc = s.newUseCase(nil)
}

func (s *authSuite) newUseCase(c clock.Clock) domain.AuthUsecase {
	return usecase.New(&usecase.AuthUseCaseCfg{
		JwtSecret:          "jwt-secret",
		SigningMsgTemplate: template,
		Nonces: cache.New(cache.ServiceConfig{
			Ttl:   time.Minute,
			Pfx:   keys.PfxNonce,
			Cache: primitive.NewPrimitive("nonce", 1),
		}),
		Clock: c,
	})
}

func (s *authSuite) sign(nonce string) string {
	sig, err := ethereum.SignMsg(s.key, []byte(fmt.Sprintf(template, nonce)))
	s.Require().NoError(err)
	return sig
}

func (s *authSuite) TestSignAndParseToken() {
	nonce, err := s.uc.GetNonce(s.ctx, s.address)
	s.Require().NoError(err)
	s.NotEmpty(nonce)

	tkn, err := s.uc.SignToken(s.ctx, s.address, s.sign(nonce))
	s.NoError(err)
	s.NotEmpty(tkn)

	ads, err := s.uc.ParseToken(s.ctx, tkn)
	s.NoError(err)
	s.Equal(s.address.ToLowerStr(), ads)

	// the nonce is spent
	_, err = s.uc.SignToken(s.ctx, s.address, s.sign(nonce))
	s.ErrorIs(err, domain.ErrUnauthorized)
}

func (s *authSuite) TestSignTokenRejects() {
	_, err := s.uc.SignToken(s.ctx, s.address, s.sign("never issued"))
	s.ErrorIs(err, domain.ErrUnauthorized)

	_, err = s.uc.GetNonce(s.ctx, "not-an-address")
	s.ErrorIs(err, domain.ErrInvalidAddress)

	nonce, err := s.uc.GetNonce(s.ctx, s.address)
	s.Require().NoError(err)

	_, err = s.uc.SignToken(s.ctx, s.address, s.sign("other nonce"))
	s.ErrorIs(err, domain.ErrInvalidSignature)
	_, err = s.uc.SignToken(s.ctx, s.address, "0x1234")
	s.ErrorIs(err, domain.ErrInvalidSignature)

	// a failed attempt keeps the nonce usable
	_, err = s.uc.SignToken(s.ctx, s.address, s.sign(nonce))
	s.NoError(err)
}

func (s *authSuite) TestParseTokenRejects() {
	_, err := s.uc.ParseToken(s.ctx, "garbage")
	s.Error(err)

	past := clock.NewMock()
	past.Set(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	old := s.newUseCase(past)
	nonce, err := old.GetNonce(s.ctx, s.address)
	s.Require().NoError(err)
	tkn, err := old.SignToken(s.ctx, s.address, s.sign(nonce))
	s.Require().NoError(err)

	_, err = s.uc.ParseToken(s.ctx, tkn)
	s.Error(err)

	other := usecase.New(&usecase.AuthUseCaseCfg{JwtSecret: "other", SigningMsgTemplate: template})
	nonce, err = s.uc.GetNonce(s.ctx, s.address)
	s.Require().NoError(err)
	tkn, err = s.uc.SignToken(s.ctx, s.address, s.sign(nonce))
	s.Require().NoError(err)
	_, err = other.ParseToken(s.ctx, tkn)
	s.Error(err)
}
