package usecase

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/ethereum"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/service/cache"
)

const defaultTokenTtl = 24 * time.Hour

type AuthUseCaseCfg struct {
	JwtSecret string
	// SigningMsgTemplate gets the nonce through %s
	SigningMsgTemplate string
	// Nonces keeps issued nonces until they are used or expire
	Nonces   cache.Service
	TokenTtl time.Duration
	Clock    clock.Clock
}

type impl struct {
	jwtSecret []byte
	template  string
	nonces    cache.Service
	tokenTtl  time.Duration
	clock     clock.Clock
}

func New(cfg *AuthUseCaseCfg) domain.AuthUsecase {
	im := &impl{
		jwtSecret: []byte(cfg.JwtSecret),
		template:  cfg.SigningMsgTemplate,
		nonces:    cfg.Nonces,
		tokenTtl:  cfg.TokenTtl,
		clock:     cfg.Clock,
	}
	if im.tokenTtl <= 0 {
		im.tokenTtl = defaultTokenTtl
	}
	if im.clock == nil {
		im.clock = clock.New()
	}
	return im
}

func (im *impl) GetNonce(ctx ctx.Ctx, address domain.Address) (string, error) {
	if !address.IsValid() {
		return "", domain.ErrInvalidAddress
	}
	nonce := uuid.NewString()
	if err := im.nonces.Set(ctx, address.ToLowerStr(), nonce); err != nil {
		ctx.WithFields(log.Fields{"err": err, "address": address}).Error("nonces.Set failed")
		return "", err
	}
	return nonce, nil
}

func (im *impl) SignToken(ctx ctx.Ctx, address domain.Address, signature string) (string, error) {
	if !address.IsValid() {
		return "", domain.ErrInvalidAddress
	}
	address = address.ToLower()

	nonce := ""
	if err := im.nonces.Get(ctx, address.ToLowerStr(), &nonce); err == cache.ErrNotFound {
		return "", domain.ErrUnauthorized
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "address": address}).Error("nonces.Get failed")
		return "", err
	}

	msg := fmt.Sprintf(im.template, nonce)
	if ok, err := ethereum.ValidateMsgSignature([]byte(msg), signature, address.ToLowerStr()); err != nil || !ok {
		ctx.WithFields(log.Fields{"err": err, "address": address}).Warn("invalid signature")
		return "", domain.ErrInvalidSignature
	}

	// a nonce signs in once
	if err := im.nonces.Del(ctx, address.ToLowerStr()); err != nil {
		ctx.WithFields(log.Fields{"err": err, "address": address}).Error("nonces.Del failed")
		return "", err
	}

	claims := domain.JwtCustomClaims{
		Address: string(address),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: im.clock.Now().Add(im.tokenTtl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	if ss, err := token.SignedString(im.jwtSecret); err != nil {
		ctx.WithField("err", err).Error("token.SignedString failed")
		return "", err
	} else {
		return ss, nil
	}
}

func (im *impl) ParseToken(ctx ctx.Ctx, str string) (string, error) {
	token, err := jwt.ParseWithClaims(str, &domain.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return im.jwtSecret, nil
	})

	if token != nil {
		if claims, ok := token.Claims.(*domain.JwtCustomClaims); ok && token.Valid {
			return claims.Address, nil
		}
	}
	if err == nil {
		err = domain.ErrUnauthorized
	}
	return "", err
}
