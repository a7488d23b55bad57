package domain

import (
	"github.com/golang-jwt/jwt"

	"github.com/x-xyz/gomarket/base/ctx"
)

type JwtCustomClaims struct {
	Address string `json:"data"` // name data for backward compatibility
	jwt.StandardClaims
}

type AuthUsecase interface {
	// GetNonce issues a single use nonce for the signing message of address
	GetNonce(ctx ctx.Ctx, address Address) (string, error)
	// SignToken checks signature is address signing the message built from its nonce, then issues a token
	SignToken(ctx ctx.Ctx, address Address, signature string) (string, error)
	ParseToken(ctx ctx.Ctx, token string) (address string, err error)
}
