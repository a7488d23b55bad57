package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gomarket/base/ethereum"
	"github.com/x-xyz/gomarket/base/validator"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/keys"
	"github.com/x-xyz/gomarket/middleware"
	"github.com/x-xyz/gomarket/service/cache"
	"github.com/x-xyz/gomarket/service/cache/provider/primitive"
	authMiddleware "github.com/x-xyz/gomarket/stores/auth/delivery/http/middleware"
	"github.com/x-xyz/gomarket/stores/auth/usecase"
)

const template = "Sign in to gomarket, nonce: %s"

type response struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status"`
}

type authHandlerSuite struct {
	suite.Suite
	e *echo.Echo
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(authHandlerSuite))
}

func (s *authHandlerSuite) SetupTest() {
	auth := usecase.New(&usecase.AuthUseCaseCfg{
		JwtSecret:          "jwt-secret",
		SigningMsgTemplate: template,
		Nonces: cache.New(cache.ServiceConfig{
			Ttl:   time.Minute,
			Pfx:   keys.PfxNonce,
			Cache: primitive.NewPrimitive("nonce", 1),
		}),
	})

	s.e = echo.New()
	s.e.Validator = validator.NewCustomValidator(validator.New())
	s.e.Use(middleware.InitMiddleware().AddContext())
	New(s.e, auth, template)

	s.e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, string(c.Get("address").(domain.Address)))
	}, authMiddleware.New(auth).Auth())
}

func (s *authHandlerSuite) do(method, target, body, token string) (int, *response) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	res := &response{}
	if err := json.Unmarshal(rec.Body.Bytes(), res); err != nil {
		res.Data = rec.Body.Bytes()
	}
	return rec.Code, res
}

func (s *authHandlerSuite) TestSignIn() {
	key, address, err := ethereum.GenerateKey()
	s.Require().NoError(err)

	code, res := s.do(http.MethodGet, "/auth/nonce/"+address.Hex(), "", "")
	s.Require().Equal(http.StatusOK, code)
	nonce := ""
	s.Require().NoError(json.Unmarshal(res.Data, &nonce))

	sig, err := ethereum.SignMsg(key, []byte(fmt.Sprintf(template, nonce)))
	s.Require().NoError(err)
	body := fmt.Sprintf(`{"address":%q,"signature":%q}`, address.Hex(), sig)

	code, res = s.do(http.MethodPost, "/auth/sign", body, "")
	s.Require().Equal(http.StatusCreated, code, string(res.Data))
	tkn := tokenView{}
	s.Require().NoError(json.Unmarshal(res.Data, &tkn))
	s.Equal(domain.Address(strings.ToLower(address.Hex())), tkn.Address)

	code, res = s.do(http.MethodGet, "/me", "", tkn.Token)
	s.Equal(http.StatusOK, code)
	s.Equal(strings.ToLower(address.Hex()), string(res.Data))

	// the nonce was spent by the first sign in
	code, _ = s.do(http.MethodPost, "/auth/sign", body, "")
	s.Equal(http.StatusUnauthorized, code)
}

func (s *authHandlerSuite) TestRejections() {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		token  string
		exp    int
	}{
		{name: "nonce for bad address", method: http.MethodGet, target: "/auth/nonce/0x12", exp: http.StatusBadRequest},
		{name: "sign without signature", method: http.MethodPost, target: "/auth/sign",
			body: `{"address":"0xdf8650b0ca1260f7a2f4fdff9082aede554f65ad"}`, exp: http.StatusBadRequest},
		{name: "sign without nonce", method: http.MethodPost, target: "/auth/sign",
			body: `{"address":"0xdf8650b0ca1260f7a2f4fdff9082aede554f65ad","signature":"0x1234"}`, exp: http.StatusUnauthorized},
		{name: "missing token", method: http.MethodGet, target: "/me", exp: http.StatusUnauthorized},
		{name: "forged token", method: http.MethodGet, target: "/me", token: "e30.e30.e30", exp: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			code, res := s.do(tt.method, tt.target, tt.body, tt.token)
			s.Equal(tt.exp, code, string(res.Data))
		})
	}
}

func (s *authHandlerSuite) TestSigningMsgTemplate() {
	code, res := s.do(http.MethodGet, "/auth/signingMsgTemplate", "", "")
	s.Require().Equal(http.StatusOK, code)
	s.JSONEq(`{"template":"Sign in to gomarket, nonce: %s"}`, string(res.Data))
}
