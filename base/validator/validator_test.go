package validator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValidatorTestSuite struct {
	suite.Suite
}

func (s *ValidatorTestSuite) SetupTest() {
}

func (s *ValidatorTestSuite) TearDownTest() {
}

func (s *ValidatorTestSuite) SetupSuite() {
}

func (s *ValidatorTestSuite) TearDownSuite() {
}

func (s *ValidatorTestSuite) TestIsValidAddress() {
	tests := []struct {
		desc       string
		address    string
		expIsValid bool
	}{
		{
			desc:       "invalid address",
			address:    "0x000",
			expIsValid: false,
		},
		{
			desc:       "valid address - real address",
			address:    "0x939ae6A4C8dfDBB1f7085189574F0A938013952A",
			expIsValid: true,
		},
		{
			desc:       "valid address - lower case",
			address:    "0x939ae6a4c8dfdbb1f7085189574f0a938013952b",
			expIsValid: true,
		},
	}
	for _, t := range tests {
		s.Equal(t.expIsValid, IsValidAddress(t.address), t.desc)
	}
}

func (s *ValidatorTestSuite) TestIsAmount() {
	tests := []struct {
		desc  string
		input string
		exp   bool
	}{
		{desc: "zero", input: "0", exp: true},
		{desc: "above uint64", input: "100000000000000000000000", exp: true},
		{desc: "negative", input: "-1", exp: false},
		{desc: "decimal", input: "1.5", exp: false},
		{desc: "empty", input: "", exp: false},
	}
	for _, t := range tests {
		s.Equal(t.exp, IsAmount(t.input), t.desc)
	}
}

func (s *ValidatorTestSuite) TestStructTags() {
	type body struct {
		Currency string `validate:"eth_addr"`
		Price    string `validate:"required,amount"`
	}
	v := NewCustomValidator(New())

	s.NoError(v.Validate(&body{Currency: "0x0000000000000000000000000000000000000000", Price: "10"}))
	s.Error(v.Validate(&body{Currency: "0x123", Price: "10"}))
	s.Error(v.Validate(&body{Currency: "0x0000000000000000000000000000000000000000", Price: "ten"}))
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}
