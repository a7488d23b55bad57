package repository

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/database/mongoclient"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/market"
	"github.com/x-xyz/gomarket/service/query"
)

type settingsSuite struct {
	suite.Suite
	newRepo func() market.SettingsRepo
}

func TestMemorySettingsSuite(t *testing.T) {
	suite.Run(t, &settingsSuite{newRepo: NewMemorySettingsRepo})
}

// set MONGO_TEST_URI to run the same cases against a live mongo
func TestMongoSettingsSuite(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	client := mongoclient.MustConnectMongoClient(mongoclient.Config{Uri: uri, AuthDBName: "admin", DBName: "gomarket_test"})
	q := query.New(client)
	suite.Run(t, &settingsSuite{newRepo: func() market.SettingsRepo {
		require.NoError(t, client.Database("gomarket_test").Collection(string(domain.TableMarketSettings)).Drop(ctx.Background()))
		return NewSettingsRepo(q)
	}})
}

func (s *settingsSuite) TestGetSave() {
	c := ctx.Background()
	r := s.newRepo()

	_, err := r.Get(c)
	s.ErrorIs(err, domain.ErrNotFound)

	in := &market.Settings{
		Owner:         "0xce4468e7ce84aceb74363f4ea64e5a038176f369",
		Treasury:      "0xdf8650b0ca1260f7a2f4fdff9082aede554f65ad",
		WrappedNative: "0xb4fbf271143f4fbf7b91a5ded31805e42b2208d6",
		FeeBps:        250,
		UpdatedAt:     time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	s.NoError(r.Save(c, in))
	in.FeeBps = 1

	out, err := r.Get(c)
	s.NoError(err)
	s.Equal(uint16(250), out.FeeBps)
	s.Equal(in.Treasury, out.Treasury)
	s.True(in.UpdatedAt.Equal(out.UpdatedAt))

	out.FeeBps = 300
	s.NoError(r.Save(c, out))
	out, err = r.Get(c)
	s.NoError(err)
	s.Equal(uint16(300), out.FeeBps)
}
