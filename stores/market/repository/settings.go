package repository

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/market"
	"github.com/x-xyz/gomarket/service/query"
)

// the market keeps a single settings document
const settingsId = "market"

type settingsDoc struct {
	Id              string `bson:"_id"`
	market.Settings `bson:",inline"`
}

type settingsRepoImpl struct {
	q query.Mongo
}

func NewSettingsRepo(q query.Mongo) market.SettingsRepo {
	return &settingsRepoImpl{q}
}

func (im *settingsRepoImpl) Get(c ctx.Ctx) (*market.Settings, error) {
	doc := &settingsDoc{}
	if err := im.q.FindOne(c, domain.TableMarketSettings, bson.M{"_id": settingsId}, doc); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return &doc.Settings, nil
}

func (im *settingsRepoImpl) Save(c ctx.Ctx, s *market.Settings) error {
	doc := &settingsDoc{Id: settingsId, Settings: *s}
	if err := im.q.Upsert(c, domain.TableMarketSettings, bson.M{"_id": settingsId}, doc); err != nil {
		c.WithFields(log.Fields{"err": err, "settings": s}).Error("q.Upsert failed")
		return err
	}
	return nil
}

type memorySettingsRepo struct {
	mu sync.RWMutex
	s  *market.Settings
}

func NewMemorySettingsRepo() market.SettingsRepo {
	return &memorySettingsRepo{}
}

func (r *memorySettingsRepo) Get(c ctx.Ctx) (*market.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.s == nil {
		return nil, domain.ErrNotFound
	}
	s := *r.s
	return &s, nil
}

func (r *memorySettingsRepo) Save(c ctx.Ctx, s *market.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.s = &cp
	return nil
}
