package query

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/database/mongoclient"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/base/metrics"
	"github.com/x-xyz/gomarket/domain"
)

const (
	queryMaxTime  = 20 * time.Second
	slowThreshold = 500 * time.Millisecond
	maxInflightTx = 10
)

var (
	timeNow = time.Now
	met     = metrics.New("query")
)

type impl struct {
	client *mongoclient.Client
	tokens chan struct{}
}

// New bounds the number of concurrent transactions to maxInflightTx
func New(client *mongoclient.Client) Mongo {
	return &impl{
		client: client,
		tokens: make(chan struct{}, maxInflightTx),
	}
}

func (im *impl) coll(table domain.Table) *mongo.Collection {
	return im.client.Database(im.client.DbName).Collection(string(table))
}

// track scopes context to one call, the returned func records timing and slow calls
func (im *impl) track(context ctx.Ctx, table domain.Table, action string, query interface{}) (ctx.Ctx, func()) {
	start := timeNow()
	ender := met.BumpTime("time", "func", action, "table", string(table))
	context = ctx.WithValues(context, map[string]interface{}{
		"table":  table,
		"action": action,
		"query":  query,
	})

	return context, func() {
		ender.End()
		if elapsed := time.Since(start); elapsed >= slowThreshold {
			met.BumpSum("slowlog", 1, "table", string(table), "action", action)
			context.WithField("durationMs", elapsed.Milliseconds()).Warn("mongo slowlog")
		}
	}
}

func (im *impl) logerr(context ctx.Ctx, msg string, err error) {
	if _, ok := err.(topology.ConnectionError); ok {
		met.BumpSum("conn.err", 1)
	}
	context.WithFields(log.Fields{"err": err}).Error(msg)
}

func (im *impl) Insert(context ctx.Ctx, table domain.Table, docs ...interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	context, done := im.track(context, table, "insert", len(docs))
	defer done()

	var err error
	if len(docs) == 1 {
		_, err = im.coll(table).InsertOne(context, docs[0])
	} else {
		_, err = im.coll(table).InsertMany(context, docs, options.InsertMany().SetOrdered(true))
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	} else if err != nil {
		im.logerr(context, "Insert failed", err)
		return err
	}
	return nil
}

func (im *impl) FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error {
	context, done := im.track(context, table, "findone", query)
	defer done()

	res := im.coll(table).FindOne(context, query, options.FindOne().SetMaxTime(queryMaxTime))
	if err := res.Decode(result); err == mongo.ErrNoDocuments {
		return ErrNotFound
	} else if err != nil {
		im.logerr(context, "FindOne failed", err)
		return err
	}
	return nil
}

func (im *impl) Count(context ctx.Ctx, table domain.Table, selector interface{}) (int, error) {
	context, done := im.track(context, table, "count", selector)
	defer done()

	count, err := im.coll(table).CountDocuments(context, selector, options.Count().SetMaxTime(queryMaxTime))
	if err != nil {
		im.logerr(context, "CountDocuments failed", err)
		return 0, err
	}
	return int(count), nil
}

func (im *impl) Upsert(context ctx.Ctx, table domain.Table, selector, update interface{}) error {
	context, done := im.track(context, table, "upsert", selector)
	defer done()

	_, err := im.coll(table).ReplaceOne(context, selector, update, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	} else if err != nil {
		im.logerr(context, "ReplaceOne failed", err)
		return err
	}
	return nil
}

func (im *impl) Remove(context ctx.Ctx, table domain.Table, selector interface{}) error {
	context, done := im.track(context, table, "remove", selector)
	defer done()

	if _, err := im.coll(table).DeleteOne(context, selector); err != nil {
		im.logerr(context, "DeleteOne failed", err)
		return err
	}
	return nil
}

func sortOption(sortStrings ...string) bson.D {
	res := bson.D{}
	for _, sort := range sortStrings {
		switch {
		case sort == "":
		case sort[0] == '-':
			res = append(res, bson.E{Key: sort[1:], Value: -1})
		default:
			res = append(res, bson.E{Key: sort, Value: 1})
		}
	}
	return res
}

func (im *impl) Search(context ctx.Ctx, table domain.Table, offset, limit int, sortFields []string, query, results interface{}) error {
	context, done := im.track(context, table, "search", query)
	defer done()

	findOpts := options.Find().SetMaxTime(queryMaxTime).SetSkip(int64(offset))
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	if sortOpt := sortOption(sortFields...); len(sortOpt) > 0 {
		findOpts.SetSort(sortOpt)
	}
	cursor, err := im.coll(table).Find(context, query, findOpts)
	if err != nil {
		im.logerr(context, "Find failed", err)
		return err
	}
	defer cursor.Close(context)

	if err := cursor.All(context, results); err != nil {
		im.logerr(context, "cursor.All failed", err)
		return err
	}
	return nil
}

func (im *impl) Increment(context ctx.Ctx, table domain.Table, selector, result interface{}, field string, inc interface{}) error {
	context, done := im.track(context, table, "increment", selector)
	defer done()

	updater := bson.M{"$inc": bson.M{field: inc}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true)
	if err := im.coll(table).FindOneAndUpdate(context, selector, updater, opts).Decode(result); err != nil {
		im.logerr(context, "FindOneAndUpdate failed", err)
		return err
	}
	return nil
}

func (im *impl) EnsureIndexes(context ctx.Ctx, table domain.Table, indexes ...Index) error {
	if len(indexes) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		models = append(models, mongo.IndexModel{
			Keys:    sortOption(idx.Keys...),
			Options: options.Index().SetUnique(idx.Unique),
		})
	}
	if _, err := im.coll(table).Indexes().CreateMany(context, models); err != nil {
		im.logerr(ctx.WithValue(context, "table", table), "Indexes.CreateMany failed", err)
		return err
	}
	return nil
}

func (im *impl) RunWithTransaction(context ctx.Ctx, run func(ctx.Ctx) error) error {
	select {
	case <-context.Done():
		return context.Err()
	case im.tokens <- struct{}{}:
	}
	defer func() { <-im.tokens }()

	session, err := im.client.StartSession()
	if err != nil {
		im.logerr(context, "StartSession failed", err)
		return err
	}
	defer session.EndSession(context)

	_, err = session.WithTransaction(context, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, run(ctx.Ctx{
			Context: sessCtx,
			Logger:  context.Logger,
		})
	})
	return err
}
