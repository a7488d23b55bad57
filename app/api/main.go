package main

import (
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/x-xyz/gomarket/base/ctx"
	"github.com/x-xyz/gomarket/base/database/mongoclient"
	"github.com/x-xyz/gomarket/base/database/redisclient"
	"github.com/x-xyz/gomarket/base/finalizer"
	"github.com/x-xyz/gomarket/base/log"
	"github.com/x-xyz/gomarket/base/metrics"
	"github.com/x-xyz/gomarket/base/ptr"
	bValidator "github.com/x-xyz/gomarket/base/validator"
	"github.com/x-xyz/gomarket/domain"
	"github.com/x-xyz/gomarket/domain/keys"
	"github.com/x-xyz/gomarket/domain/ledger"
	"github.com/x-xyz/gomarket/domain/market"
	"github.com/x-xyz/gomarket/domain/order"
	"github.com/x-xyz/gomarket/domain/royalty"
	mmiddleware "github.com/x-xyz/gomarket/middleware"
	"github.com/x-xyz/gomarket/service/cache"
	"github.com/x-xyz/gomarket/service/cache/provider"
	"github.com/x-xyz/gomarket/service/cache/provider/compound"
	"github.com/x-xyz/gomarket/service/cache/provider/primitive"
	redisprovider "github.com/x-xyz/gomarket/service/cache/provider/redis"
	"github.com/x-xyz/gomarket/service/chain"
	"github.com/x-xyz/gomarket/service/chain/contract"
	"github.com/x-xyz/gomarket/service/currency"
	"github.com/x-xyz/gomarket/service/notifier"
	"github.com/x-xyz/gomarket/service/query"
	"github.com/x-xyz/gomarket/service/redis"
	royaltysvc "github.com/x-xyz/gomarket/service/royalty"
	auth_delivery "github.com/x-xyz/gomarket/stores/auth/delivery/http"
	auth_middleware "github.com/x-xyz/gomarket/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/x-xyz/gomarket/stores/auth/usecase"
	hc_delivery "github.com/x-xyz/gomarket/stores/healthcheck/delivery/http"
	hc_repo "github.com/x-xyz/gomarket/stores/healthcheck/repository"
	hc_usecase "github.com/x-xyz/gomarket/stores/healthcheck/usecase"
	ledger_delivery "github.com/x-xyz/gomarket/stores/ledger/delivery/http"
	ledger_repository "github.com/x-xyz/gomarket/stores/ledger/repository"
	market_delivery "github.com/x-xyz/gomarket/stores/market/delivery/http"
	market_repository "github.com/x-xyz/gomarket/stores/market/repository"
	market_usecase "github.com/x-xyz/gomarket/stores/market/usecase"
	order_delivery "github.com/x-xyz/gomarket/stores/order/delivery/http"
	order_repository "github.com/x-xyz/gomarket/stores/order/repository"
	order_usecase "github.com/x-xyz/gomarket/stores/order/usecase"
	paytoken_repository "github.com/x-xyz/gomarket/stores/paytoken/repository"
)

const (
	storeMemory = "memory"
	storeMongo  = "mongo"
)

func init() {
	configFile := pflag.String("config", "infra/configs/config.yaml", "path of the yaml config")
	pflag.Parse()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configFile)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if err := log.Init(viper.GetBool(`debug`)); err != nil {
		panic(err)
	}
	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(bValidator.New())

	context, stop := ctx.WithCancel(ctx.Background())
	defer stop()

	store := viper.GetString("store")
	if store == "" {
		store = storeMemory
	}

	var (
		mongoClient *mongoclient.Client
		q           query.Mongo
	)
	if store == storeMongo {
		context.Info("init mongo")
		mongoCfg := mongoclient.Config{}
		if err := viper.UnmarshalKey("mongo", &mongoCfg); err != nil {
			context.WithField("err", err).Panic("invalid mongo config")
		}
		mongoClient = mongoclient.MustConnectMongoClient(mongoCfg)
		q = query.New(mongoClient)
		if err := order_repository.EnsureOrderIndexes(context, q); err != nil {
			context.WithField("err", err).Panic("EnsureOrderIndexes failed")
		}
	}

	// redis is optional, without it caches stay in process and events are not published
	var redisCache redis.Service
	if uri := viper.GetString("redis.uri"); uri != "" {
		context.Info("init redis cache")
		redisCfg := redisclient.Config{}
		if err := viper.UnmarshalKey("redis", &redisCfg); err != nil {
			context.WithField("err", err).Panic("invalid redis config")
		}
		redisName := viper.GetString("redis.name")
		redisCache = redis.New(redisName, metrics.New(redisName), &redis.Pools{
			Src: redisclient.MustConnectRedis(redisCfg),
		})
	}
	newCache := func(name string, pfx string, ttl time.Duration) cache.Service {
		layers := []provider.Provider{primitive.NewPrimitive(name, viper.GetInt("cache.sizeMb"))}
		if redisCache != nil {
			layers = append(layers, redisprovider.NewRedis(redisCache))
		}
		return cache.New(cache.ServiceConfig{
			Ttl:   ttl,
			Pfx:   pfx,
			Cache: compound.NewCompound(layers...),
		})
	}

	// simulated ledger
	wrappedNative := domain.Address(viper.GetString("market.wrappedNative")).ToLower()
	memoryLedger := ledger_repository.NewMemoryLedger(wrappedNative)
	genesis := ledger_repository.Genesis{}
	if err := viper.UnmarshalKey("ledger.genesis", &genesis); err != nil {
		context.WithField("err", err).Panic("invalid ledger genesis")
	}
	if err := memoryLedger.Apply(genesis); err != nil {
		context.WithField("err", err).Panic("memoryLedger.Apply failed")
	}

	var royaltyReader royalty.Reader = memoryLedger.Royalty()
	if viper.GetBool("royalty.chain.enabled") {
		chainId := viper.GetInt32("royalty.chain.chainId")
		chainService, err := chain.NewClient(context, &chain.ClientCfg{
			RpcUrls:     map[int32]string{chainId: viper.GetString("royalty.chain.rpcUrl")},
			MaxInflight: viper.GetInt("royalty.chain.maxInflight"),
		})
		if err != nil {
			context.WithField("err", err).Warn("chainService started with error")
		}
		royaltyReader = contract.NewRoyalty(chainService, chainId)
	}
	royaltySource := royaltysvc.NewCached(royaltysvc.New(royaltyReader), newCache("royalty", keys.PfxRoyalty, viper.GetDuration("royalty.cacheTtl")))

	paytokens := []*domain.PayToken{}
	if err := viper.UnmarshalKey("paytokens", &paytokens); err != nil {
		context.WithField("err", err).Panic("invalid paytokens config")
	}
	paytokenRepo := paytoken_repository.NewPayTokenRepo(paytokens)

	// construct repository, usecase and delivery
	var (
		orderRepo    order.Repo
		eventRepo    order.EventRepo
		settingsRepo market.SettingsRepo
		transactor   ledger.Transactor = memoryLedger
	)
	switch store {
	case storeMongo:
		orderRepo = order_repository.NewOrderRepo(q)
		eventRepo = order_repository.NewEventRepo(q)
		settingsRepo = market_repository.NewSettingsRepo(q)
		// the inner ledger restores balances between mongo retries, the outer one after a failed commit
		transactor = ledger.Chain(memoryLedger, order_repository.NewMongoTransactor(q), memoryLedger)
	case storeMemory:
		orderRepo = order_repository.NewMemoryOrderRepo()
		eventRepo = order_repository.NewMemoryEventRepo()
		settingsRepo = market_repository.NewMemorySettingsRepo()
	default:
		context.WithField("store", store).Panic("unknown store")
	}

	var feeBps *uint16
	if viper.IsSet("market.feeBps") {
		feeBps = ptr.Uint16(uint16(viper.GetUint("market.feeBps")))
	}
	marketUC := market_usecase.New(&market_usecase.MarketUseCaseCfg{
		Repo:          settingsRepo,
		Owner:         domain.Address(viper.GetString("market.owner")),
		Treasury:      domain.Address(viper.GetString("market.treasury")),
		WrappedNative: wrappedNative,
		FeeBps:        feeBps,
	})

	sinks := []order.Notifier{}
	if redisCache != nil {
		sinks = append(sinks, notifier.NewPublisher(redisCache))
	}
	discordCfg := notifier.DiscordCfg{}
	if err := viper.UnmarshalKey("discord", &discordCfg); err != nil {
		context.WithField("err", err).Panic("invalid discord config")
	}
	if discordCfg.BotKey != "" {
		session, err := notifier.NewDiscordSession(discordCfg)
		if err != nil {
			context.WithField("err", err).Panic("NewDiscordSession failed")
		}
		sinks = append(sinks, notifier.NewDiscord(discordCfg, session, paytokenRepo))
	}
	dispatcherCfg := notifier.DispatcherCfg{}
	if err := viper.UnmarshalKey("notifier", &dispatcherCfg); err != nil {
		context.WithField("err", err).Panic("invalid notifier config")
	}
	dispatcher := notifier.NewDispatcher(dispatcherCfg, sinks...)
	defer dispatcher.Close()

	engineAddress := domain.Address(viper.GetString("market.address"))
	orderUC := order_usecase.New(&order_usecase.OrderUseCaseCfg{
		Address:     engineAddress,
		OrderRepo:   orderRepo,
		EventRepo:   eventRepo,
		Ledger:      memoryLedger,
		Transactor:  transactor,
		Currency:    currency.NewService(&currency.ServiceCfg{Ledger: memoryLedger, Escrow: engineAddress}),
		Royalty:     royaltySource,
		Market:      marketUC,
		Notifier:    dispatcher,
		LockTimeout: viper.GetDuration("market.lockTimeout"),
	})

	authUC := auth_usecase.New(&auth_usecase.AuthUseCaseCfg{
		JwtSecret:          viper.GetString("auth.jwtSecret"),
		SigningMsgTemplate: viper.GetString("auth.signingMsgTemplate"),
		Nonces:             newCache("nonce", keys.PfxNonce, viper.GetDuration("auth.nonceTtl")),
		TokenTtl:           viper.GetDuration("auth.tokenTtl"),
	})
	authMiddleware := auth_middleware.New(authUC)

	hc := hc_usecase.New(hc_repo.New(mongoClient, redisCache), marketUC)

	httpCache := mmiddleware.CacheHttp(newCache("http", "httpCache", viper.GetDuration("cache.httpTtl")))

	hc_delivery.New(e, hc)
	auth_delivery.New(e, authUC, viper.GetString("auth.signingMsgTemplate"))
	order_delivery.New(e, orderUC, paytokenRepo, authMiddleware, httpCache)
	market_delivery.New(e, marketUC, authMiddleware, httpCache)
	ledger_delivery.New(e, memoryLedger)

	fin := finalizer.New(&finalizer.FinalizerCfg{
		Engine:       orderUC,
		Caller:       engineAddress,
		Interval:     viper.GetDuration("finalizer.interval"),
		BatchSize:    viper.GetInt32("finalizer.batchSize"),
		Workers:      viper.GetInt("finalizer.workers"),
		RetryLimit:   viper.GetInt("finalizer.retryLimit"),
		BackoffStart: viper.GetDuration("finalizer.backoffStart"),
		BackoffLimit: viper.GetDuration("finalizer.backoffLimit"),
	})
	if viper.GetBool("finalizer.enabled") {
		fin.Start(context)
	}

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")

	stop()
	if viper.GetBool("finalizer.enabled") {
		fin.Wait()
	}

	shutdownCtx, cancel := ctx.WithTimeout(ctx.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
	log.Sync()
}
