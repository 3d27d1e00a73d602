package main

import (
	"expvar"
	"fmt"
	"os"
	"runtime"
	"time"

	"couponly/internal/aggregator"
	"couponly/internal/cache"
	"couponly/internal/db"
	"couponly/internal/domain/storage"
	"couponly/internal/env"
	"couponly/internal/logging"
	"couponly/internal/ratelimiter"
	"couponly/internal/shortlink"
	"couponly/internal/takeads"
	"couponly/internal/tracking"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: env.GetInt("RATELIMITER_REQUESTS_COUNT", 200),
		TimeFrame:            env.GetDuration("RATELIMITER_TIME_FRAME", 5*time.Second),
		Enabled:              env.GetBool("RATE_LIMITER_ENABLED", false),
	}
}

func loadConfig() config {
	return config{
		addr:   env.GetString("ADDR", ":8080"),
		env:    env.GetString("ENV", "development"),
		apiURL: env.GetString("EXTERNAL_URL", "localhost:8080"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    env.GetInt("DB_MAX_OPEN_CONNS", 20),
			maxIdleTime: env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
		cache: cacheConfig{
			backend:  env.GetString("CACHE_BACKEND", "memory"),
			ttl:      env.GetDuration("CACHE_TTL", 5*time.Minute),
			redisURL: env.GetString("REDIS_URL", "localhost:6379"),
		},
		takeads: takeadsConfig{
			apiKey:        os.Getenv("TAKEADS_API_KEY"),
			baseURL:       env.GetString("TAKEADS_BASE_URL", takeads.DefaultBaseURL),
			timeout:       env.GetDuration("TAKEADS_TIMEOUT", takeads.DefaultTimeout),
			merchantPages: env.GetInt("TAKEADS_MAX_MERCHANT_PAGES", takeads.MaxMerchantPages),
			couponPages:   env.GetInt("TAKEADS_MAX_COUPON_PAGES", takeads.MaxCouponPages),
			pageSize:      env.GetInt("TAKEADS_PAGE_SIZE", takeads.DefaultLimit),
		},
		geo: geoConfig{
			baseURL: env.GetString("GEO_BASE_URL", tracking.DefaultGeoBaseURL),
			timeout: env.GetDuration("GEO_TIMEOUT", tracking.DefaultGeoTimeout),
		},
		auth: authConfig{
			basic: basicConfig{
				user:     os.Getenv("AUTH_BASIC_USER"),
				pass:     os.Getenv("AUTH_BASIC_PASS"),
				passHash: os.Getenv("AUTH_BASIC_PASS_HASH"),
			},
		},
		cloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		rateLimiter:   LoadRateLimiterConfig(),
		shortlink: shortlinkConfig{
			salt:      env.GetString("SHORTLINK_SALT", "couponly"),
			minLength: env.GetInt("SHORTLINK_MIN_LENGTH", shortlink.DefaultMinLength),
		},
		sync: syncConfig{
			interval: env.GetDuration("SYNC_INTERVAL", 0),
		},
	}
}

var version = "1.0.0"

//	@title			Couponly API
//	@description	API for Couponly, a coupon and deals marketplace.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.basic	BasicAuth

func main() {
	// .env is optional; deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file loaded:", err)
	}

	cfg := loadConfig()

	logger, err := logging.New()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.db.addr, int32(cfg.db.maxConns), cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	store := storage.NewContainer(pool)

	// Cloudinary is only used to clean up images of deleted records.
	var cld *cloudinary.Cloudinary
	if cfg.cloudinaryURL != "" {
		cld, err = cloudinary.NewFromURL(cfg.cloudinaryURL)
		if err != nil {
			logger.Fatal(err)
		}
	} else {
		logger.Warn("CLOUDINARY_URL not set, image cleanup disabled")
	}

	var rdb *redis.Client
	if cfg.cache.backend == "redis" {
		rdb = cache.NewRedisClient(cfg.cache.redisURL)
		defer rdb.Close()
		logger.Infow("redis cache enabled", "addr", cfg.cache.redisURL)
	}

	links, err := shortlink.New(cfg.shortlink.salt, cfg.shortlink.minLength)
	if err != nil {
		logger.Fatal(err)
	}

	if cfg.takeads.apiKey == "" {
		logger.Warn("TAKEADS_API_KEY not set, Takeads sync calls will be rejected upstream")
	}
	client := takeads.NewClient(cfg.takeads.baseURL, cfg.takeads.apiKey, cfg.takeads.timeout)
	sink := aggregator.NewPGSink(store)
	syncer := aggregator.NewSyncer(client, sink, store.SyncRuns, logger, aggregator.Limits{
		MerchantPages: cfg.takeads.merchantPages,
		CouponPages:   cfg.takeads.couponPages,
		PageSize:      cfg.takeads.pageSize,
	})

	geo := tracking.NewIPAPI(cfg.geo.baseURL, cfg.geo.timeout, nil)

	app := &application{
		config:      cfg,
		store:       store,
		db:          pool,
		logger:      logger,
		cld:         cld,
		rateLimiter: ratelimiter.NewFixedWindowLimiter(cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame),
		syncer:      syncer,
		importer:    aggregator.NewImporter(sink, logger),
		tracker:     tracking.NewTracker(store.Clicks, geo, logger),
		links:       links,
		caches:      newCatalogCaches(cfg.cache, store, rdb),
		quit:        make(chan struct{}),
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"acquired_conns": s.AcquiredConns(),
			"idle_conns":     s.IdleConns(),
			"total_conns":    s.TotalConns(),
			"max_conns":      s.MaxConns(),
			"acquire_count":  s.AcquireCount(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	if cfg.sync.interval > 0 {
		app.syncPeriodically(cfg.sync.interval)
	}

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
