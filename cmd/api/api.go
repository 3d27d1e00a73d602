package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"couponly/docs" //this is required to generate swagger docs
	"couponly/internal/aggregator"
	"couponly/internal/domain/storage"
	"couponly/internal/metrics"
	"couponly/internal/ratelimiter"
	"couponly/internal/shortlink"
	"couponly/internal/tracking"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

const syncTimeout = 10 * time.Minute

type pinger interface {
	Ping(ctx context.Context) error
}

type application struct {
	config      config
	store       *storage.Container
	db          pinger
	logger      *zap.SugaredLogger
	cld         *cloudinary.Cloudinary
	rateLimiter ratelimiter.Limiter
	syncer      *aggregator.Syncer
	importer    *aggregator.Importer
	tracker     *tracking.Tracker
	links       *shortlink.Codec
	caches      *catalogCaches

	// background tracks work that outlives its request (async clicks,
	// periodic sync); run waits for it before returning.
	background sync.WaitGroup
	quit       chan struct{}
}

type config struct {
	addr          string
	db            dbConfig
	env           string
	apiURL        string
	cache         cacheConfig
	takeads       takeadsConfig
	geo           geoConfig
	auth          authConfig
	cloudinaryURL string
	rateLimiter   ratelimiter.Config
	shortlink     shortlinkConfig
	sync          syncConfig
}

type authConfig struct {
	basic basicConfig
}

// pass is compared verbatim; passHash (bcrypt) wins when both are set.
type basicConfig struct {
	user     string
	pass     string
	passHash string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

type cacheConfig struct {
	backend  string
	ttl      time.Duration
	redisURL string
}

type takeadsConfig struct {
	apiKey        string
	baseURL       string
	timeout       time.Duration
	merchantPages int
	couponPages   int
	pageSize      int
}

type geoConfig struct {
	baseURL string
	timeout time.Duration
}

type shortlinkConfig struct {
	salt      string
	minLength int
}

type syncConfig struct {
	interval time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Get("/metrics", metrics.Handler().ServeHTTP)

		// Tracking never fails the caller; the limiter only sheds abuse.
		r.Group(func(r chi.Router) {
			r.Use(app.RateLimiterMiddleware)
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/track/click", app.trackClickHandler)
			r.Get("/out/{code}", app.outLinkHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/stores", func(r chi.Router) {
				r.Get("/", app.listStoresHandler)
				r.Get("/{slug}", app.getStoreBySlugHandler)
				r.Get("/{slug}/coupons", app.listStoreCouponsHandler)
			})
			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", app.listCouponsHandler)
				r.Get("/popular", app.popularCouponsHandler)
				r.Get("/latest", app.latestCouponsHandler)
				r.Get("/{couponID}", app.getCouponHandler)
			})
			r.Get("/categories", app.listCategoriesHandler)
			r.Get("/banners", app.listBannersHandler)
			r.Route("/news", func(r chi.Router) {
				r.Get("/", app.listNewsHandler)
				r.Get("/{slug}", app.getNewsHandler)
			})
			r.Get("/faqs", app.listFAQsHandler)
			r.Get("/pages/{slug}", app.getPageHandler)
			r.Get("/settings", app.getSettingsHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.BasicAuthMiddleware())

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(60 * time.Second))

				r.Route("/stores", func(r chi.Router) {
					r.Get("/", app.adminListStoresHandler)
					r.Post("/", app.createStoreHandler)
					r.Get("/{storeID}", app.adminGetStoreHandler)
					r.Patch("/{storeID}", app.updateStoreHandler)
					r.Delete("/{storeID}", app.deleteStoreHandler)
				})
				r.Route("/coupons", func(r chi.Router) {
					r.Get("/", app.adminListCouponsHandler)
					r.Post("/", app.createCouponHandler)
					r.Get("/{couponID}", app.adminGetCouponHandler)
					r.Patch("/{couponID}", app.updateCouponHandler)
					r.Put("/{couponID}/slot", app.setCouponSlotHandler)
					r.Delete("/{couponID}", app.deleteCouponHandler)
				})
				r.Route("/categories", func(r chi.Router) {
					r.Get("/", app.adminListCategoriesHandler)
					r.Post("/", app.createCategoryHandler)
					r.Patch("/{categoryID}", app.updateCategoryHandler)
					r.Delete("/{categoryID}", app.deleteCategoryHandler)
				})
				r.Route("/banners", func(r chi.Router) {
					r.Get("/", app.adminListBannersHandler)
					r.Post("/", app.createBannerHandler)
					r.Patch("/{bannerID}", app.updateBannerHandler)
					r.Delete("/{bannerID}", app.deleteBannerHandler)
				})
				r.Route("/news", func(r chi.Router) {
					r.Get("/", app.adminListNewsHandler)
					r.Post("/", app.createNewsHandler)
					r.Patch("/{articleID}", app.updateNewsHandler)
					r.Delete("/{articleID}", app.deleteNewsHandler)
				})
				r.Route("/faqs", func(r chi.Router) {
					r.Get("/", app.adminListFAQsHandler)
					r.Post("/", app.createFAQHandler)
					r.Patch("/{faqID}", app.updateFAQHandler)
					r.Delete("/{faqID}", app.deleteFAQHandler)
				})
				r.Route("/pages", func(r chi.Router) {
					r.Get("/", app.adminListPagesHandler)
					r.Put("/{slug}", app.putPageHandler)
					r.Delete("/{slug}", app.deletePageHandler)
				})
				r.Put("/settings", app.updateSettingsHandler)
				r.Get("/clicks/summary", app.clickSummaryHandler)
				r.Get("/sync/runs", app.syncRunsHandler)
				r.Post("/cache/clear", app.clearCacheHandler)
			})

			// A full sync walks up to 60 upstream pages at 30s each.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(syncTimeout))

				r.Post("/sync/merchants", app.syncMerchantsHandler)
				r.Post("/sync/coupons", app.syncCouponsHandler)
				r.Post("/sync/all", app.syncAllHandler)
				r.Post("/import/{resource}", app.importHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: syncTimeout + 10*time.Second,
		ReadTimeout:  time.Second * 30,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		if app.quit != nil {
			close(app.quit)
		}
		err := srv.Shutdown(ctx)

		app.logger.Infow("waiting for background tasks")
		app.background.Wait()

		shutdown <- err
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
