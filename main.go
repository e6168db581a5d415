package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"clam-storefront/internal/auth"
	"clam-storefront/internal/cart"
	"clam-storefront/internal/catalog"
	"clam-storefront/internal/config"
	"clam-storefront/internal/db"
	"clam-storefront/internal/featureflags"
	mw "clam-storefront/internal/http/middleware"
	"clam-storefront/internal/logger"
	"clam-storefront/internal/metrics"
	"clam-storefront/internal/tracing"
)

const serviceName = "clam-storefront"

func main() {
	// 1) Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// 2) DB init
	sqlDB, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	defer sqlDB.Close()

	// 3) Feature flags init (non-fatal)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := featureflags.Init(ctx, cfg.RolloutKey); err != nil {
		log.Printf("feature flags init warning: %v", err)
	} else {
		log.Printf("feature flags ready: offline=%v, logLevel=%s, promoCodes=%v",
			featureflags.Values().Offline.IsEnabled(nil),
			featureflags.Values().LogLevel.GetValue(nil),
			featureflags.PromoCodesEnabled())
	}
	defer featureflags.Shutdown()

	// 3a) Initialize levelled logger from flag & watch for flips
	logger.Init(featureflags.Values().LogLevel.GetValue(nil))
	logger.Infof("log level set to %s", logger.GetLevel())
	defer logger.Sync()

	go func() {
		prev := featureflags.Values().LogLevel.GetValue(nil)
		for {
			time.Sleep(5 * time.Second)
			cur := featureflags.Values().LogLevel.GetValue(nil)
			if cur != prev {
				logger.SetLevel(cur)
				logger.Infof("log level changed to %s", logger.GetLevel())
				prev = cur
			}
		}
	}()

	// 3b) Tracing (optional)
	if cfg.JaegerEndpoint != "" {
		tp, err := tracing.InitTracerProvider(serviceName, cfg.JaegerEndpoint)
		if err != nil {
			logger.Warnf("tracing disabled: %v", err)
		} else {
			defer func() {
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()
				_ = tp.Shutdown(sctx)
			}()
		}
	}

	// 4) Catalog snapshot
	catalogStore := catalog.NewStore(sqlDB)
	products, err := catalog.NewCatalog(cfg.QueryCacheSize)
	if err != nil {
		log.Fatalf("catalog init failed: %v", err)
	}
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer loadCancel()
	if err := products.Load(loadCtx, catalogStore); err != nil {
		logger.Errorf("initial catalog load failed, serving empty catalog until reload: %v", err)
	}

	// 5) Cart sessions (Redis when configured)
	var store cart.Store = cart.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(loadCtx).Err(); err != nil {
			log.Fatalf("redis init failed: %v", err)
		}
		store = cart.NewRedisStore(rdb, cfg.CartTTL)
		logger.Infof("cart sessions stored in redis at %s", cfg.RedisAddr)
	} else {
		logger.Warnf("REDIS_ADDR not set, cart sessions are kept in memory")
	}
	sessions, err := cart.NewSessions(cart.Pricing{TaxRate: cfg.TaxRate, Promos: cfg.Promos}, store, cfg.SessionCacheSize)
	if err != nil {
		log.Fatalf("session init failed: %v", err)
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)

	// 6) Router
	r := mux.NewRouter()

	// 6a) Offline kill-switch middleware (placed immediately after router creation)
	offlineGate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// always allow health checks
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}
			// block all other requests when Offline flag is ON
			if featureflags.Values().Offline.IsEnabled(nil) {
				http.Error(w, "service temporarily offline", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	r.Use(offlineGate)

	// 6b) Request logger (skip noisy health endpoints)
	r.Use(mw.LogRequests(mw.WithSkips("/health", "/ready", "/metrics")))

	// 7) Health endpoints
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := sqlDB.PingContext(req.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if products.Version() == 0 {
			http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}).Methods(http.MethodGet)

	// 8) Inspect current flag values
	r.HandleFunc("/_flags", func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]interface{}{
			"offline":    featureflags.Values().Offline.IsEnabled(nil),
			"logLevel":   featureflags.Values().LogLevel.GetValue(nil),
			"promoCodes": featureflags.PromoCodesEnabled(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}).Methods(http.MethodGet)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// 9) Catalog endpoints
	catalogHandler := catalog.NewHandler(products, catalogStore)

	r.HandleFunc("/api/products", catalogHandler.ListProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}", catalogHandler.GetProduct).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}/related", catalogHandler.RelatedProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/facets", catalogHandler.Facets).Methods(http.MethodGet)

	// Protected admin endpoint (requires JWT with admin role)
	r.HandleFunc("/api/catalog/reload", verifier.RequireRole(catalogHandler.Reload, "admin", "merchandiser")).Methods(http.MethodPost)

	// 10) Cart and wishlist endpoints
	cartHandler := cart.NewHandler(sessions, products, verifier, cfg.CurrencySymbol)
	cartHandler.PromosEnabled = featureflags.PromoCodesEnabled

	r.HandleFunc("/api/cart", cartHandler.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/api/cart", cartHandler.ClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/api/cart/items", cartHandler.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/items/{productId}", cartHandler.UpdateItem).Methods(http.MethodPut)
	r.HandleFunc("/api/cart/items/{productId}", cartHandler.RemoveItem).Methods(http.MethodDelete)
	r.HandleFunc("/api/cart/promo", cartHandler.ApplyPromo).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/promo", cartHandler.RemovePromo).Methods(http.MethodDelete)
	r.HandleFunc("/api/wishlist", cartHandler.GetWishlist).Methods(http.MethodGet)
	r.HandleFunc("/api/wishlist/{productId}", cartHandler.ToggleWishlist).Methods(http.MethodPost)

	s := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("%s listening on %s", serviceName, s.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop, release := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer release()
	<-stop.Done()

	logger.Infof("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
}
