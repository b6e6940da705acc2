package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"marine-catalog/internal/auth"
	"marine-catalog/internal/catalog"
	"marine-catalog/internal/config"
	"marine-catalog/internal/db"
	"marine-catalog/internal/featureflags"
	mw "marine-catalog/internal/http/middleware"
	"marine-catalog/internal/logger"
	"marine-catalog/internal/metrics"
)

func main() {
	// 1) Config + logger init
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	logger.Init(cfg.LogLevel)

	// 2) Feature flags init (non-fatal)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := featureflags.Init(ctx, cfg.RolloutAPIKey); err != nil {
		log.Printf("feature flags init warning: %v", err)
	} else {
		log.Printf("feature flags ready: offline=%v, logLevel=%s",
			featureflags.Values().Offline.IsEnabled(nil),
			featureflags.Values().LogLevel.GetValue(nil))
		logger.SetLevel(featureflags.Values().LogLevel.GetValue(nil))
	}
	defer featureflags.Shutdown()
	logger.Infof("log level set to %s", logger.GetLevel())

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

	// 3) Store backend selection
	var docs catalog.DocumentStore
	var images catalog.ImageStore = catalog.DisabledImageStore{}
	ready := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendBlob:
		if cfg.BlobEndpoint == "" {
			log.Fatalf("BLOB_ENDPOINT is required for the blob backend")
		}
		client, err := minio.New(cfg.BlobEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.BlobAccessKey, cfg.BlobSecretKey, ""),
			Secure: cfg.BlobUseSSL,
		})
		if err != nil {
			log.Fatalf("blob client init failed: %v", err)
		}
		bs := catalog.NewBlobStore(client, cfg.BlobBucket, cfg.BlobPublicURL)
		docs = catalog.NewFallbackStore(bs)
		images = bs
		ready = func() error {
			_, err := client.BucketExists(context.Background(), cfg.BlobBucket)
			return err
		}

	case config.BackendPostgres:
		sqlDB, err := db.Init()
		if err != nil {
			log.Fatalf("database init failed: %v", err)
		}
		defer sqlDB.Close()
		docs = catalog.NewPGStore(sqlDB)
		ready = sqlDB.Ping
		// Images still go to the blob store when one is configured;
		// otherwise they are inlined as data URIs.
		if cfg.BlobEndpoint != "" {
			client, err := minio.New(cfg.BlobEndpoint, &minio.Options{
				Creds:  credentials.NewStaticV4(cfg.BlobAccessKey, cfg.BlobSecretKey, ""),
				Secure: cfg.BlobUseSSL,
			})
			if err != nil {
				log.Fatalf("blob client init failed: %v", err)
			}
			images = catalog.NewBlobStore(client, cfg.BlobBucket, cfg.BlobPublicURL)
		}

	case config.BackendMemory:
		logger.Warnf("memory backend selected: catalog is not durable across restarts")
		docs = catalog.NewMemoryStore()
	}

	// 4) Router
	r := mux.NewRouter()

	// 4a) Offline kill-switch middleware (placed immediately after router creation)
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

	// 4b) Metrics + request logger (skip noisy health endpoints)
	reg := metrics.NewRegistry()
	r.Use(reg.Instrument)
	r.Use(mw.LogRequests(mw.WithSkips("/health", "/ready", "/metrics")))

	// 5) Health endpoints
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := ready(); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}).Methods(http.MethodGet)

	// 6) Inspect current flag values
	r.HandleFunc("/_flags", func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]interface{}{
			"offline":  featureflags.Values().Offline.IsEnabled(nil),
			"logLevel": featureflags.Values().LogLevel.GetValue(nil),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}).Methods(http.MethodGet)

	r.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)

	// 7) Product catalog endpoints
	catalogHandler := catalog.NewHandler(docs, images, reg)
	loginHandler := auth.NewLoginHandler(cfg.AdminUsername, cfg.AdminPassword)

	// Public read endpoint (no authentication required)
	r.HandleFunc("/products", catalogHandler.ListProducts).Methods(http.MethodGet)

	// Protected admin endpoints (require JWT with admin role)
	r.HandleFunc("/products", catalog.RequireAdmin(catalogHandler.CreateProduct)).Methods(http.MethodPost)
	r.HandleFunc("/products", catalog.RequireAdmin(catalogHandler.UpdateProduct)).Methods(http.MethodPut)
	r.HandleFunc("/products", catalog.RequireAdmin(catalogHandler.DeleteProduct)).Methods(http.MethodDelete)

	r.HandleFunc("/login", loginHandler.Login).Methods(http.MethodPost)

	r.MethodNotAllowedHandler = http.HandlerFunc(catalog.MethodNotAllowed)

	s := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Infof("marine-catalog listening on %s (backend=%s)", s.Addr, cfg.StoreBackend)
	log.Fatal(s.ListenAndServe())
}
