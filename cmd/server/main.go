package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/adapters/blob"
	emailPkg "trainerapp/internal/adapters/email"
	web "trainerapp/internal/adapters/http"
	"trainerapp/internal/adapters/http/middleware"
	"trainerapp/internal/adapters/http/perf"
	"trainerapp/internal/adapters/imagedecode"
	"trainerapp/internal/adapters/storage"
	brandingStore "trainerapp/internal/adapters/storage/branding"
	reminderStore "trainerapp/internal/adapters/storage/reminder"
	"trainerapp/internal/application/debounce"
	"trainerapp/internal/application/loader"
	"trainerapp/internal/application/orchestrators"
	"trainerapp/internal/config"
	"trainerapp/internal/domain/theme"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// uploadPrefix is where handleUpload serves the blob store.
const uploadPrefix = "/uploads"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.Production() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	// WAL mode, foreign keys and busy timeout for the local cache database
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(context.Background(), db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: database, backend calls and requests share one collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)
	api := backend.New(cfg.BackendURL, nil, collector)

	uploads, err := openUploads(cfg)
	if err != nil {
		log.Fatalf("failed to open upload store: %v", err)
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.Production() {
			log.Println("WARNING: TRAINER_RESEND_KEY is not set, reminders are NOT delivered in production")
		} else {
			log.Println("Email sender configured (noop, set TRAINER_RESEND_KEY for real delivery)")
		}
	}

	catalog := loader.New("theme_catalog", 5*time.Second, func(ctx context.Context) ([]theme.Preset, error) {
		presets, err := api.ListThemes(ctx)
		if err != nil {
			slog.Warn("branding_event", "event", "catalog_fallback", "error", err)
			return theme.Catalog, nil
		}
		return presets, nil
	})
	maps := loader.New("maps_config", 0, func(context.Context) (web.MapsConfig, error) {
		if cfg.MapsKey == "" {
			return web.MapsConfig{}, errors.New("TRAINER_MAPS_KEY is not set")
		}
		return web.MapsConfig{
			APIKey:    cfg.MapsKey,
			ScriptURL: "https://maps.googleapis.com/maps/api/js?libraries=places&key=" + cfg.MapsKey,
		}, nil
	})

	search := debounce.New(debounce.DefaultDelay)
	defer search.Stop()

	branding := brandingStore.NewSQLiteStore(timedDB)

	// Push branding the backend refused while it was down
	stopCh := make(chan struct{})
	defer close(stopCh)
	if cfg.BackendServiceToken != "" {
		orchestrators.StartPendingBrandingWorker(orchestrators.PushPendingBrandingDeps{
			Store:   branding,
			Backend: api,
			Now:     time.Now,
		}, cfg.BackendServiceToken, cfg.PushInterval, stopCh)
	} else {
		log.Println("Branding retry worker disabled (set TRAINER_BACKEND_SERVICE_TOKEN)")
	}

	mux := web.NewMux(&web.Deps{
		Backend:      api,
		Branding:     branding,
		Reminders:    reminderStore.NewSQLiteStore(timedDB),
		Uploads:      uploads,
		Logos:        imagedecode.New(nil, uploads, uploadPrefix),
		Sender:       sender,
		EmailFrom:    cfg.ResendFrom,
		EmailReplyTo: cfg.ReplyTo,
		ReminderLead: cfg.ReminderLead,
		Catalog:      catalog,
		Maps:         maps,
		Search:       search,
		Perf:         collector,
		CSRF: middleware.CSRFOptions{
			Key:            cfg.CSRFKey,
			Secure:         cfg.Production(),
			TrustedOrigins: cfg.TrustedOrigins,
		},
		RateLimit:   cfg.RateLimit,
		SlowRequest: cfg.SlowRequest,
		DevLogin:    cfg.DevLogin,
	})

	log.Printf("Trainer app %s starting on %s (env=%s, backend=%s, schema=%d)",
		version, cfg.Addr, cfg.Env, cfg.BackendURL, storage.LatestSchemaVersion())
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// openUploads returns the MinIO bucket when configured, otherwise the upload directory.
func openUploads(cfg config.Config) (blob.Store, error) {
	if cfg.UseMinIO() {
		store, err := blob.NewMinIOStore(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Printf("Uploads stored in MinIO bucket %s", cfg.MinIO.Bucket)
		return store, nil
	}
	return blob.NewDirStore(cfg.UploadDir, uploadPrefix)
}
