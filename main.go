package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	alertapp "wastetrack-cloud/internal/alerts/application"
	"wastetrack-cloud/internal/alerts/infrastructure/kvconfig"
	alerthttp "wastetrack-cloud/internal/alerts/interfaces/http"
	"wastetrack-cloud/internal/alerts/notify"
	analyticsapp "wastetrack-cloud/internal/analytics/application"
	apihttp "wastetrack-cloud/internal/api/http"
	"wastetrack-cloud/internal/audit"
	"wastetrack-cloud/internal/auth"
	entryapp "wastetrack-cloud/internal/entries/application"
	entries "wastetrack-cloud/internal/entries/domain"
	"wastetrack-cloud/internal/entries/infrastructure/kvstore"
	"wastetrack-cloud/internal/entries/infrastructure/memory"
	"wastetrack-cloud/internal/entries/infrastructure/postgres"
	"wastetrack-cloud/internal/eventing"
	"wastetrack-cloud/internal/observability/metrics"
	"wastetrack-cloud/internal/remote"
)

type config struct {
	HTTPAddr            string        `yaml:"http_addr"`
	DatabaseURL         string        `yaml:"database_url"`
	JWTSecret           string        `yaml:"jwt_secret"`
	RemoteDashboardURL  string        `yaml:"remote_dashboard_url"`
	AlertWebhookURL     string        `yaml:"alert_webhook_url"`
	AlertNotifyTemplate string        `yaml:"alert_notify_template"`
	AlertDedupeWindow   time.Duration `yaml:"alert_dedupe_window"`
	WatchInterval       time.Duration `yaml:"watch_interval"`
	RefreshInterval     time.Duration `yaml:"refresh_interval"`
	SeedSampleData      bool          `yaml:"seed_sample_data"`
}

// loadConfig reads the optional YAML config file named by CONFIG_FILE, then
// lets environment variables override every field. JWT_SECRET has no
// default; the server refuses to start without it.
func loadConfig(logger *log.Logger) config {
	cfg := config{
		HTTPAddr:          ":8080",
		AlertDedupeWindow: 10 * time.Minute,
		WatchInterval:     5 * time.Second,
		RefreshInterval:   time.Hour,
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Fatalf("read config file %s: %v", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			logger.Fatalf("parse config file %s: %v", path, err)
		}
	}

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getenvDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.RemoteDashboardURL = getenvDefault("REMOTE_DASHBOARD_URL", cfg.RemoteDashboardURL)
	cfg.AlertWebhookURL = getenvDefault("ALERT_WEBHOOK_URL", cfg.AlertWebhookURL)
	cfg.AlertNotifyTemplate = getenvDefault("ALERT_NOTIFY_TEMPLATE", cfg.AlertNotifyTemplate)
	cfg.AlertDedupeWindow = getenvDuration("ALERT_DEDUPE_WINDOW", cfg.AlertDedupeWindow, logger)
	cfg.WatchInterval = getenvDuration("WATCH_INTERVAL", cfg.WatchInterval, logger)
	cfg.RefreshInterval = getenvDuration("REFRESH_INTERVAL", cfg.RefreshInterval, logger)
	cfg.SeedSampleData = getenvBool("SEED_SAMPLE_DATA", cfg.SeedSampleData, logger)

	if cfg.JWTSecret == "" {
		logger.Fatalf("JWT_SECRET is required")
	}
	return cfg
}

func main() {
	logger := log.New(os.Stdout, "wastetrack-cloud ", log.LstdFlags|log.Lmicroseconds)
	cfg := loadConfig(logger)
	ctx := context.Background()

	var db *sql.DB
	var backend kvstore.Backend
	var auditRepo *audit.Repository
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("open database: %v", err)
		}
		if err := db.Ping(); err != nil {
			logger.Fatalf("ping database: %v", err)
		}
		pg, err := postgres.NewBackend(db)
		if err != nil {
			logger.Fatalf("postgres backend: %v", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatalf("kv store schema: %v", err)
		}
		auditRepo = audit.NewRepository(db)
		if err := auditRepo.EnsureSchema(ctx); err != nil {
			logger.Fatalf("audit schema: %v", err)
		}
		backend = pg
	} else {
		logger.Printf("DATABASE_URL not set, using in-memory store")
		backend = memory.NewBackend()
	}
	metrics.Init(db, logger)

	store, err := kvstore.NewStore(backend, logger)
	if err != nil {
		logger.Fatalf("kv store: %v", err)
	}
	relay, err := eventing.NewRelay(store, logger)
	if err != nil {
		logger.Fatalf("change relay: %v", err)
	}

	aggregator := analyticsapp.NewAggregator()
	entryOpts := []entryapp.ServiceOption{entryapp.WithRelay(relay)}
	if auditRepo != nil {
		entryOpts = append(entryOpts, entryapp.WithAuditLogger(auditRepo))
	}
	entryService, err := entryapp.NewService(store, aggregator, logger, entryOpts...)
	if err != nil {
		logger.Fatalf("entry service: %v", err)
	}

	configRepo, err := kvconfig.NewRepository(store)
	if err != nil {
		logger.Fatalf("alert config repository: %v", err)
	}
	broker := alerthttp.NewSSEBroker()
	notifiers := []alertapp.Notifier{broker}
	if cfg.AlertWebhookURL != "" {
		channel, err := notify.NewWebhookChannel(cfg.AlertWebhookURL)
		if err != nil {
			logger.Fatalf("alert webhook: %v", err)
		}
		tplText := cfg.AlertNotifyTemplate
		if tplText == "" {
			tplText = notify.DefaultTemplate
		}
		tpl, err := notify.NewTemplate(tplText)
		if err != nil {
			logger.Fatalf("alert template: %v", err)
		}
		webhookNotifier, err := notify.NewNotifier(channel, tpl, notify.WithDedupeWindow(cfg.AlertDedupeWindow))
		if err != nil {
			logger.Fatalf("alert notifier: %v", err)
		}
		notifiers = append(notifiers, webhookNotifier)
	}
	alertService, err := alertapp.NewService(configRepo, alertapp.WithNotifier(notify.NewMultiNotifier(notifiers...)))
	if err != nil {
		logger.Fatalf("alert service: %v", err)
	}

	inputSource := &alertInputSource{service: entryService}
	relay.Subscribe(func(ctx context.Context) {
		input, err := inputSource.AlertInput(ctx)
		if err != nil {
			logger.Printf("alert input: %v", err)
			return
		}
		fired, err := alertService.Evaluate(ctx, input)
		if err != nil {
			logger.Printf("alert evaluation: %v", err)
			return
		}
		if len(fired) > 0 {
			logger.Printf("alerts fired: %d", len(fired))
		}
	})

	watcher, err := eventing.NewWatcher(relay, cfg.WatchInterval, logger)
	if err != nil {
		logger.Fatalf("store watcher: %v", err)
	}
	go watcher.Run(ctx)

	go func() {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := entryService.RefreshSnapshot(ctx, "scheduled"); err != nil {
				logger.Printf("scheduled snapshot refresh: %v", err)
			}
		}
	}()

	if cfg.SeedSampleData {
		if err := seedIfEmpty(ctx, entryService, logger); err != nil {
			logger.Fatalf("seed sample data: %v", err)
		}
	}

	var fetcher remote.Fetcher
	if cfg.RemoteDashboardURL != "" {
		client, err := remote.NewClient(cfg.RemoteDashboardURL)
		if err != nil {
			logger.Fatalf("remote client: %v", err)
		}
		fetcher = client
	}
	provider, err := remote.NewProvider(entryService, fetcher, logger)
	if err != nil {
		logger.Fatalf("snapshot provider: %v", err)
	}

	dashboardHandler, err := apihttp.NewDashboardHandler(entryService, provider)
	if err != nil {
		logger.Fatalf("dashboard handler: %v", err)
	}
	seriesHandler, err := apihttp.NewSeriesHandler(entryService)
	if err != nil {
		logger.Fatalf("series handler: %v", err)
	}
	wasteHandler, err := apihttp.NewWasteEntriesHandler(entryService)
	if err != nil {
		logger.Fatalf("waste entries handler: %v", err)
	}
	landfillHandler, err := apihttp.NewLandfillEntriesHandler(entryService)
	if err != nil {
		logger.Fatalf("landfill entries handler: %v", err)
	}
	recyclingHandler, err := apihttp.NewRecyclingEntriesHandler(entryService)
	if err != nil {
		logger.Fatalf("recycling entries handler: %v", err)
	}
	preferencesHandler, err := apihttp.NewPreferencesHandler(entryService)
	if err != nil {
		logger.Fatalf("preferences handler: %v", err)
	}
	exportsHandler, err := apihttp.NewExportsHandler(entryService)
	if err != nil {
		logger.Fatalf("exports handler: %v", err)
	}
	adminHandler, err := apihttp.NewAdminHandler(entryService)
	if err != nil {
		logger.Fatalf("admin handler: %v", err)
	}
	alertsHandler, err := alerthttp.NewHandler(configRepo, alertService, inputSource)
	if err != nil {
		logger.Fatalf("alerts handler: %v", err)
	}
	streamHandler := alerthttp.NewStreamHandler(broker)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/api/v1/dashboard", dashboardHandler)
	mux.Handle("/api/v1/dashboard/series", seriesHandler)
	mux.Handle("/api/v1/waste-entries", wasteHandler)
	mux.Handle("/api/v1/waste-entries/", wasteHandler)
	mux.Handle("/api/v1/landfill-entries", landfillHandler)
	mux.Handle("/api/v1/landfill-entries/", landfillHandler)
	mux.Handle("/api/v1/recycling-entries", recyclingHandler)
	mux.Handle("/api/v1/recycling-entries/", recyclingHandler)
	mux.Handle("/api/v1/alerts/config", alertsHandler)
	mux.Handle("/api/v1/alerts/evaluate", alertsHandler)
	mux.Handle("/api/v1/alerts/stream", streamHandler)
	mux.Handle("/api/v1/users/preferences", preferencesHandler)
	mux.Handle("/api/v1/exports/", exportsHandler)
	mux.Handle("/api/v1/admin/", adminHandler)

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	handler := loggingMiddleware(authMiddleware.Wrap(mux), logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Printf("listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func seedIfEmpty(ctx context.Context, service *entryapp.Service, logger *log.Logger) error {
	existing, err := service.WasteEntries(ctx, entries.Filter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Printf("sample data skipped, %d waste entries already stored", len(existing))
		return nil
	}
	logger.Printf("seeding sample data")
	return service.SeedSampleData(ctx)
}

// ---- Env helpers ----

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration, logger *log.Logger) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		logger.Fatalf("parse %s: %v", key, err)
	}
	return value
}

func getenvBool(key string, fallback bool, logger *log.Logger) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Fatalf("parse %s: %v", key, err)
	}
	return value
}

// ---- Adapters ----

// alertInputSource assembles the metric state an alert evaluation runs
// against, recomputing the snapshot when none is persisted yet.
type alertInputSource struct {
	service *entryapp.Service
}

func (a *alertInputSource) AlertInput(ctx context.Context) (alertapp.Input, error) {
	snapshot, ok, err := a.service.Snapshot(ctx)
	if err != nil {
		return alertapp.Input{}, err
	}
	if !ok {
		snapshot, err = a.service.RefreshSnapshot(ctx, "alert_input")
		if err != nil {
			return alertapp.Input{}, err
		}
	}
	hours, hasEntries, err := a.service.HoursSinceLastEntry(ctx)
	if err != nil {
		return alertapp.Input{}, err
	}
	return alertapp.Input{
		Snapshot:        snapshot,
		HoursSinceEntry: hours,
		HasEntries:      hasEntries,
	}, nil
}

// ---- HTTP middleware ----

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, sw.status, time.Since(started))
	})
}
