package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/xquisito/pickandgo/internal/auth"
	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/config"
	"github.com/xquisito/pickandgo/internal/metrics"
	"github.com/xquisito/pickandgo/internal/middleware"
	"github.com/xquisito/pickandgo/internal/payments"
	"github.com/xquisito/pickandgo/internal/rpc"
	"github.com/xquisito/pickandgo/internal/service"
	"github.com/xquisito/pickandgo/internal/storage/sqlite"
	"github.com/xquisito/pickandgo/internal/xquisito"
	"github.com/xquisito/pickandgo/pkg/logging"
)

// collaborators are the external services checkout talks to.
type collaborators struct {
	orders       checkout.OrderAPI
	transactions checkout.TransactionRecorder
	cart         checkout.Cart
	catalog      service.Catalog
	methods      checkout.PaymentMethodStore
	gateway      checkout.PaymentGateway
}

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		// Logging is not configured yet.
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	deps, err := buildCollaborators(cfg, store)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	receipts := checkout.NewReceiptVault(store, cfg.SessionTTL)
	branches := checkout.NewBranchContext(store)
	orchestrator, err := checkout.NewOrchestrator(checkout.OrchestratorDeps{
		Orders:       deps.orders,
		Gateway:      deps.gateway,
		Transactions: deps.transactions,
		Cart:         deps.cart,
		Receipts:     receipts,
		Idempotency:  store,
		Observer:     m,
	})
	if err != nil {
		return err
	}
	svc, err := service.NewCheckoutService(service.CheckoutDeps{
		Orchestrator: orchestrator,
		Reconciler:   checkout.NewReconciler(deps.catalog, deps.cart, branches, m, nil),
		Branches:     branches,
		Receipts:     receipts,
		Deletions:    checkout.NewDeletionGuard(deps.methods, store, 0, nil),
		Cart:         deps.cart,
		Catalog:      deps.catalog,
		Methods:      deps.methods,
		Orders:       deps.orders,
	})
	if err != nil {
		return err
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, 24*time.Hour, cfg.Auth.Issuer)
	checkoutPath, checkoutHandler := rpc.NewCheckoutServiceHandler(svc, connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(),
		middleware.RequireCustomer(),
		middleware.RecoverInterceptor(),
	))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	r.Mount(checkoutPath, checkoutHandler)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	go purgeSessions(ctx, store, cfg.SessionPurgeEach)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting",
			"address", srv.Addr,
			"backend", cfg.OrderBackend,
			"payment_provider", cfg.Payments.Provider,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildCollaborators(cfg *config.Config, store *sqlite.SQLiteStore) (*collaborators, error) {
	var api *xquisito.Client
	if cfg.API.BaseURL != "" {
		var err error
		api, err = xquisito.NewClient(cfg.API.BaseURL,
			xquisito.WithServiceKey(cfg.API.ServiceKey),
			xquisito.WithTimeout(cfg.APITimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create API client: %w", err)
		}
	}

	deps := &collaborators{}
	switch cfg.OrderBackend {
	case config.BackendRemote:
		deps.orders, deps.transactions, deps.cart, deps.catalog, deps.methods = api, api, api, api, api
	default:
		deps.orders, deps.transactions, deps.cart, deps.catalog, deps.methods = store, store, store, store, store
	}

	switch cfg.Payments.Provider {
	case config.ProviderStripe:
		gw, err := payments.NewStripeGateway(payments.StripeGatewayConfig{
			APIKey:    cfg.Payments.StripeKey,
			AccountID: cfg.Payments.StripeAccount,
		})
		if err != nil {
			return nil, err
		}
		deps.gateway = gw
	default:
		deps.gateway = payments.NewXquisitoGateway(api)
	}
	return deps, nil
}

// purgeSessions drops expired session slots until ctx is done.
func purgeSessions(ctx context.Context, store *sqlite.SQLiteStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("Session purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("Purged expired session slots", "count", n)
			}
		}
	}
}
