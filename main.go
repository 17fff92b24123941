package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"finbooks/internal/audit"
	"finbooks/internal/auth"
	"finbooks/internal/eventing"
	eventingkafka "finbooks/internal/eventing/kafka"
	ledgerapp "finbooks/internal/ledger/application"
	ledgerrepo "finbooks/internal/ledger/infrastructure/postgres"
	ledgerinterfaces "finbooks/internal/ledger/interfaces"
	"finbooks/internal/observability/metrics"
	payablesapp "finbooks/internal/payables/application"
	payablesrepo "finbooks/internal/payables/infrastructure/postgres"
	payablesinterfaces "finbooks/internal/payables/interfaces"
	reconapp "finbooks/internal/reconciliation/application"
	reconrepo "finbooks/internal/reconciliation/infrastructure/postgres"
	reconinterfaces "finbooks/internal/reconciliation/interfaces"
	settlementapp "finbooks/internal/settlement/application"
	settlementrepo "finbooks/internal/settlement/infrastructure/postgres"
	settlementinterfaces "finbooks/internal/settlement/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	accountRepo := ledgerrepo.NewAccountRepository(db)
	voucherRepo := ledgerrepo.NewVoucherRepository(db)
	statementRepo := reconrepo.NewStatementRepository(db)
	payableRepo := payablesrepo.NewRepository(db)
	paymentRepo := settlementrepo.NewPaymentRepository(db)

	bus := eventing.NewBus()
	if cfg.KafkaBroker != "" {
		sink := eventingkafka.NewPublisher(strings.Split(cfg.KafkaBroker, ","), cfg.KafkaTopic)
		defer sink.Close()
		bus.AttachSink(sink)
	}

	chartService, err := ledgerapp.NewChartService(accountRepo, logger)
	if err != nil {
		logger.Fatalf("chart service error: %v", err)
	}
	voucherService, err := ledgerapp.NewVoucherService(voucherRepo, accountRepo, bus, ledgerapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("voucher service error: %v", err)
	}
	reconService, err := reconapp.NewService(statementRepo, voucherRepo, chartService, logger)
	if err != nil {
		logger.Fatalf("reconciliation service error: %v", err)
	}
	payablesService, err := payablesapp.NewService(payableRepo, nil, logger)
	if err != nil {
		logger.Fatalf("payables service error: %v", err)
	}
	orchestrator, err := settlementapp.NewOrchestrator(paymentRepo, accountRepo, chartService, payableRepo, bus, nil, logger)
	if err != nil {
		logger.Fatalf("settlement orchestrator error: %v", err)
	}

	var chartSeed []ledgerapp.SeedAccount
	if cfg.ChartSeedPath != "" {
		chartSeed, err = ledgerapp.LoadChartSeed(cfg.ChartSeedPath)
		if err != nil {
			logger.Fatalf("chart seed error: %v", err)
		}
	}

	accountHandler, err := ledgerinterfaces.NewAccountHandler(chartService, chartSeed, auditRepo)
	if err != nil {
		logger.Fatalf("account handler error: %v", err)
	}
	voucherHandler, err := ledgerinterfaces.NewVoucherHandler(voucherService, auditRepo)
	if err != nil {
		logger.Fatalf("voucher handler error: %v", err)
	}
	statementHandler, err := reconinterfaces.NewStatementHandler(reconService, chartService, auditRepo)
	if err != nil {
		logger.Fatalf("statement handler error: %v", err)
	}
	vendorHandler, err := payablesinterfaces.NewVendorHandler(payablesService, auditRepo)
	if err != nil {
		logger.Fatalf("vendor handler error: %v", err)
	}
	billHandler, err := payablesinterfaces.NewBillHandler(payablesService, auditRepo)
	if err != nil {
		logger.Fatalf("bill handler error: %v", err)
	}
	orderHandler, err := payablesinterfaces.NewOrderHandler(payablesService, auditRepo)
	if err != nil {
		logger.Fatalf("order handler error: %v", err)
	}
	declarationHandler, err := payablesinterfaces.NewDeclarationHandler(payablesService, auditRepo)
	if err != nil {
		logger.Fatalf("declaration handler error: %v", err)
	}
	paymentHandler, err := settlementinterfaces.NewPaymentHandler(orchestrator, payablesService, chartService, auditRepo)
	if err != nil {
		logger.Fatalf("payment handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/accounts", accountHandler)
	mux.Handle("/api/v1/accounts/", accountHandler)
	mux.Handle("/api/v1/vouchers", voucherHandler)
	mux.Handle("/api/v1/vouchers/", voucherHandler)
	mux.Handle("/api/v1/statements", statementHandler)
	mux.Handle("/api/v1/statements/", statementHandler)
	mux.Handle("/api/v1/statement-items/", statementHandler)
	mux.Handle("/api/v1/vendors", vendorHandler)
	mux.Handle("/api/v1/vendors/", vendorHandler)
	mux.Handle("/api/v1/bills", billHandler)
	mux.Handle("/api/v1/bills/", billHandler)
	mux.Handle("/api/v1/purchase-orders", orderHandler)
	mux.Handle("/api/v1/purchase-orders/", orderHandler)
	mux.Handle("/api/v1/tax-declarations", declarationHandler)
	mux.Handle("/api/v1/tax-declarations/", declarationHandler)
	mux.Handle("/api/v1/payments", paymentHandler)
	mux.Handle("/api/v1/payments/", paymentHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL   string
	HTTPAddr      string
	JWTSecret     string
	ChartSeedPath string
	KafkaBroker   string
	KafkaTopic    string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:   getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:     getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		ChartSeedPath: getenvDefault("CHART_SEED_PATH", ""),
		KafkaBroker:   getenvDefault("KAFKA_BROKER", ""),
		KafkaTopic:    getenvDefault("KAFKA_TOPIC", "finbooks.events"),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		elapsed := time.Since(start)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, elapsed)
		metrics.ObserveHTTP(routeLabel(r.URL.Path), strconv.Itoa(resp.status), elapsed)
	})
}

// routeLabel collapses ids out of paths to keep metric cardinality bounded.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
