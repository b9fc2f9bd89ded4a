package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"caixa/internal/backend"
	"caixa/internal/cache"
	"caixa/internal/core"
	"caixa/internal/log"
	"caixa/internal/middleware/ratelimit"
	"caixa/internal/middleware/security"
	"caixa/internal/middleware/trace"
	"caixa/internal/profit"
	"caixa/internal/report"
	"caixa/internal/services"
)

// Ledger is the part of the ledger service the API needs.
type Ledger interface {
	Catalog() core.Catalog
	Settings() core.Settings
	Snapshot() (core.State, uint64)
	Version() uint64
	Summary() (report.Summary, uint64)
	ProfitBreakdown() ([]profit.ProductProfit, core.Money)
	Stats() services.Stats

	AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) bool
	UpdateDebtorAmount(ctx context.Context, id string, amount core.Money) services.DebtorChange
	RecordSale(ctx context.Context, productID string, quantity int, date time.Time) error
}

// Options configures the server. Zero values select the defaults.
type Options struct {
	Logger *log.Logger
	// Pinger is checked by /readyz. Nil means the store is always ready.
	Pinger          backend.Pinger
	SummaryCacheTTL time.Duration
	RateLimit       ratelimit.Config
	Headers         *security.HeadersConfig
	// BlockSuspicious rejects requests the detector flags instead of only
	// logging them.
	BlockSuspicious bool
	Now             func() time.Time
}

type Server struct {
	http.Server
	ledger Ledger
	logger *log.Logger
	pinger backend.Pinger
	now    func() time.Time

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware

	// Summaries are keyed by snapshot version and day, so a commit or a
	// date change never serves a stale value.
	summaryCache *cache.LRUCache[report.Summary]
	cacheManager *cache.Manager

	startedAt    time.Time
	shutdownOnce sync.Once
}

const (
	summaryCacheSize     = 16
	defaultSummaryTTL    = 30 * time.Second
	cacheCleanupInterval = time.Minute
	readyTimeout         = 5 * time.Second
)

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. Call Shutdown to stop its background goroutines.
func NewServer(addr string, ledger Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	ttl := opts.SummaryCacheTTL
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rlConfig := opts.RateLimit
	if rlConfig.RequestsPerMinute == 0 {
		rlConfig = ratelimit.DefaultConfig()
	}
	headers := security.DefaultHeadersConfig()
	if opts.Headers != nil {
		headers = *opts.Headers
	}

	s := &Server{
		ledger:           ledger,
		logger:           logger.WithComponent(log.ComponentHTTP),
		pinger:           opts.Pinger,
		now:              now,
		securityDetector: security.NewDetector(),
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		summaryCache:     cache.NewLRUCache[report.Summary](summaryCacheSize, ttl),
		cacheManager:     cache.NewManager(logger),
		startedAt:        now(),
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/profit", s.handleProfit)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions", s.handleDeleteTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/transactions/delete", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/debtors", s.handleUpdateDebtor)
	mux.HandleFunc("POST /api/sales", s.handleRecordSale)

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, rlConfig.Methods,
		func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			TooManyRequestsError().Write(w)
		})

	var handler http.Handler = mux
	handler = limited(handler)
	handler = s.securityDetector.Middleware(logger, opts.BlockSuspicious)(handler)
	handler = security.NewHeadersMiddleware(headers).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// summary returns the dashboard aggregate for the current snapshot.
func (s *Server) summary(ctx context.Context) report.Summary {
	today := core.DateOf(s.now()).String()
	key := summaryKey(s.ledger.Version(), today)
	if sum, ok := s.summaryCache.Get(key); ok {
		return sum
	}

	sum, version := s.ledger.Summary()
	s.summaryCache.Set(summaryKey(version, today), sum)
	s.logger.DebugContext(ctx, "Summary cached", "version", version)
	return sum
}

func summaryKey(version uint64, day string) string {
	return fmt.Sprintf("%d@%s", version, day)
}
