package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/burnoutbuddy/internal/analytics"
	"github.com/hitoshi/burnoutbuddy/internal/analyze"
	"github.com/hitoshi/burnoutbuddy/internal/coach"
	"github.com/hitoshi/burnoutbuddy/internal/config"
	"github.com/hitoshi/burnoutbuddy/internal/database"
	"github.com/hitoshi/burnoutbuddy/internal/eventlog"
	"github.com/hitoshi/burnoutbuddy/internal/handler"
	"github.com/hitoshi/burnoutbuddy/internal/logger"
	"github.com/hitoshi/burnoutbuddy/internal/memory"
	"github.com/hitoshi/burnoutbuddy/internal/metrics"
	"github.com/hitoshi/burnoutbuddy/internal/middleware"
	"github.com/hitoshi/burnoutbuddy/internal/repository"
	"github.com/hitoshi/burnoutbuddy/internal/script"
	"github.com/hitoshi/burnoutbuddy/internal/security"
	"github.com/hitoshi/burnoutbuddy/internal/user"
	"github.com/hitoshi/burnoutbuddy/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .env を読み込む（既存の環境変数が優先）
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		slog.Warn("falling back to info log level", slog.String("error", err.Error()))
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
// metricsモードではwにレポートを書き出し、ログは標準エラーに出力する。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	logOut := w
	if cmd == CommandMetrics {
		logOut = os.Stderr
	}

	cfg, err := Init(logOut)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("store_backend", string(cfg.StoreBackend)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandMetrics:
		return runMetrics(context.Background(), cfg, w)
	default:
		return runServe(cfg)
	}
}

// documentStore はPingを備えたドキュメントストア。
type documentStore interface {
	repository.DocumentStore
	repository.Pinger
}

// components はサブコマンド間で共有する依存関係。
type components struct {
	registry  *prometheus.Registry
	collector *metrics.Collector
	store     *repository.InstrumentedStore
	memories  *memory.Store
	events    *eventlog.Log
	close     func() error
}

// newComponents はストアとメトリクスを初期化する。
// 呼び出し側は使用後にcloseを呼ぶこと。
func newComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	backing, closeFn, err := openDocumentStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	store := repository.NewInstrumentedStore(backing, collector)
	return &components{
		registry:  reg,
		collector: collector,
		store:     store,
		memories:  memory.NewStore(store),
		events:    eventlog.NewLog(store, cfg.EventLogLimit),
		close:     closeFn,
	}, nil
}

// openDocumentStore は設定されたバックエンドのドキュメントストアを開く。
func openDocumentStore(ctx context.Context, cfg *config.Config) (documentStore, func() error, error) {
	if cfg.StoreBackend == config.StoreFile {
		slog.Info("using file document store", slog.String("data_dir", cfg.DataDir))
		return repository.NewFileDocumentRepo(cfg.DataDir), func() error { return nil }, nil
	}

	backend, dsn := sqlBackend(cfg)
	db, err := database.Open(backend, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established", slog.String("backend", string(backend)))
	return repository.NewSQLDocumentRepo(db, repository.Dialect(backend)), db.Close, nil
}

// sqlBackend はSQLバックエンドの種別と接続先を返す。
func sqlBackend(cfg *config.Config) (database.Backend, string) {
	if cfg.StoreBackend == config.StoreSQLite {
		return database.BackendSQLite, cfg.SQLitePath
	}
	return database.BackendPostgres, cfg.DatabaseURL
}

// newRouter は全サービスをワイヤリングしてルーターを構築する。
// 返されるRateLimiterはシャットダウン時に停止すること。
func newRouter(cfg *config.Config, c *components) (http.Handler, *middleware.RateLimiter, error) {
	lexicon, err := analyze.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, nil, err
	}

	opts := []coach.Option{coach.WithRecorder(c.collector)}
	if cfg.PaymentLinkURL != "" {
		opts = append(opts, coach.WithPaymentLink(cfg.PaymentLinkURL))
	}
	coachService := coach.NewService(
		analyze.NewClassifier(lexicon),
		script.NewBuilder(security.NewTextSanitizer()),
		c.memories,
		c.events,
		opts...,
	)

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAnalyze),
	)

	if cfg.AdminKey == "" {
		slog.Warn("ADMIN_KEY is not set; admin metrics are publicly readable")
	}

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Identity: middleware.IdentityConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},
		RateLimiter:     rateLimiter,
		AdminKey:        cfg.AdminKey,
		StatusRecorder:  c.collector,
		HealthChecker:   c.store,
		MetricsHandler:  metrics.Handler(c.registry),
		CoachService:    coachService,
		MetricsReporter: analytics.NewService(c.events, cfg.Timezone),
		UserService:     user.NewService(c.memories),
	})
	return router, rateLimiter, nil
}

// runServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	c, err := newComponents(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer c.close()

	router, rateLimiter, err := newRouter(cfg, c)
	if err != nil {
		return err
	}
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 記憶の保持期間クリーンアップを定期実行し、/metrics を公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := newComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()

	job := cleanup.NewCleanupJob(c.memories, slog.Default(), c.collector)
	if cfg.MemoryRetentionDays > 0 {
		job.RetentionDays = cfg.MemoryRetentionDays
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           metrics.SetupMetricsRoute(c.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Int("retention_days", job.RetentionDays),
	)

	// クリーンアップをメインgoroutineで実行（ブロッキング）
	job.Start(ctx, cfg.CleanupInterval)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// ファイルストアではスキーマが無いため何もしない。
func runMigrate(cfg *config.Config) error {
	if cfg.StoreBackend == config.StoreFile {
		slog.Info("file store has no schema; nothing to migrate")
		return nil
	}

	backend, dsn := sqlBackend(cfg)
	slog.Info("running database migrations",
		slog.String("backend", string(backend)),
		slog.String("database_url", maskDatabaseURL(dsn)),
	)

	if err := database.RunMigrations(backend, dsn); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runMetrics はイベントログから両方の指標セットを1回算出し、JSONでwに書き出す。
func runMetrics(ctx context.Context, cfg *config.Config, w io.Writer) error {
	c, err := newComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()

	report, err := analytics.NewService(c.events, cfg.Timezone).Report(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
