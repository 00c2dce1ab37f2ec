// Command server starts the resume screening HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	openaicl "github.com/fairyhunter13/ai-resume-screener/internal/adapter/ai/openai"
	httpserver "github.com/fairyhunter13/ai-resume-screener/internal/adapter/httpserver"
	gmailbox "github.com/fairyhunter13/ai-resume-screener/internal/adapter/mail/gmail"
	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/mirror"
	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/repo/postgres"
	localext "github.com/fairyhunter13/ai-resume-screener/internal/adapter/textextractor/local"
	"github.com/fairyhunter13/ai-resume-screener/internal/app"
	"github.com/fairyhunter13/ai-resume-screener/internal/config"
	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
	"github.com/fairyhunter13/ai-resume-screener/internal/service/candidate"
	"github.com/fairyhunter13/ai-resume-screener/internal/service/report"
	"github.com/fairyhunter13/ai-resume-screener/internal/usecase"
)

func main() {
	// Local development convenience; the file is absent in deployment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}

	analysisRepo := postgres.NewAnalysisRepo(pool)
	adminRepo := postgres.NewAdminRepo(pool)

	if err := httpserver.SeedAdmin(ctx, cfg, adminRepo); err != nil {
		slog.Error("admin seed failed", slog.Any("error", err))
		os.Exit(1)
	}

	reports, err := report.NewParserFromFile(cfg.ReportRulesPath)
	if err != nil {
		slog.Error("report rules load failed", slog.Any("error", err))
		os.Exit(1)
	}

	scorer := openaicl.New(cfg)
	extractor := localext.New()
	push := mirror.New(cfg.MirrorURL, cfg.MirrorToken, analysisRepo)

	var mailbox domain.Mailbox
	if mb, err := gmailbox.New(ctx, cfg); err != nil {
		slog.Warn("mailbox unavailable; mail ingestion disabled", slog.Any("error", err))
	} else {
		mailbox = mb
	}

	screen := usecase.NewScreenService(analysisRepo, extractor, candidate.NewExtractor(), scorer, reports, push)
	batchSvc := usecase.NewBatchService(screen, extractor, cfg.JDDir, cfg.ResumeDir)
	quickSvc := usecase.NewQuickService(screen, filepath.Join(cfg.ResumeDir, "quick_uploads"))
	resultSvc := usecase.NewResultService(analysisRepo, cfg.DashboardLimit)
	ingestSvc := usecase.NewIngestService(mailbox, cfg.ResumeDir)

	srv := httpserver.NewServer(cfg, batchSvc, quickSvc, resultSvc, ingestSvc, adminRepo, httpserver.NewSessionManager(cfg), app.BuildDBCheck(pool))
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
