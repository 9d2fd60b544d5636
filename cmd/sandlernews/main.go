package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/app"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/config"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/logger"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		emailTo   = flag.String("email", "", "send the daily report to this address")
		search    = flag.Bool("search", false, "only search and print news")
		testTo    = flag.String("test", "", "check SMTP and send a test report to this address")
		genFile   = flag.String("generate-file", "", "generate the report and save it to this file")
		status    = flag.Bool("status", false, "show system status")
		schedule  = flag.Bool("schedule", false, "run the daily report on CRON_SPEC until interrupted")
		helpSetup = flag.Bool("help-setup", false, "show setup help")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Erro de configuração: %v\n", err)
		return 1
	}
	log := logger.New(cfg.LogLevel)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Metrics: m, Logger: log})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Erro ao configurar aplicação: %v\n", err)
		return 1
	}
	defer a.Close()

	a.Banner()

	if *helpSetup {
		a.HelpSetup()
		return 0
	}

	if cfg.MonitoringEnabled {
		srv := startMonitoringServer(cfg.MonitoringPort, m, log)
		defer shutdown(srv, log)
	}

	switch {
	case *emailTo != "":
		err = a.DailyReport(ctx, *emailTo)
	case *search:
		err = a.Search(ctx)
	case *testTo != "":
		err = a.TestWorkflow(ctx, *testTo)
	case *genFile != "":
		err = a.GenerateFile(ctx, *genFile)
	case *status:
		err = a.Status(ctx)
	case *schedule:
		err = a.Schedule(ctx)
	default:
		fmt.Println("❌ Nenhum comando especificado!")
		fmt.Println("Use -help para ver as opções disponíveis")
		fmt.Println("Use -help-setup para ver ajuda de configuração")
		return 1
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("\n⚠️  Operação cancelada pelo usuário")
		} else {
			log.Error("command failed", "error", err)
		}
		return 1
	}
	return 0
}

func startMonitoringServer(port string, m *metrics.Metrics, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(m))
	mux.HandleFunc("/metrics", metricsHandler(m))

	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("starting monitoring server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("monitoring server error", "error", err)
		}
	}()
	return srv
}

func shutdown(srv *http.Server, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("monitoring server shutdown", "error", err)
	}
}

func healthHandler(m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := m.GetStats()

		status := "ok"
		code := http.StatusOK
		if !m.Healthy() {
			status = "error"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		})
	}
}

func metricsHandler(m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.GetStats())
	}
}
