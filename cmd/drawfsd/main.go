package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pgsdf/drawfs"
	"github.com/pgsdf/drawfs/internal/logging"
	"github.com/pgsdf/drawfs/internal/statsexport"
)

func main() {
	var (
		sockPath    = flag.String("sock", defaultSockPath(), "Unix domain socket path to listen on")
		verbose     = flag.Bool("v", false, "Verbose output")
		maxSessions = flag.Int64("max-sessions", 0, "Maximum concurrent sessions (0 = unbounded)")
		metricsAddr = flag.String("metrics-addr", "", "Address to serve Prometheus metrics on (empty disables)")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	os.Remove(*sockPath)
	ln, err := net.Listen("unix", *sockPath)
	if err != nil {
		log.Fatalf("listen on %s: %v", *sockPath, err)
	}
	defer os.Remove(*sockPath)

	server := drawfs.NewServer(drawfs.ServerConfig{
		MaxSessions: *maxSessions,
		Logger:      logger,
	})

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(statsexport.New(server))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("serving metrics", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ctx, ln)
	}()

	logger.Info("display server listening", "sock", *sockPath)
	fmt.Printf("Listening on %s\n", *sockPath)
	fmt.Printf("Press Ctrl+C to stop...\n")
	fmt.Printf("Send SIGUSR1 (kill -USR1 %d) to dump goroutine stacks\n", os.Getpid())

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE STACK DUMP ===\n%s\n=== END ===\n\n", buf[:n])
			pprof.Lookup("goroutine").WriteTo(os.Stderr, 2)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			logger.Error("serve failed", "error", err)
		}
	}

	cancel()

	select {
	case <-serveErr:
	case <-time.After(2 * time.Second):
		logger.Info("shutdown timeout, forcing exit")
	}

	logger.Info("server stopped")
}

func defaultSockPath() string {
	if p := os.Getenv("DRAWFS_SOCK"); p != "" {
		return p
	}
	return "/tmp/drawfs.sock"
}
