// Command ccerve serves static files over HTTP/1.x from a fixed worker pool.
//
// Usage:
//
//	ccerve [-config ccerve.toml] [section.key=value ...]
//	ccerve <ip> <port>
//
// Overrides use the same keys as the config file, e.g. server.port=9000 or
// log.level=debug. CCERVE_SERVER_PORT style environment variables sit between
// the file and the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/config"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/lixenwraith/ccerve/compat"
	"github.com/lixenwraith/ccerve/handler"
	"github.com/lixenwraith/ccerve/log"
	"github.com/lixenwraith/ccerve/metrics"
	"github.com/lixenwraith/ccerve/server"
)

// Exit codes
const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
)

// envPrefix maps server.port to CCERVE_SERVER_PORT
const envPrefix = "CCERVE_"

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run wires configuration, logging, the handler and the server, and blocks
// until a termination signal
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("ccerve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "ccerve.toml", "path to the TOML configuration file")
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	logCfg, srvCfg, err := loadConfig(*configPath, fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "ccerve: %v\n", err)
		return exitConfig
	}

	logger, err := log.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(stderr, "ccerve: %v\n", err)
		return exitConfig
	}
	log.SetDefault(logger)
	defer func() {
		if err := log.ShutdownAll(); err != nil {
			fmt.Fprintf(stderr, "ccerve: log shutdown: %v\n", err)
		}
	}()

	static, err := handler.NewStatic(srvCfg.Root, srvCfg.Index)
	if err != nil {
		logger.Error(err)
		return exitConfig
	}

	var recorder metrics.Recorder = metrics.NewNoop()
	var metricsSrv *fasthttp.Server
	if srvCfg.MetricsAddr != "" {
		prom, err := metrics.NewPrometheus("ccerve")
		if err == nil {
			err = prom.RegisterLogger(logger)
		}
		if err != nil {
			logger.Error(err)
			return exitFatal
		}
		recorder = prom
		metricsSrv = startMetrics(srvCfg.MetricsAddr, prom, logger)
	}

	srv, err := server.New(srvCfg, static, server.WithLogger(logger), server.WithMetrics(recorder))
	if err != nil {
		logger.Error(err)
		return exitConfig
	}

	ln, err := srv.Listen()
	if err != nil {
		logger.Error(err)
		return exitFatal
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	code := exitOK
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-served:
		// Serve only returns early when the listener fails
		logger.Error("server stopped:", err)
		code = exitFatal
		served <- err
	}

	grace := time.Duration(srvCfg.ShutdownGraceMs)*time.Millisecond + time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown:", err)
	}
	if err := <-served; err != nil && code == exitOK {
		logger.Error("server stopped:", err)
		code = exitFatal
	}
	if metricsSrv != nil {
		if err := metricsSrv.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown:", err)
		}
	}

	logger.Info("stopped")
	return code
}

// loadConfig reads both sections from one file, CCERVE_-prefixed environment
// variables and command line overrides, highest precedence last.
// A missing file is not an error.
func loadConfig(path string, args []string) (*log.Config, *server.Config, error) {
	opts := config.DefaultLoadOptions()
	opts.EnvPrefix = envPrefix
	loader := config.NewWithOptions(opts)

	if err := log.RegisterConfig(loader, "log."); err != nil {
		return nil, nil, err
	}
	if err := server.RegisterConfig(loader, "server."); err != nil {
		return nil, nil, err
	}

	cli, err := cliArgs(args, loader.GetRegisteredPaths(""))
	if err != nil {
		return nil, nil, err
	}
	if err := loader.Load(path, cli); err != nil {
		if errors.Is(err, config.ErrCLIParse) || !errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	logCfg, err := log.ConfigFromLoader(loader, "log.")
	if err != nil {
		return nil, nil, err
	}
	srvCfg, err := server.ConfigFromLoader(loader, "server.")
	if err != nil {
		return nil, nil, err
	}
	return logCfg, srvCfg, nil
}

// startMetrics serves the Prometheus registry on a separate fasthttp server
func startMetrics(addr string, prom *metrics.Prometheus, logger *log.Logger) *fasthttp.Server {
	ms := &fasthttp.Server{
		Name:    "ccerve-metrics",
		Handler: fasthttpadaptor.NewFastHTTPHandler(prom.Handler()),
		Logger:  compat.NewFastHTTPAdapter(logger),
	}
	go func() {
		logger.Infof("metrics listening on %s", addr)
		if err := ms.ListenAndServe(addr); err != nil {
			logger.Errorf("metrics server failed: %v", err)
		}
	}()
	return ms
}
