// Package supervisor owns process-level startup and shutdown (spec §4.13):
// config load, skip-store load, router construction, port-conflict
// resolution, background refresh scheduling, and signal-driven graceful
// shutdown, grounded on fluxforge/agent/main.go's context+signal.Notify
// shape.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/config"
	"github.com/bencan1a/calendarlite/internal/dashboardhub"
	"github.com/bencan1a/calendarlite/internal/eventwindow"
	"github.com/bencan1a/calendarlite/internal/httpapi"
	"github.com/bencan1a/calendarlite/internal/icsfetch"
	"github.com/bencan1a/calendarlite/internal/logging"
	"github.com/bencan1a/calendarlite/internal/morningsummary"
	"github.com/bencan1a/calendarlite/internal/refresh"
	"github.com/bencan1a/calendarlite/internal/skipstore"
)

// refreshTaskWait and serverDrainTimeout are spec §4.13/§5's shutdown
// timeouts.
const (
	refreshTaskWait    = 10 * time.Second
	serverDrainTimeout = 10 * time.Second
)

// Run executes the full startup sequence, blocks until a shutdown signal
// arrives, then drains cleanly. It returns a nonzero-worthy error only for
// unrecoverable startup failures (spec §6 "exit codes").
func Run(ctx context.Context, cfg config.Config) error {
	log := logging.For("supervisor")
	c := clock.Real{}

	skips := skipstore.New(cfg.SkipStorePath, c)
	if err := skips.Load(); err != nil {
		return fmt.Errorf("loading skip store: %w", err)
	}

	window := eventwindow.NewStore()
	health := refresh.NewState(c)
	fetchCfg := icsfetch.DefaultConfig()
	fetchCfg.RateLimitPerSecond = cfg.FetchRateLimitPerSecond
	fetchCfg.RateLimitBurst = cfg.FetchRateBurst
	fetchCfg.CircuitThreshold = cfg.CircuitBreakerThreshold
	fetchCfg.CircuitCooldown = time.Duration(cfg.CircuitBreakerCooldownSecond) * time.Second
	fetcher := icsfetch.New(fetchCfg)
	pipeline := refresh.New(cfg.Sources, fetcher, window, skips, c, health,
		cfg.RRuleExpansionDays, cfg.EventWindowSize)

	hub := dashboardhub.New(&httpapi.DashboardSource{Health: health, Window: window, Clock: c})

	var cache *morningsummary.Cache
	if cfg.RedisAddr != "" {
		cache = morningsummary.NewCache(morningsummary.NewRedisBackend(cfg.RedisAddr))
	} else {
		cache = morningsummary.NewCache(nil)
	}

	refreshCtx, cancelRefresh := context.WithCancel(ctx)

	router := httpapi.NewRouter(httpapi.Deps{
		Config: cfg,
		Clock:  c,
		Window: window,
		Skips:  skips,
		Health: health,
		Cache:  cache,
		Hub:    hub,
		ForceRefresh: func() {
			pipeline.RunOnce(refreshCtx)
			hub.BroadcastNow()
		},
	})

	listener, err := bindListener(cfg)
	if err != nil {
		cancelRefresh()
		return fmt.Errorf("binding %s:%d: %w", cfg.ServerBind, cfg.ServerPort, err)
	}

	server := &http.Server{Handler: router}

	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		hub.Run(refreshCtx)
	}()
	go func() {
		defer background.Done()
		refresh.Run(refreshCtx, pipeline, time.Duration(cfg.RefreshIntervalSeconds)*time.Second, hub.BroadcastNow)
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", listener.Addr().String()).Msg("server starting")
		serveErr <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancelRefresh()
			return fmt.Errorf("server exited unexpectedly: %w", err)
		}
	}

	return shutdown(cancelRefresh, &background, server)
}

// shutdown implements spec §4.13: cancel the refresh task and wait up to
// refreshTaskWait, then drain the server within serverDrainTimeout.
func shutdown(cancelRefresh context.CancelFunc, background *sync.WaitGroup, server *http.Server) error {
	cancelRefresh()

	done := make(chan struct{})
	go func() {
		background.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(refreshTaskWait):
		logging.For("supervisor").Warn().Msg("background tasks did not stop within the wait window")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), serverDrainTimeout)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// bindListener implements spec §4.13 step 4: bind, and on conflict either
// auto-resolve (non-interactive) or prompt (interactive), exiting nonzero
// if unresolved.
func bindListener(cfg config.Config) (net.Listener, error) {
	addr := net.JoinHostPort(cfg.ServerBind, strconv.Itoa(cfg.ServerPort))
	listener, err := net.Listen("tcp", addr)
	if err == nil {
		return listener, nil
	}
	if !isAddrInUse(err) {
		return nil, err
	}

	nonInteractive := cfg.NonInteractive || !isStdinTTY()
	log := logging.For("supervisor")
	log.Warn().Str("addr", addr).Bool("non_interactive", nonInteractive).Msg("port already in use")

	if nonInteractive {
		if killErr := killOccupant(cfg.ServerPort); killErr != nil {
			return nil, fmt.Errorf("port %d in use and automatic cleanup failed: %w", cfg.ServerPort, killErr)
		}
		time.Sleep(500 * time.Millisecond)
		return net.Listen("tcp", addr)
	}

	if !promptKill(addr) {
		return nil, fmt.Errorf("port %d in use; user declined cleanup", cfg.ServerPort)
	}
	if killErr := killOccupant(cfg.ServerPort); killErr != nil {
		return nil, fmt.Errorf("automatic cleanup failed: %w", killErr)
	}
	time.Sleep(500 * time.Millisecond)
	return net.Listen("tcp", addr)
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

func isStdinTTY() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func promptKill(addr string) bool {
	fmt.Printf("Port %s is already in use. Terminate the occupying process and continue? [y/N] ", addr)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

// killOccupant finds and terminates whatever process is bound to port,
// using the platform's socket-inspection tool (lsof on darwin, fuser on
// linux) since Go's stdlib has no portable "who holds this port" query.
func killOccupant(port int) error {
	if runtime.GOOS == "linux" {
		return exec.Command("fuser", "-k", fmt.Sprintf("%d/tcp", port)).Run()
	}
	out, err := exec.Command("lsof", "-ti", fmt.Sprintf("tcp:%d", port)).Output()
	if err != nil {
		return err
	}
	pid := strings.TrimSpace(string(out))
	if pid == "" {
		return fmt.Errorf("no process found on port %d", port)
	}
	return exec.Command("kill", "-TERM", pid).Run()
}
