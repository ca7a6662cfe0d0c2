package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/config"
	"github.com/nichelink/gateway/onboarding"
	"github.com/nichelink/gateway/server"
	"github.com/nichelink/gateway/server/authflowrepo"
	"github.com/nichelink/gateway/sessions"
	"github.com/nichelink/gateway/subscription"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sessionSweepInterval is how often expired session rows are reclaimed
// from the durable store.
const sessionSweepInterval = time.Hour

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running gateway")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("gateway stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	// Missing .env is fine; the environment may already be populated
	_ = godotenv.Load()

	c := config.New()
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	srv, err := buildServer(c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config) (*server.Server, error) {
	dataFolder := c.GetDataFolder()
	if err := os.MkdirAll(dataFolder, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data folder")
	}

	sessionRepo, err := sessions.NewSQLiteRepo(filepath.Join(dataFolder, "sessions.db"))
	if err != nil {
		return nil, errors.Wrap(err, "open session store")
	}
	draftRepo, err := onboarding.NewSQLiteRepo(filepath.Join(dataFolder, "onboarding.db"))
	if err != nil {
		return nil, errors.Wrap(err, "open onboarding store")
	}

	backend := identity.NewClient(c.GetIdentityAPIURL(), c.GetIdentityTimeout())

	store, err := sessions.NewStore(sessionRepo, c.GetDefaultSessionExpiry())
	if err != nil {
		return nil, err
	}
	store.StartSweeper(sessionSweepInterval)
	wizard, err := onboarding.NewOrchestrator(draftRepo, backend)
	if err != nil {
		return nil, err
	}
	subGate, err := subscription.NewGate(backend)
	if err != nil {
		return nil, err
	}

	return server.New(c, backend, store, wizard, subGate, authflowrepo.NewInMemoryRepo())
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) error {
	log.Info().Str("addr", httpServer.Addr).Msg("gateway listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
