package commands

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/api"
	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

func CreateServiceCommand() *ServiceCommand {
	sc := &ServiceCommand{
		fs: flag.NewFlagSet("service", flag.ExitOnError),
	}

	sc.fs.BoolVar(&sc.DisableAPI, "no-api", false, "Do not start the HTTP API server")

	return sc
}

type ServiceCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config
	ctx *AppContext

	DisableAPI bool

	builder      *allowlist.Builder
	configHasher *config.ConfigHasher
	updater      *AutoUpdater
	apiServer    *api.Server

	// Runners for crash isolation
	apiRunner     *RestartableRunner
	updaterRunner *RestartableRunner
}

func (s *ServiceCommand) Name() string {
	return s.fs.Name()
}

func (s *ServiceCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath); err != nil {
		return err
	} else {
		s.cfg = cfg
	}

	s.builder = newBuilder(s.cfg, ctx)

	s.configHasher = config.NewConfigHasher(ctx.ConfigPath)
	if hash, err := config.CalculateHash(s.cfg); err == nil {
		s.configHasher.SetActiveConfigHash(hash)
	}

	interval := time.Duration(0)
	if s.cfg.AutoUpdate.Enabled {
		interval = s.cfg.AutoUpdateInterval()
	}
	s.updater = NewAutoUpdater(ctx.ConfigPath, s.builder, s.configHasher, interval)

	return nil
}

func (s *ServiceCommand) Run() error {
	log.Infof("Starting geoip-allow service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	s.updaterRunner = NewRestartableRunner(RunnerConfig{
		Name:           "Auto-update",
		RestartBackoff: 5 * time.Second,
		MaxBackoff:     5 * time.Minute,
	}, s.updater.Run)
	if err := s.updaterRunner.Start(ctx); err != nil {
		return err
	}

	if !s.DisableAPI {
		s.startAPIServer(ctx)
	} else {
		log.Infof("REST API is disabled")
	}

	log.Infof("Service started successfully.")
	log.Infof("Send SIGHUP to force a rebuild")

	for sig := range sigChan {
		switch sig {
		case syscall.SIGHUP:
			log.Infof("Received SIGHUP signal, rebuilding block...")
			s.updater.TriggerRebuild()

		case syscall.SIGINT, syscall.SIGTERM:
			log.Infof("Received signal %v, shutting down...", sig)
			return s.shutdown()
		}
	}
	return nil
}

// startAPIServer starts the HTTP API server under a restartable runner.
func (s *ServiceCommand) startAPIServer(ctx context.Context) {
	bindAddr := s.cfg.API.ListenAddr
	log.Infof("API access restricted to: %s", strings.Join(s.cfg.API.AllowedSubnets, ", "))

	s.apiServer = api.NewServer(bindAddr, s.builder, s.configHasher, s.ctx.Version)

	s.apiRunner = NewRestartableRunner(RunnerConfig{
		Name:           "API server",
		MaxRestarts:    0, // Unlimited restarts
		RestartBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	}, func(runCtx context.Context) error {
		return s.apiServer.Start()
	})

	if err := s.apiRunner.Start(ctx); err != nil {
		log.Errorf("Failed to start API server: %v", err)
	}
}

// shutdown performs graceful shutdown of all components.
func (s *ServiceCommand) shutdown() error {
	if s.apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.apiServer.Stop(shutdownCtx); err != nil {
			log.Errorf("Error during API server shutdown: %v", err)
		}
	}
	if s.apiRunner != nil {
		if err := s.apiRunner.Stop(); err != nil {
			log.Errorf("Failed to stop API server: %v", err)
		}
	}
	if s.updaterRunner != nil {
		if err := s.updaterRunner.Stop(); err != nil {
			log.Errorf("Failed to stop auto-update: %v", err)
		}
	}

	log.Infof("Service stopped successfully")
	return nil
}
