package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/MJE43/reelspin/internal/config"
	"github.com/MJE43/reelspin/internal/credentials"
	"github.com/MJE43/reelspin/internal/outcome"
	"github.com/MJE43/reelspin/internal/outcomehttp"
	"github.com/MJE43/reelspin/internal/reel"
	"github.com/MJE43/reelspin/internal/render"
	"github.com/MJE43/reelspin/internal/spin"
)

const (
	appConfigDirName = "reelspin"
	tokenFileName    = "tokens.json"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	envPath := flag.String("env", ".env", "path to a .env file (ignored when missing)")
	serve := flag.Bool("serve-outcomes", false, "run the local outcome server and play against it")
	storeToken := flag.String("store-token", "", "save an endpoint token in the OS keyring and exit")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Fatalf("env load failed: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *serve {
		cfg.DevServer.Enabled = true
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *storeToken); err != nil {
		logger.Error("reelspin exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger, storeToken string) error {
	logger.Info("starting reelspin", zap.String("go", runtime.Version()))

	creds := credentials.NewKeyringStore(appConfigDirName, filepath.Join(appDataDir(), tokenFileName))
	if storeToken != "" {
		if err := creds.SetToken(cfg.Endpoint.Profile, storeToken); err != nil {
			return err
		}
		logger.Info("endpoint token stored", zap.String("profile", cfg.Endpoint.Profile))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := cfg.Generator(nil)
	if err != nil {
		return err
	}

	if cfg.DevServer.Enabled {
		srv, err := startOutcomeServer(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("outcome server shutdown error", zap.Error(err))
			}
		}()
		cfg.Endpoint.BaseURL = srv.URL()
		if cfg.Endpoint.Token == "" {
			cfg.Endpoint.Token = cfg.DevServer.Token
		}
	}

	token, err := creds.Resolve(cfg.Endpoint.Profile, cfg.Endpoint.Token)
	if err != nil {
		logger.Warn("token lookup failed, continuing without one", zap.Error(err))
	}
	ocfg := cfg.OutcomeConfig(token, logger)
	ocfg.RefreshToken = func() (string, error) {
		return creds.Resolve(cfg.Endpoint.Profile, "")
	}
	client := outcome.NewClient(ocfg)
	logger.Info("outcome endpoint", zap.String("url", client.URL()), zap.Bool("token", token != ""))

	grid, err := reel.NewGrid(cfg.ReelConfig(), gen)
	if err != nil {
		return err
	}

	screen := reel.Geometry{Width: float64(cfg.Window.Width), Height: float64(cfg.Window.Height)}
	game := render.NewGame(ctx, render.Options{
		Screen: screen,
		TPS:    cfg.Window.TPS,
		Assets: render.NewAssets(int(cfg.Grid.SymbolWidth), int(cfg.Grid.Pitch), nil),
		Logger: logger,
	})
	ctrl, err := spin.NewController(cfg.SpinConfig(), grid, client, game, logger)
	if err != nil {
		return err
	}
	defer ctrl.Close()
	game.Bind(ctrl)

	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Window.TPS)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game: %w", err)
	}
	logger.Info("reelspin exited normally")
	return nil
}

func startOutcomeServer(cfg config.Config, logger *zap.Logger) (*outcomehttp.Server, error) {
	gen, err := cfg.Generator(nil)
	if err != nil {
		return nil, err
	}
	srv, err := outcomehttp.New(gen, outcomehttp.Options{
		Addr:   cfg.DevServer.Addr,
		Token:  cfg.DevServer.Token,
		Reels:  cfg.Grid.Reels,
		Delay:  cfg.DevServer.Delay,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	if err := srv.Start(); err != nil {
		return nil, err
	}
	return srv, nil
}

// appDataDir returns an OS-appropriate writable directory.
func appDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, appConfigDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+appConfigDirName)
	}
	return "."
}
