package main

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vitalbridge/vitalbridge/internal/api"
	"github.com/vitalbridge/vitalbridge/internal/catalog"
	"github.com/vitalbridge/vitalbridge/internal/config"
	"github.com/vitalbridge/vitalbridge/internal/connection"
	"github.com/vitalbridge/vitalbridge/internal/fetch"
	"github.com/vitalbridge/vitalbridge/internal/healthstore"
	"github.com/vitalbridge/vitalbridge/internal/state"
	"github.com/vitalbridge/vitalbridge/internal/syncer"
	"github.com/vitalbridge/vitalbridge/internal/uploader"
	"github.com/vitalbridge/vitalbridge/internal/window"
)

// app is the fully wired sync stack shared by all commands.
type app struct {
	cfg     *config.Config
	state   *state.Store
	health  *healthstore.FileStore
	client  *api.Client
	syncer  *syncer.Syncer
	manager *connection.Manager
	logger  *log.Logger
}

// buildApp loads configuration and wires the stack. Callers must Close.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api_base_url is required (set VB_API_BASE_URL or the config file)")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api_key is required")
	}
	if cfg.UserUUID == "" {
		return nil, fmt.Errorf("user_uuid is required")
	}
	keys, err := cfg.SyncKeys()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	stateStore, err := state.Open(cfg.StateDBPath)
	if err != nil {
		return nil, err
	}
	if err := stateStore.InitSchema(); err != nil {
		stateStore.Close()
		return nil, err
	}
	deviceID, err := stateStore.DeviceID()
	if err != nil {
		stateStore.Close()
		return nil, err
	}

	samplesDir := cfg.SamplesDir
	if samplesDir == "" {
		samplesDir = filepath.Join(filepath.Dir(cfg.StateDBPath), "samples")
	}
	health, err := healthstore.NewFileStore(samplesDir, logger)
	if err != nil {
		stateStore.Close()
		return nil, err
	}

	client := api.NewClient(api.Config{
		BaseURL:  cfg.APIBaseURL,
		APIKey:   cfg.APIKey,
		UserUUID: cfg.UserUUID,
		Platform: cfg.Platform,
		DeviceID: deviceID,
		Timeout:  30 * time.Second,
		Logger:   logger,
	})

	up := uploader.New(client, stateStore, cfg.DataSource, "", logger)
	sync, err := syncer.New(syncer.Config{
		State:    stateStore,
		Fetcher:  fetch.New(health, logger),
		Uploader: up,
		Policy:   window.Policy{BackfillDays: cfg.BackfillDays},
		Keys:     keys,
		Logger:   logger,
	})
	if err != nil {
		health.Close()
		stateStore.Close()
		return nil, err
	}

	manager, err := connection.NewManager(connection.Config{
		API:        client,
		Health:     health,
		State:      stateStore,
		Syncer:     sync,
		APIKey:     cfg.APIKey,
		UserUUID:   cfg.UserUUID,
		ReadKeys:   keys,
		TriggerKey: triggerKey(keys),
		Logger:     logger,
	})
	if err != nil {
		health.Close()
		stateStore.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		state:   stateStore,
		health:  health,
		client:  client,
		syncer:  sync,
		manager: manager,
		logger:  logger,
	}, nil
}

// Close releases the app's resources in reverse wiring order.
func (a *app) Close() {
	a.manager.Close()
	if err := a.health.Close(); err != nil {
		a.logger.Printf("WARNING: failed to close health store: %v", err)
	}
	if err := a.state.Close(); err != nil {
		a.logger.Printf("WARNING: failed to close state store: %v", err)
	}
}

// newLogger writes to the rotating log file when configured, stderr
// otherwise.
func newLogger(cfg *config.Config) *log.Logger {
	var out io.Writer = log.Writer()
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	return log.New(out, "[vb] ", log.LstdFlags)
}

// triggerKey picks the observed data type: the first configured key.
func triggerKey(keys []catalog.Key) catalog.Key {
	return keys[0]
}
