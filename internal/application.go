package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/unitefour/unite4/internal/apperror"
	"github.com/unitefour/unite4/internal/bridge"
	"github.com/unitefour/unite4/internal/client"
	"github.com/unitefour/unite4/internal/config"
	"github.com/unitefour/unite4/internal/identity"
	"github.com/unitefour/unite4/internal/match"
	"github.com/unitefour/unite4/internal/relay"
	"github.com/unitefour/unite4/internal/repository"
	"github.com/unitefour/unite4/internal/repository/storage"
	"github.com/unitefour/unite4/internal/session"
	"github.com/unitefour/unite4/internal/transport/relayactor"
)

// RunApp - runs the client: settings, identity, the relay actor in the
// background and the frame loop in the foreground.
func RunApp(logger *slog.Logger, conf *config.Config, gameID string) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	settingsStorage, err := storage.NewSQLiteStorage(conf.SettingsPath)
	if err != nil {
		return fmt.Errorf("could not open settings storage: %w", err)
	}

	defer func() {
		if err = settingsStorage.Close(); err != nil {
			log.Error("could not close settings storage", "error", err)
		}
	}()

	if err = settingsStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init settings storage: %w", err)
	}

	settings := repository.NewSettingsRepository(settingsStorage.Connection)

	id, err := loadIdentity(ctx, settings)
	if err != nil {
		return fmt.Errorf("could not load identity: %w", err)
	}

	localName := readSetting(ctx, log, settings, repository.KeyUsername, "")
	relayAddrs := strings.Split(readSetting(ctx, log, settings, repository.KeyRelays, conf.Relays), ",")

	tag := session.GameTag(conf.AppDomain, gameID)
	log.Info("starting session", "tag", tag, "pubkey", id.PublicKey())

	br := bridge.New(conf.QueueCapacity)
	sess := session.New(logger, br, id, tag, localName)

	pool := relay.NewPool(logger)
	if err = pool.Connect(ctx, relayAddrs); err != nil {
		// A relayless session still renders; it just never pairs.
		log.Error("no relays reachable, continuing degraded", "error", err)
		br.PushNotice("could not reach any relay")
	}
	defer pool.Close()

	actor := relayactor.New(logger, pool, br, id, tag, localName, conf.BacklogTimeout)
	go actor.Run(ctx)

	ui := client.New(logger, sess, br)
	if err = ui.Run(ctx); err != nil {
		return fmt.Errorf("frame loop error: %w", err)
	}

	if sess.Role() == match.RoleRejected {
		log.Info("session ended as a rejected third party")
	}

	return nil
}

// loadIdentity - restores the persisted keypair, creating and persisting a
// fresh one on first run.
func loadIdentity(ctx context.Context, settings repository.SettingsRepository) (*identity.Identity, error) {
	seed, err := settings.Get(ctx, repository.KeyIdentitySeed)
	if err == nil {
		return identity.FromSeed(seed)
	}

	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	id, err := identity.New()
	if err != nil {
		return nil, err
	}

	if err = settings.Set(ctx, repository.KeyIdentitySeed, id.Seed()); err != nil {
		return nil, err
	}

	return id, nil
}

// readSetting - reads one optional setting, tolerating absence with a
// fallback.
func readSetting(ctx context.Context, log *slog.Logger, settings repository.SettingsRepository, key, fallback string) string {
	value, err := settings.Get(ctx, key)
	if errors.Is(err, apperror.ErrNotFound) {
		log.Info("setting not found, using default", "key", key)
		return fallback
	}
	if err != nil {
		log.Error("could not read setting", "key", key, "error", err)
		return fallback
	}

	return value
}
