package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/obsidianwallet/obsidian-wallet-client/api"
	"github.com/obsidianwallet/obsidian-wallet-client/bridge"
	"github.com/obsidianwallet/obsidian-wallet-client/common"
	"github.com/obsidianwallet/obsidian-wallet-client/database"
	"github.com/obsidianwallet/obsidian-wallet-client/session"
)

// WalletController owns every long-lived component and tears them down in
// reverse order.
type WalletController struct {
	cfg  common.Config
	db   database.DB
	orch *session.Orchestrator
	apis *api.APIService
	cron *cron.Cron
}

func NewWalletController(cfg common.Config) (*WalletController, error) {
	db, err := database.NewBadgerDB(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	w, err := newWalletController(cfg, db, bridge.NewClient(cfg.BridgeURL, cfg.RequestTimeout))
	if err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func newWalletController(cfg common.Config, db database.DB, b bridge.Bridge) (*WalletController, error) {
	orch := session.NewOrchestrator(b, db)
	w := &WalletController{
		cfg:  cfg,
		db:   db,
		orch: orch,
		apis: api.InitAPIService(cfg.ServingAddress, orch),
	}
	if cfg.BalanceRefresh != "" {
		w.cron = cron.New()
		if _, err := w.cron.AddFunc(cfg.BalanceRefresh, w.refreshBalance); err != nil {
			orch.Stop()
			return nil, fmt.Errorf("invalid balance refresh schedule %q: %w", cfg.BalanceRefresh, err)
		}
	}
	return w, nil
}

func (w *WalletController) refreshBalance() {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.RequestTimeout)
	defer cancel()
	err := w.orch.RefreshBalance(ctx)
	if err != nil && !errors.Is(err, session.ErrNotLoggedIn) {
		log.Warn().Err(err).Msg("periodic balance refresh failed")
	}
}

// Start reads the app environment and starts the refresh schedule. A missing
// environment only disables the admin features.
func (w *WalletController) Start(ctx context.Context) error {
	if err := w.orch.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("continuing without app environment")
	}
	if w.cron != nil {
		w.cron.Start()
	}
	return nil
}

func (w *WalletController) Serve() error {
	return w.apis.Serve()
}

func (w *WalletController) Stop(ctx context.Context) error {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
	err := w.apis.Shutdown(ctx)
	w.orch.Stop()
	return errors.Join(err, w.db.Close())
}
