package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/sodachi/mangetsu/internal/config"
	"github.com/sodachi/mangetsu/internal/km"
	"github.com/sodachi/mangetsu/internal/mu"
	"github.com/sodachi/mangetsu/internal/session"
	"github.com/sodachi/mangetsu/internal/ui"
)

func loadConfig() (*config.Config, string, error) {
	return config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		Output:       flagOutput,
		SessionDir:   flagSessionDir,
	})
}

// setup resolves the pieces almost every command needs.
func setup() (*config.Config, *zap.Logger, *session.Store, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := ui.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := session.NewStore(session.Options{Dir: cfg.SessionDir, Logger: log})
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, log, store, nil
}

func describeKM(cfg km.Config) string {
	switch c := cfg.(type) {
	case *km.ConfigWeb:
		return fmt.Sprintf("%s  [web]  %s", c.ID, c.Email)
	case *km.ConfigMobile:
		return fmt.Sprintf("%s  [mobile]  %s", c.ID, c.Email)
	default:
		return cfg.AccountKey()
	}
}

// pickKMAccount resolves which saved KM session to use. An explicit id
// wins; a single saved account is used as-is; otherwise the user picks.
func pickKMAccount(store *session.Store, accountID string) (km.Config, error) {
	if accountID != "" {
		return store.LoadKM(accountID)
	}

	all, err := store.LoadAllKM()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no KM accounts saved, run `mangetsu km auth` first")
	}
	if len(all) == 1 {
		return all[0], nil
	}

	items := make([]string, len(all))
	for i, cfg := range all {
		items[i] = describeKM(cfg)
	}

	prompt := promptui.Select{
		Label: "Select KM account",
		Items: items,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled")
	}

	return all[idx], nil
}

func pickMUAccount(store *session.Store, accountID string) (*session.MUSession, error) {
	if accountID != "" {
		return store.LoadMU(accountID)
	}

	all, err := store.LoadAllMU()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no MU accounts saved, run `mangetsu mu auth` first")
	}
	if len(all) == 1 {
		return all[0], nil
	}

	items := make([]string, len(all))
	for i, sess := range all {
		items[i] = fmt.Sprintf("%s  [%s]", sess.ID, platformName(sess.Device))
	}

	prompt := promptui.Select{
		Label: "Select MU account",
		Items: items,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled")
	}

	return all[idx], nil
}

func platformName(p mu.Platform) string {
	if p == mu.PlatformApple {
		return "ios"
	}
	return "android"
}

// newKMClient builds an authenticated client. Rotated web cookies are
// written back to the store so the next run keeps the fresh session.
func newKMClient(store *session.Store, cfg km.Config, log *zap.Logger) (*km.Client, error) {
	return km.NewClient(km.ClientOptions{
		Config: cfg,
		Logger: log,
		OnSessionRefresh: func(web *km.ConfigWeb) {
			if err := store.SaveKM(web); err != nil {
				log.Warn("failed to persist refreshed session", zap.Error(err))
			}
		},
	})
}

func newMUClient(sess *session.MUSession, log *zap.Logger) (*mu.Client, error) {
	return mu.NewClient(mu.ClientOptions{
		Secret:   sess.Session,
		Platform: sess.Device,
		Logger:   log,
	})
}
