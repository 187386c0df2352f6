// Package cli implements the settingsctl command tree.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/logging/zaplog"
	"github.com/goliatone/go-settings/pkg/provider/file"
	"github.com/goliatone/go-settings/pkg/provider/sqlstore"
)

var errNoDefaults = errors.New("settingsctl: no default settings file (set --defaults or SETTINGS_DEFAULT_PATH)")

// NewRootCommand constructs the root settingsctl command.
func NewRootCommand() *cobra.Command {
	cfg, err := LoadConfig()
	cmd := &cobra.Command{
		Use:           "settingsctl",
		Short:         "settingsctl inspects and edits layered application settings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return err
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.DefaultPath, "defaults", cfg.DefaultPath, "default settings file (read-only)")
	flags.StringVar(&cfg.UserPath, "user", cfg.UserPath, "user settings file")
	flags.StringVar(&cfg.GlobalPath, "global", cfg.GlobalPath, "global settings file")
	flags.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database for user and global settings")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newShowCommand(&cfg),
		newGetCommand(&cfg),
		newSetCommand(&cfg),
		newResetCommand(&cfg),
		newMergeCommand(&cfg),
		newTraceCommand(&cfg),
		newSchemaCommand(&cfg),
		newEvalCommand(&cfg),
	)
	return cmd
}

// session is a loaded manager plus the resources to release afterwards.
type session struct {
	manager *settings.Manager
	closers []func() error
	logger  *zap.Logger
}

func (s *session) Close() error {
	var errs []error
	for _, closer := range s.closers {
		errs = append(errs, closer())
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
	return errors.Join(errs...)
}

func openSession(cfg *Config) (*session, error) {
	if cfg.DefaultPath == "" {
		return nil, errNoDefaults
	}
	logger, base, err := zaplog.New(zaplog.Config{Level: cfg.LogLevel, Development: cfg.LogDev})
	if err != nil {
		return nil, fmt.Errorf("settingsctl: logger: %w", err)
	}
	s := &session{logger: base}

	defaults, err := file.New(cfg.DefaultPath, file.WithReadOnly())
	if err != nil {
		return nil, err
	}
	builder := settings.NewBuilder().
		WithLogger(logger).
		WithProvider(settings.ScopeDefault, defaults)

	if cfg.DatabasePath != "" {
		store, err := sqlstore.Open(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		builder.WithProvider(settings.ScopeUser, store.Provider(settings.ScopeUser.String())).
			WithProvider(settings.ScopeGlobal, store.Provider(settings.ScopeGlobal.String()))
	}
	for scope, path := range map[settings.Scope]string{settings.ScopeUser: cfg.UserPath, settings.ScopeGlobal: cfg.GlobalPath} {
		if path == "" {
			continue
		}
		p, err := file.New(path)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		builder.WithProvider(scope, p)
	}

	manager, err := builder.Build()
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := manager.Load(); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.manager = manager
	return s, nil
}

func withSession(cfg *Config, fn func(*settings.Manager) error) error {
	s, err := openSession(cfg)
	if err != nil {
		return err
	}
	runErr := fn(s.manager)
	return errors.Join(runErr, s.Close())
}

func writeJSON(w io.Writer, value any) error {
	data, err := sonic.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
