// Package cli implements noteguardctl, the operator tool for migrations,
// manual sweeps, expiry reports, admin bootstrap and event tailing.
package cli

import (
	"fmt"

	"noteguard-be/internal/config"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/internal/repository/unitofwork"
	"noteguard-be/internal/service"
	"noteguard-be/pkg/cipher"
	"noteguard-be/pkg/clock"
	"noteguard-be/pkg/metrics"

	"github.com/spf13/cobra"
)

// StorageOpener matches bootstrap.OpenStorage.
type StorageOpener func(cfg *config.Config) (unitofwork.RepositoryFactory, func() error, error)

type Options struct {
	Config  *config.Config
	Clock   clock.Clock
	Logger  logger.ILogger
	Storage StorageOpener
}

type services struct {
	cleanup service.ICleanupService
	auth    service.IAuthService
	admin   service.IAdminService
	close   func() error
}

func NewRootCmd(opts Options) *cobra.Command {
	root := &cobra.Command{
		Use:   "noteguardctl",
		Short: "Operate a NoteGuard deployment",
		Long: `noteguardctl runs maintenance tasks against the configured database.

It reads the same environment (and .env file) as the REST server.

Examples:
  # Create or update the schema
  noteguardctl migrate

  # Remove expired notes and share links now
  noteguardctl sweep

  # How many notes expire in the next two days
  noteguardctl expiring --hours 48

  # Bootstrap the first administrator
  noteguardctl create-admin --username root --email root@example.com --password 's3cret-pass'

  # Tail lifecycle events from NATS
  noteguardctl watch`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCmd(opts),
		newSweepCmd(opts),
		newExpiringCmd(opts),
		newStatsCmd(opts),
		newCreateAdminCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// openServices validates the configuration and builds the services the
// maintenance commands need. Events are not published from the CLI.
func openServices(opts Options) (*services, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	noteCipher, err := cipher.New(opts.Config.Security.EncryptionKey)
	if err != nil {
		return nil, err
	}

	factory, closeStorage, err := opts.Storage(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	collector := metrics.NewCollector("noteguardctl")
	publisher := service.NewNopPublisher()

	return &services{
		cleanup: service.NewCleanupService(factory, opts.Clock, nil, publisher, collector, opts.Logger, opts.Config.Cleanup.Interval),
		auth:    service.NewAuthService(factory, opts.Clock, opts.Logger, opts.Config.Security.JWTSecret, opts.Config.Security.JWTExpiration),
		admin:   service.NewAdminService(factory, noteCipher, opts.Clock, publisher, collector, opts.Logger),
		close:   closeStorage,
	}, nil
}

func withServices(opts Options, fn func(cmd *cobra.Command, svc *services) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(opts)
		if err != nil {
			return err
		}
		defer func() { _ = svc.close() }()

		return fn(cmd, svc)
	}
}
