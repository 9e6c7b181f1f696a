package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/incubator-portal/internal/config"
)

// Accounts операции над учётными записями.
type Accounts interface {
	GrantRole(ctx context.Context, email, role string) error
	SetPassword(ctx context.Context, email, rawPassword string) error
}

// Backend открывает хранилище для команд.
type Backend interface {
	Migrate(ctx context.Context, cfg *config.Config) (uint, error)
	Accounts(ctx context.Context, cfg *config.Config) (Accounts, io.Closer, error)
}

func newRootCmd(backend Backend) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Обслуживание портала инкубатора",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "путь к YAML конфигу")

	loadConfig := func() (*config.Config, error) {
		if configPath == "" {
			return nil, errors.New("config path is not set: use --config or CONFIG_PATH")
		}
		return config.Load(configPath)
	}

	root.AddCommand(
		newMigrateCmd(backend, loadConfig),
		newGrantRoleCmd(backend, loadConfig),
		newSetPasswordCmd(backend, loadConfig),
	)
	return root
}

func newMigrateCmd(backend Backend, loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции схемы",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			version, err := backend.Migrate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema is at version %d\n", version)
			return nil
		},
	}
}

func newGrantRoleCmd(backend Backend, loadConfig func() (*config.Config, error)) *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "grant-role",
		Short: "Назначить роль пользователю",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAccounts(cmd, backend, loadConfig, func(accounts Accounts) error {
				if err := accounts.GrantRole(cmd.Context(), email, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", email, role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email пользователя")
	cmd.Flags().StringVar(&role, "role", "", "роль: user или admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newSetPasswordCmd(backend Backend, loadConfig func() (*config.Config, error)) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Задать пароль для входа без Google",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAccounts(cmd, backend, loadConfig, func(accounts Accounts) error {
				if err := accounts.SetPassword(cmd.Context(), email, password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email пользователя")
	cmd.Flags().StringVar(&password, "password", "", "новый пароль")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func withAccounts(cmd *cobra.Command, backend Backend, loadConfig func() (*config.Config, error), fn func(Accounts) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	accounts, closer, err := backend.Accounts(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(accounts)
}
