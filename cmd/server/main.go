package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wiremsg-server/internal/app"
	"github.com/vovakirdan/wiremsg-server/internal/config"
	"github.com/vovakirdan/wiremsg-server/internal/log"
	"github.com/vovakirdan/wiremsg-server/internal/service/users"
)

type rootOptions struct {
	configPath string
	logLevel   string
	addr       string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "wiremsg",
		Short:        "Authenticated direct messaging API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serve.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address")

	root.AddCommand(serve, newMigrateCommand(opts), newCreateUserCommand(opts), newUsersCommand(opts))
	return root
}

// setup loads configuration and builds the logger. CLI flags win over every other source.
func setup(opts *rootOptions) (*config.Config, *zerolog.Logger, error) {
	bootstrap := log.New(opts.logLevel)

	cfg, path, err := config.Load(bootstrap, opts.configPath)
	if err != nil {
		return nil, bootstrap, err
	}
	cfg.UpdateFrom(config.Config{Addr: opts.addr, LogLevel: opts.logLevel})

	logger := log.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return &cfg, logger, nil
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize app")
		return err
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			st, err := app.OpenStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return st.Close()
		},
	}
}

func newCreateUserCommand(opts *rootOptions) *cobra.Command {
	var (
		username string
		password string
		staff    bool
	)

	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App) error {
				user, err := a.Users.CreateAccount(ctx, users.Input{Username: &username, Password: &password}, staff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %q (id %d, staff %t)\n", user.Username, user.ID, user.IsStaff)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().BoolVar(&staff, "staff", false, "grant staff status")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App) error {
				all, err := a.Users.ListAll(ctx)
				if err != nil {
					return err
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.SetHeader([]string{"ID", "Username", "Staff", "Joined"})
				table.SetAutoFormatHeaders(true)
				table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
				table.SetAlignment(tablewriter.ALIGN_LEFT)
				table.SetBorder(false)
				for _, u := range all {
					table.Append([]string{
						strconv.FormatInt(u.ID, 10),
						u.Username,
						strconv.FormatBool(u.IsStaff),
						u.DateJoined.Format("2006-01-02 15:04"),
					})
				}
				table.Render()
				return nil
			})
		},
	}

	var revoke bool
	setStaff := &cobra.Command{
		Use:   "set-staff <username>",
		Short: "Grant or revoke staff status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App) error {
				user, err := a.Users.SetStaff(ctx, args[0], !revoke)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %q staff=%t\n", user.Username, user.IsStaff)
				return nil
			})
		},
	}
	setStaff.Flags().BoolVar(&revoke, "revoke", false, "remove staff status instead of granting it")

	cmd.AddCommand(list, setStaff)
	return cmd
}

// withApp builds the application without serving and closes it when fn returns.
func withApp(ctx context.Context, opts *rootOptions, fn func(context.Context, *app.App) error) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		logger.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}
