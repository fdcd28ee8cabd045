package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"adsdash/internal/bootstrap"
	"adsdash/internal/modules/metrics/dto"
	"adsdash/internal/platform/config"
	apperrors "adsdash/internal/platform/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(exitCode(err))
	}
}

type rootFlags struct {
	configFile string
	apiURL     string
	dataDir    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "adsdash",
		Short:         "Ads metrics dashboard for the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default <data-dir>/config.yaml)")
	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "metrics backend base URL")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "directory for the token database, log and config")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newLoginCmd(flags))
	root.AddCommand(newLogoutCmd(flags))
	root.AddCommand(newWhoAmICmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newMetricsCmd(flags))
	root.AddCommand(newConfigCmd(flags))
	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	return config.Load(config.Options{ConfigFile: flags.configFile, DataDir: flags.dataDir, APIURL: flags.apiURL})
}

func loadApp(flags *rootFlags) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

func runTUI(ctx context.Context, flags *rootFlags) error {
	app, err := loadApp(flags)
	if err != nil {
		return err
	}
	defer app.Close()
	return bootstrap.RunTUI(ctx, app)
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive dashboard (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}
}

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var email, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return fmt.Errorf("%w: --password or --password-stdin is required", apperrors.ErrInvalidInput)
			}
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.AuthCLI.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", out.User.Email, out.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.AuthCLI.Logout(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoAmICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			user, err := app.AuthCLI.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "email: %s\n", user.Email)
			if user.FullName != "" {
				_, _ = fmt.Fprintf(w, "name:  %s\n", user.FullName)
			}
			_, _ = fmt.Fprintf(w, "role:  %s\n", user.Role)
			return nil
		},
	}
}

func newSessionCmd(flags *rootFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Inspect the stored session"}
	session.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether a token is stored and when it expires",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			status, err := app.AuthCLI.Status(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !status.SignedIn {
				_, _ = fmt.Fprintln(w, "not signed in")
				return nil
			}
			_, _ = fmt.Fprintln(w, "signed in")
			if status.Subject != "" {
				_, _ = fmt.Fprintf(w, "subject: %s\n", status.Subject)
			}
			if !status.ExpiresAt.IsZero() {
				state := "valid"
				if status.Expired {
					state = "expired"
				}
				_, _ = fmt.Fprintf(w, "expires: %s (%s)\n", status.ExpiresAt.Local().Format(time.RFC3339), state)
			}
			return nil
		},
	})
	return session
}

func newMetricsCmd(flags *rootFlags) *cobra.Command {
	var startDate, endDate, sortBy, sortDir, format string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Fetch one page of metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case "table", "csv", "json":
			default:
				return fmt.Errorf("%w: format must be table, csv or json", apperrors.ErrInvalidInput)
			}
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			view, err := app.MetricsCLI.Query(cmd.Context(), startDate, endDate, sortBy, sortDir, page, pageSize)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch format {
			case "csv":
				return app.MetricsCLI.WriteCSV(w, view)
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			_, err = fmt.Fprintln(w, renderTable(view))
			return err
		},
	}
	cmd.Flags().StringVar(&startDate, "start-date", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "last day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "column to sort by")
	cmd.Flags().StringVar(&sortDir, "sort-dir", "asc", "sort direction: asc|desc")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "rows per page (default from config)")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table|csv|json")
	return cmd
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage the config file"}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags.configFile
			if path == "" {
				dir := flags.dataDir
				if dir == "" {
					dir = config.Defaults().DataDir
				}
				path = filepath.Join(dir, "config.yaml")
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}

func renderTable(view dto.ViewOutput) string {
	headers := make([]string, len(view.Columns))
	for i, c := range view.Columns {
		headers[i] = c.Label
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(view.Cells...)
	return t.String() + "\n" + view.Summary
}

func userMessage(err error) string {
	switch {
	case apperrors.IsAuth(err):
		return "authentication failed: " + apperrors.Message(err)
	case apperrors.IsRequest(err):
		return "request failed: " + apperrors.Message(err)
	case errors.Is(err, apperrors.ErrNoSession):
		return "not signed in; run `adsdash login --email <email>` first"
	}
	return err.Error()
}

func exitCode(err error) int {
	switch {
	case apperrors.IsAuth(err), errors.Is(err, apperrors.ErrNoSession):
		return 3
	case apperrors.IsRequest(err):
		return 4
	case errors.Is(err, apperrors.ErrInvalidInput):
		return 2
	}
	return 1
}
