package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/foliohq/folio-auth/config"
	"github.com/foliohq/folio-auth/internal/bootstrap"
	domainauth "github.com/foliohq/folio-auth/internal/domain/auth"
	"github.com/foliohq/folio-auth/internal/migrate"
	"github.com/foliohq/folio-auth/internal/ports"
	"github.com/foliohq/folio-auth/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdin  io.Reader
}

const defaultCommandTimeout = 2 * time.Minute

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger := bootstrap.InitLogger(cfg.IsDev)

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Stdin:  os.Stdin,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Authenticate and persist session credentials",
			run:         runLogin,
		},
		"signup": {
			name:        "signup",
			description: "Register a new account and start a session",
			run:         runSignup,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the current authenticated user",
			run:         runWhoami,
		},
		"status": {
			name:        "status",
			description: "Show session state (logged in, user, last error)",
			run:         runStatus,
		},
		"refresh": {
			name:        "refresh",
			description: "Exchange the stored refresh token for a new access token",
			run:         runRefresh,
		},
		"logout": {
			name:        "logout",
			description: "End the session and purge stored credentials",
			run:         runLogout,
		},
		"purge": {
			name:        "purge",
			description: "Clear local credentials without contacting the auth service",
			run:         runPurge,
		},
		"migrate": {
			name:        "migrate",
			description: "Run credential store database migrations",
			run:         runMigrate,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: folio-auth <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(os.Stdout, "  %-10s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

type loginOptions struct {
	Email    string
	Password string
}

type signupOptions struct {
	Name     string
	Email    string
	Password string
}

type purgeOptions struct {
	Yes bool
}

type migrateOptions struct {
	Timeout time.Duration
}

func runLogin(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	opts := loginOptions{}
	fs.StringVar(&opts.Email, "email", "", "account email (required)")
	fs.StringVar(&opts.Password, "password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.Email == "" {
		return errors.New("login requires -email")
	}
	if opts.Password == "" {
		password, err := promptLine(cmdCtx, "Password: ")
		if err != nil {
			return err
		}
		opts.Password = password
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	mgr, cleanup, err := bootstrap.BuildSessionManager(ctx, cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeCleanup(cmdCtx.Logger, cleanup)

	result := mgr.Login(ctx, ports.LoginInput{Email: opts.Email, Password: opts.Password})
	if !result.Success {
		return fmt.Errorf("login failed: %s", result.ErrorMessage)
	}
	return printUser(result.User)
}

func runSignup(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	opts := signupOptions{}
	fs.StringVar(&opts.Name, "name", "", "display name (required)")
	fs.StringVar(&opts.Email, "email", "", "account email (required)")
	fs.StringVar(&opts.Password, "password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.Name == "" || opts.Email == "" {
		return errors.New("signup requires -name and -email")
	}
	if opts.Password == "" {
		password, err := promptLine(cmdCtx, "Password: ")
		if err != nil {
			return err
		}
		opts.Password = password
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	mgr, cleanup, err := bootstrap.BuildSessionManager(ctx, cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeCleanup(cmdCtx.Logger, cleanup)

	result := mgr.Signup(ctx, service.SignupInput{
		Name:     opts.Name,
		Email:    opts.Email,
		Password: opts.Password,
	})
	if !result.Success {
		return fmt.Errorf("signup failed: %s", result.ErrorMessage)
	}
	return printUser(result.User)
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("whoami takes no arguments, got %q", strings.Join(args, " "))
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	mgr, cleanup, err := bootstrap.BuildSessionManager(ctx, cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeCleanup(cmdCtx.Logger, cleanup)

	snap := mgr.Bootstrap(ctx)
	if !snap.LoggedIn {
		return errors.New("not logged in")
	}
	return printUser(snap.User)
}

func runStatus(cmdCtx *commandContext, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("status takes no arguments, got %q", strings.Join(args, " "))
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	mgr, cleanup, err := bootstrap.BuildSessionManager(ctx, cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeCleanup(cmdCtx.Logger, cleanup)

	snap := mgr.Bootstrap(ctx)
	return printSnapshot(snap)
}

func runRefresh(cmdCtx *commandContext, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("refresh takes no arguments, got %q", strings.Join(args, " "))
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	mgr, cleanup, err := bootstrap.BuildSessionManager(ctx, cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeCleanup(cmdCtx.Logger, cleanup)

	mgr.Bootstrap(ctx)
	result := mgr.Refresh(ctx)
	if !result.Success {
		return fmt.Errorf("refresh failed: %s", result.ErrorMessage)
	}
	return writef(os.Stdout, "Session refreshed.\n")
}

func runLogout(cmdCtx *commandContext, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("logout takes no arguments, got %q", strings.Join(args, " "))
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	mgr, cleanup, err := bootstrap.BuildSessionManager(ctx, cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeCleanup(cmdCtx.Logger, cleanup)

	mgr.Bootstrap(ctx)
	result := mgr.Logout(ctx)
	// Give the background server-side revocation a chance to land before the
	// process exits.
	mgr.Wait()
	if !result.Success {
		return fmt.Errorf("logout failed: %s", result.Message)
	}
	return writef(os.Stdout, "%s\n", result.Message)
}

func runPurge(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	opts := purgeOptions{}
	fs.BoolVar(&opts.Yes, "yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !opts.Yes {
		answer, err := promptLine(cmdCtx, "Clear all locally stored credentials? [y/N]: ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			return errors.New("aborted")
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	mgr, cleanup, err := bootstrap.BuildSessionManager(ctx, cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeCleanup(cmdCtx.Logger, cleanup)

	mgr.ForceLogout()
	return writef(os.Stdout, "Local credentials cleared.\n")
}

func runMigrate(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "migration timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	dbCfg := cmdCtx.Config.Postgres
	dbCfg.RunMigrationsOnStart = false
	db, err := bootstrap.ConnectDB(ctx, dbCfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	cmdCtx.Logger.InfoContext(ctx, "migrations complete")
	return nil
}

func promptLine(cmdCtx *commandContext, prompt string) (string, error) {
	if err := writef(os.Stderr, "%s", prompt); err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(cmdCtx.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", errors.New("no input")
	}
	return scanner.Text(), nil
}

func printUser(user *domainauth.User) error {
	if user == nil {
		return errors.New("no user in session")
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", user.ID)
	fmt.Fprintf(w, "Email:\t%s\n", user.Email)
	fmt.Fprintf(w, "Name:\t%s\n", user.DisplayName())
	fmt.Fprintf(w, "Role:\t%s\n", user.Role)
	return w.Flush()
}

func printSnapshot(snap domainauth.Snapshot) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Logged in:\t%t\n", snap.LoggedIn)
	if snap.User != nil {
		fmt.Fprintf(w, "User:\t%s (%s)\n", snap.User.DisplayName(), snap.User.Email)
		fmt.Fprintf(w, "Role:\t%s\n", snap.User.Role)
	}
	if snap.LastError != "" {
		fmt.Fprintf(w, "Last error:\t%s\n", snap.LastError)
	}
	return w.Flush()
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func closeCleanup(logger *slog.Logger, cleanup bootstrap.CleanupFunc) {
	if err := cleanup(); err != nil {
		logger.Warn("cleanup failed", "error", err)
	}
}
