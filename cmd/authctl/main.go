// Command authctl signs in to the auth backend from a terminal. Credentials
// are kept in a local sqlite file between invocations.
//
// Usage:
//
//	authctl [-api URL] [-db PATH] <command> [flags]
//
// Commands: login, register, logout, me, refresh, users.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/starterkit/webapp/internal/client/apiclient"
	"github.com/starterkit/webapp/internal/client/auth"
	"github.com/starterkit/webapp/internal/client/credential"
	"github.com/starterkit/webapp/internal/client/session"
	"github.com/starterkit/webapp/internal/client/users"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/infrastructure/db/sqlite"
	"github.com/starterkit/webapp/internal/pkg/config"
	"github.com/starterkit/webapp/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.LoginRequired {
			fmt.Fprintln(os.Stderr, "error:", apiErr.Message, "(run `authctl login`)")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

type app struct {
	flow  *auth.Flow
	users *users.Client
	out   io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	global := flag.NewFlagSet("authctl", flag.ContinueOnError)
	apiURL := global.String("api", cfg.Client.APIURL, "auth API base URL")
	dbPath := global.String("db", cfg.CLI.DBPath, "credential database")
	verbose := global.Bool("v", false, "log requests to stderr")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	level := cfg.LogLevel
	if !*verbose {
		level = "warn"
	}
	log := logger.New(logger.Options{Level: level, Pretty: true, Service: "authctl", Output: os.Stderr})

	store, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	vault := credential.NewVault(store)
	sess := session.New(session.DefaultStaleTime)
	gw := auth.NewGateway(apiclient.Options{BaseURL: *apiURL, Timeout: cfg.Client.Timeout, Log: log}, vault, sess)
	a := &app{
		flow:  auth.New(gw, vault, sess, log),
		users: users.New(gw),
		out:   out,
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "logout":
		if err := a.flow.Logout(ctx); err != nil {
			return err
		}
		return a.print(map[string]string{"message": "Logged out"})
	case "me":
		id, err := a.flow.CurrentIdentity(ctx)
		if err != nil {
			return err
		}
		return a.print(id)
	case "refresh":
		id, err := a.flow.Refresh(ctx)
		if err != nil {
			return err
		}
		return a.print(id)
	case "users":
		return a.listUsers(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	var in domain.LoginCredentials
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Password, "password", "", "account password")
	fs.BoolVar(&in.RememberMe, "remember", false, "ask for a long lived session")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := a.flow.Login(ctx, in)
	if err != nil {
		return err
	}
	return a.print(id)
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	in := domain.Registration{AcceptTerms: true}
	fs.StringVar(&in.Name, "name", "", "display name")
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Password, "password", "", "account password")
	fs.StringVar(&in.ConfirmPassword, "confirm", "", "password confirmation (defaults to -password)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if in.ConfirmPassword == "" {
		in.ConfirmPassword = in.Password
	}

	id, err := a.flow.Register(ctx, in)
	if err != nil {
		return err
	}
	return a.print(id)
}

func (a *app) listUsers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 10, "page size")
	search := fs.String("search", "", "filter by email or name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := a.users.List(ctx, *page, *limit, *search)
	if err != nil {
		return err
	}
	return a.print(list)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
