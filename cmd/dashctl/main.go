// Command dashctl drives the scoring backend from a terminal: log in, list the
// flagged transactions with the same filters as the web view, clear them or
// upload a new CSV batch.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"anomalyse_dashboard/internal/dashboard"
	"anomalyse_dashboard/internal/gateway"
	"anomalyse_dashboard/internal/logger"
	"anomalyse_dashboard/internal/service"
	"anomalyse_dashboard/internal/session"
	"anomalyse_dashboard/internal/view"

	"github.com/joho/godotenv"
)

const usage = `usage: dashctl <command> [flags]

commands:
  login    -email <email> [-password <password>]
  logout
  list     [-search s] [-reason r] [-flag-type t] [-sort key] [-dir asc|desc] [-json]
  clear    [-yes]
  upload   <file.csv>
  metrics
`

type app struct {
	auth    *session.Auth
	backend *gateway.Client
}

func main() {
	_ = godotenv.Load()
	logger.Init(envOr("LOG_LEVEL", "warn"), os.Getenv("LOG_JSON") == "true")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8000"
	}

	store := session.NewFileStore(envOr("DASHCTL_SESSION", defaultSessionPath()))
	auth := session.NewAuth(store, service.NewTokenReader(os.Getenv("JWT_SECRET")))
	backend := gateway.NewClient(backendURL, 30*time.Second, store)
	backend.OnUnauthorized = func(ctx context.Context) {
		auth.Teardown(ctx)
		fmt.Fprintln(os.Stderr, "session expired, run dashctl login again")
	}
	a := &app{auth: auth, backend: backend}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = a.login(ctx, args)
	case "logout":
		auth.Teardown(ctx)
	case "list":
		err = a.list(ctx, args)
	case "clear":
		err = a.clear(ctx, args)
	case "upload":
		err = a.upload(ctx, args)
	case "metrics":
		err = a.metrics(ctx)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".dashctl-session.json"
	}
	return filepath.Join(dir, "dashctl", "session.json")
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", os.Getenv("DASHCTL_EMAIL"), "analyst email")
	password := fs.String("password", os.Getenv("DASHCTL_PASSWORD"), "analyst password")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		return errors.New("email and password are required")
	}

	token, err := a.backend.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	user, err := a.auth.Login(ctx, token, *email)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", user.Email)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	search := fs.String("search", "", "substring of transaction id or user id")
	reason := fs.String("reason", "", "exact flag reason")
	flagType := fs.String("flag-type", "", "exact flag type")
	sortKey := fs.String("sort", "", "sort column: "+joinKeys())
	dir := fs.String("dir", "asc", "sort direction")
	asJSON := fs.Bool("json", false, "print rows as JSON")
	_ = fs.Parse(args)

	d := view.NewDashboard(a.backend)
	if err := d.Mount(ctx); err != nil {
		return err
	}
	d.SetSearch(*search)
	d.SetReason(*reason)
	d.SetFlagType(*flagType)
	if *sortKey != "" {
		k, err := dashboard.ParseSortKey(*sortKey)
		if err != nil {
			return fmt.Errorf("%w: %q (one of %s)", err, *sortKey, joinKeys())
		}
		d.SetSort(dashboard.SortSpec{Key: k, Direction: dashboard.ParseDirection(*dir)})
	}

	snap := d.Snapshot()
	if *asJSON {
		return printJSON(os.Stdout, snap.Rows)
	}
	return printRows(os.Stdout, snap)
}

func (a *app) clear(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args)

	if !*yes && !confirm("Delete all transactions?") {
		return nil
	}

	res, err := view.NewDashboard(a.backend).Clear(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	fmt.Printf("Deleted %d transactions\n", res.Deleted)
	return nil
}

func (a *app) upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("upload takes exactly one file")
	}
	path := args[0]
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return errors.New("only CSV files are supported")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := a.backend.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d rows)\n", res.Message, res.RowsProcessed)
	return nil
}

func (a *app) metrics(ctx context.Context) error {
	m, err := a.backend.Metrics(ctx)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, m)
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	var answer string
	_, _ = fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func joinKeys() string {
	keys := dashboard.SortKeys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return strings.Join(out, ", ")
}
