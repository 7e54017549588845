package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/mcpserver"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// No config file is fine; defaults target the local stub backend.
		return cfg, nil
	}
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// buildApp constructs the session context and restores any persisted session.
func buildApp(ctx context.Context, cmd *cli.Command) (*internal.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	app, err := internal.NewApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Startup(ctx)
	return app, nil
}

func requireSession(app *internal.App) error {
	if !app.Session.Authenticated() {
		return fmt.Errorf("not logged in; run the login command first")
	}
	return nil
}

func runLogin(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	user, err := app.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s, tenant %s)\n", user.Email, user.Role, user.TenantID)
	return nil
}

func runLogout(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	app.Logout()
	fmt.Println("logged out")
	return nil
}

func runWhoami(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	user := app.Session.Current()
	if user == nil {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s (%s, tenant %s)\n", user.Email, user.Role, user.TenantID)
	return nil
}

func runNotesList(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	if err := requireSession(app); err != nil {
		return err
	}
	notes, err := app.Notes.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tTITLE")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.CreatedAt.Format("2006-01-02 15:04"), n.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	flags := app.Gate()
	if flags.QuotaReached {
		fmt.Println("\nnote limit reached")
		if flags.ShowUpgrade {
			fmt.Println("run 'tenant upgrade' to move to the pro plan")
		}
	}
	return nil
}

func runNotesCreate(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	if err := requireSession(app); err != nil {
		return err
	}
	if err := app.CreateNote(ctx, cmd.String("title"), cmd.String("content")); err != nil {
		return err
	}
	fmt.Printf("created; %d notes total\n", app.Notes.Count())
	return nil
}

func runNotesUpdate(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	if err := requireSession(app); err != nil {
		return err
	}
	if err := app.UpdateNote(ctx, cmd.String("id"), cmd.String("title"), cmd.String("content")); err != nil {
		return err
	}
	fmt.Println("updated")
	return nil
}

func runNotesDelete(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	if err := requireSession(app); err != nil {
		return err
	}

	id := cmd.String("id")
	if !cmd.Bool("yes") && !confirm(fmt.Sprintf("delete note %s? [y/N] ", id)) {
		fmt.Println("aborted")
		return nil
	}
	if err := app.DeleteNote(ctx, id); err != nil {
		return err
	}
	fmt.Printf("deleted; %d notes total\n", app.Notes.Count())
	return nil
}

func runTenantShow(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	if err := requireSession(app); err != nil {
		return err
	}
	tenant := app.Tenant.Current()
	if tenant == nil {
		return fmt.Errorf("tenant state unavailable")
	}
	fmt.Printf("%s (%s)\n", tenant.Name, tenant.ID)
	if tenant.Unlimited() {
		fmt.Printf("plan: %s (unlimited notes)\n", tenant.Plan)
	} else {
		fmt.Printf("plan: %s (%d/%d notes)\n", tenant.Plan, app.Notes.Count(), tenant.NoteLimit)
	}
	return nil
}

func runTenantUpgrade(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	if err := requireSession(app); err != nil {
		return err
	}
	if err := app.UpgradeTenant(ctx); err != nil {
		return err
	}
	tenant := app.Tenant.Current()
	fmt.Printf("tenant upgraded to the %s plan\n", tenant.Plan)
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunStub(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	return mcpserver.New(app).ServeStdio()
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func main() {
	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Terminal client for the multi-tenant notes service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate against the backend and persist the session",
				Action: runLogin,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Required: true, Usage: "Account password"},
				},
			},
			{
				Name:   "logout",
				Usage:  "Discard the persisted session",
				Action: runLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the current identity",
				Action: runWhoami,
			},
			{
				Name:  "notes",
				Usage: "Work with notes",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List notes in the current tenant",
						Action: runNotesList,
					},
					{
						Name:   "create",
						Usage:  "Create a note",
						Action: runNotesCreate,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "title", Required: true, Usage: "Note title"},
							&cli.StringFlag{Name: "content", Required: true, Usage: "Note body"},
						},
					},
					{
						Name:   "update",
						Usage:  "Replace a note's title and content",
						Action: runNotesUpdate,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "id", Required: true, Usage: "Note id"},
							&cli.StringFlag{Name: "title", Required: true, Usage: "New title"},
							&cli.StringFlag{Name: "content", Required: true, Usage: "New body"},
						},
					},
					{
						Name:   "delete",
						Usage:  "Delete a note",
						Action: runNotesDelete,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "id", Required: true, Usage: "Note id"},
							&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip confirmation"},
						},
					},
				},
			},
			{
				Name:  "tenant",
				Usage: "Inspect and manage the current tenant",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Show tenant plan and quota",
						Action: runTenantShow,
					},
					{
						Name:   "upgrade",
						Usage:  "Upgrade the tenant to the pro plan (admins only)",
						Action: runTenantUpgrade,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the built-in development backend",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Expose note operations over MCP on stdin/stdout",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
