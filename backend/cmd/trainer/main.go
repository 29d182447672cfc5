package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"gitlearn/backend/catalog"
	"gitlearn/backend/client"
	"gitlearn/backend/utils"
	"gitlearn/backend/viewer"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// env is built once per invocation and handed to every command.
type env struct {
	log      *zap.SugaredLogger
	session  *client.Session
	auth     *client.AuthClient
	progress *client.ProgressClient
	catalog  *catalog.Catalog
}

func main() {
	_ = godotenv.Load()

	var e env
	app := &cli.App{
		Name:  "trainer",
		Usage: "work through the git training modules from a terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:5001", EnvVars: []string{"GITLEARN_API_URL"}, Usage: "API server base URL"},
			&cli.StringFlag{Name: "session", Value: client.DefaultSessionPath(), EnvVars: []string{"GITLEARN_SESSION"}, Usage: "session file"},
			&cli.StringFlag{Name: "catalog", EnvVars: []string{"GITLEARN_CATALOG"}, Usage: "module catalog YAML, the bundled one when empty"},
			&cli.DurationFlag{Name: "timeout", Value: client.DefaultTimeout, Usage: "per request timeout"},
			&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"LOG_LEVEL"}},
		},
		Before: func(c *cli.Context) error {
			return e.init(c)
		},
		After: func(c *cli.Context) error {
			if e.log != nil {
				_ = e.log.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "sign in and remember the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"GITLEARN_PASSWORD"}},
				},
				Action: e.login,
			},
			{
				Name:   "logout",
				Usage:  "forget the stored session",
				Action: e.logout,
			},
			{
				Name:   "modules",
				Usage:  "list modules with your progress",
				Action: e.modules,
			},
			{
				Name:      "start",
				Usage:     "open a module and resume where you left off",
				ArgsUsage: "<moduleId>",
				Action:    e.start,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (e *env) init(c *cli.Context) error {
	log, err := utils.InitLogger(utils.LoggerConfig{Level: c.String("log-level")})
	if err != nil {
		return err
	}
	e.log = log.With("component", "trainer")

	e.session = client.NewSession(c.String("session"))
	if err := e.session.Load(); err != nil {
		e.log.Warnw("ignoring unreadable session", "path", c.String("session"), "error", err)
	}

	e.catalog, err = catalog.Load(c.String("catalog"))
	if err != nil {
		return err
	}

	api, timeout := c.String("api"), c.Duration("timeout")
	e.auth = client.NewAuthClient(api, e.session, timeout)
	e.progress = client.NewProgressClient(api, e.session, timeout)
	return nil
}

func (e *env) login(c *cli.Context) error {
	user, err := e.auth.Login(c.Context, c.String("email"), c.String("password"))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Signed in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (e *env) logout(c *cli.Context) error {
	if err := e.auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Signed out")
	return nil
}

func (e *env) modules(c *cli.Context) error {
	percent := map[string]int{}
	if e.session.Authenticated() {
		records, err := e.progress.GetAllProgress(c.Context)
		if err != nil {
			e.log.Warnw("load progress failed", "error", err)
			fmt.Fprintln(c.App.Writer, "Could not load your progress, showing the catalog only.")
		}
		for _, r := range records {
			percent[r.ModuleID] = r.Progress
		}
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLEVEL\tTIME\tPROGRESS")
	for _, m := range e.catalog.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\n", m.ID, m.Title, m.Difficulty, m.EstimatedTime, percent[m.ID])
	}
	return w.Flush()
}

func (e *env) start(c *cli.Context) error {
	moduleID := strings.TrimSpace(c.Args().First())
	if moduleID == "" {
		return errors.New("usage: trainer start <moduleId>")
	}
	if !e.session.Authenticated() {
		fmt.Fprintln(c.App.Writer, "Not signed in, progress will not be saved.")
	}

	v := viewer.New(e.progress, e.catalog, e.log)
	if err := v.Load(c.Context, moduleID); err != nil {
		return err
	}
	return play(c.Context, v, os.Stdin, c.App.Writer)
}
