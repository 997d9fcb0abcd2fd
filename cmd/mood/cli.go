package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/moodjournal/internal/config"
	"github.com/hpungsan/moodjournal/internal/db"
	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/journal"
	"github.com/hpungsan/moodjournal/internal/logging"
	"github.com/hpungsan/moodjournal/internal/mcp"
	"github.com/hpungsan/moodjournal/internal/metrics"
	"github.com/hpungsan/moodjournal/internal/ops"
	"github.com/hpungsan/moodjournal/internal/web"
)

// defaultDirName is the base directory under the user's home.
const defaultDirName = ".moodjournal"

// env carries the process streams and the lazily opened store.
type env struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger
	owned  bool // db was opened by open and is closed by close
}

func newEnv(in io.Reader, out, errOut io.Writer) *env {
	return &env{in: in, out: out, errOut: errOut}
}

// open initializes the database, config and logger on first use.
// It is a no-op when a database is already attached.
func (e *env) open(c *cli.Context) error {
	if e.db != nil {
		if e.cfg == nil {
			e.cfg = config.DefaultConfig()
		}
		if e.logger == nil {
			e.logger = logging.Discard()
		}
		return nil
	}

	baseDir, err := resolveBaseDir(c.String("dir"))
	if err != nil {
		return e.fail(errors.NewInternal(err))
	}

	database, err := db.Init(baseDir)
	if err != nil {
		return e.fail(errors.NewInternal(fmt.Errorf("failed to initialize database: %w", err)))
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		database.Close()
		return e.fail(errors.NewInvalidRequest(fmt.Sprintf("failed to load config: %v", err)))
	}
	db.ConfigurePool(database, cfg)

	level := cfg.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger, err := logging.New(e.errOut, level, cfg.LogFormat)
	if err != nil {
		database.Close()
		return e.fail(errors.NewInvalidRequest(err.Error()))
	}

	e.db, e.cfg, e.logger, e.owned = database, cfg, logger, true
	return nil
}

// close releases the database if open created it.
func (e *env) close(_ *cli.Context) error {
	if e.owned && e.db != nil {
		err := e.db.Close()
		e.db, e.owned = nil, false
		return err
	}
	return nil
}

// resolveBaseDir expands the --dir flag, defaulting to ~/.moodjournal.
func resolveBaseDir(dir string) (string, error) {
	if strings.TrimSpace(dir) != "" {
		return filepath.Abs(dir)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, defaultDirName), nil
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:      "mood",
		Usage:     "Mood journal with local analytics",
		Version:   Version,
		Reader:    e.in,
		Writer:    e.out,
		ErrWriter: e.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, EnvVars: []string{"MOOD_DIR"}, Usage: "Data directory (default ~/.moodjournal)"},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"MOOD_LOG_LEVEL"}, Usage: "Log level: debug|info|warn|error"},
		},
		Commands: []*cli.Command{
			addCmd(e),
			listCmd(e),
			showCmd(e),
			deleteCmd(e),
			statsCmd(e),
			classifyCmd(e),
			seedCmd(e),
			exportCmd(e),
			importCmd(e),
			serveCmd(e),
			mcpCmd(e),
		},
		After: e.close,
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:   "add",
		Usage:  "Write a journal entry (reads the text from --text or stdin)",
		Before: e.open,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "mood", Aliases: []string{"m"}, Usage: "Mood value 1-9"},
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Family|Personal|Office|Other (default Personal)"},
			&cli.StringFlag{Name: "emotion", Aliases: []string{"e"}, Usage: "Emotion label (default: first of the mood bucket)"},
			&cli.StringFlag{Name: "text", Usage: "Journal text"},
			&cli.StringFlag{Name: "date", Usage: "Entry timestamp, RFC 3339 (default now)"},
		},
		Action: func(c *cli.Context) error {
			text := c.String("text")
			if text == "" && hasPipedInput(e.in) {
				var err error
				if text, err = readAll(e.in); err != nil {
					return e.fail(errors.NewInternal(err))
				}
			}
			if text == "" {
				return e.fail(errors.NewInvalidRequest("journal text must be given with --text or piped via stdin"))
			}

			input := ops.AddInput{
				Journal:   text,
				MoodValue: c.Int("mood"),
				Tag:       c.String("tag"),
				Emotion:   c.String("emotion"),
			}
			if d := c.String("date"); d != "" {
				t, err := entry.ParseDate(d)
				if err != nil {
					return e.fail(errors.NewInvalidField("date", "must be an RFC 3339 timestamp"))
				}
				input.Date = t
			}

			output, err := ops.Add(c.Context, e.db, input)
			if err != nil {
				return e.fail(err)
			}
			return e.outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List entries, newest first",
		Before: e.open,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Filter by tag"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Max entries to return"},
			&cli.IntFlag{Name: "offset", Usage: "Entries to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, e.db, ops.ListInput{
				Tag:    c.String("tag"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return e.fail(err)
			}
			return e.outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one entry with its mood classification",
		ArgsUsage: "<id>",
		Before:    e.open,
		Action: func(c *cli.Context) error {
			id, err := parseID(c.Args().First())
			if err != nil {
				return e.fail(err)
			}
			output, err := ops.Fetch(c.Context, e.db, ops.FetchInput{ID: id})
			if err != nil {
				return e.fail(err)
			}
			return e.outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete an entry",
		ArgsUsage: "<id>",
		Before:    e.open,
		Action: func(c *cli.Context) error {
			id, err := parseID(c.Args().First())
			if err != nil {
				return e.fail(err)
			}
			output, err := ops.Delete(c.Context, e.db, ops.DeleteInput{ID: id})
			if err != nil {
				return e.fail(err)
			}
			return e.outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Compute mood statistics",
		Before: e.open,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Restrict to one tag"},
			&cli.StringFlag{Name: "tz", Usage: "IANA timezone for weekday bucketing (default from config)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, e.db, e.cfg, ops.StatsInput{
				Tag:      c.String("tag"),
				Timezone: c.String("tz"),
			})
			if err != nil {
				return e.fail(err)
			}
			return e.outputJSON(output)
		},
	}
}

// classifyCmd creates the classify command. It needs no database.
func classifyCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Show label, emoji, color and emotions for a mood value",
		ArgsUsage: "<value>",
		Action: func(c *cli.Context) error {
			v, err := strconv.Atoi(strings.TrimSpace(c.Args().First()))
			if err != nil {
				return e.fail(errors.NewInvalidField("value", "must be an integer"))
			}
			output, err := ops.Classify(ops.ClassifyInput{Value: v})
			if err != nil {
				return e.fail(err)
			}
			return e.outputJSON(output)
		},
	}
}

// seedCmd creates the seed command.
func seedCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:   "seed",
		Usage:  "Load sample entries when the journal is nearly empty",
		Before: e.open,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Seed regardless of the entry count"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Seed(c.Context, e.db, e.cfg, ops.SeedInput{Force: c.Bool("force")})
			if err != nil {
				return e.fail(err)
			}
			return e.outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:   "export",
		Usage:  "Export all entries to a JSONL file",
		Before: e.open,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: exports dir)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, e.db, e.cfg, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return e.fail(err)
			}
			return e.outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:   "import",
		Usage:  "Import entries from a JSONL export; existing uids are skipped",
		Before: e.open,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Path to the JSONL file"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("path")
			if path == "" {
				return e.fail(errors.NewInvalidField("path", "is required"))
			}
			output, err := ops.Import(c.Context, e.db, e.cfg, ops.ImportInput{Path: path})
			if err != nil {
				return e.fail(err)
			}
			return e.outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the web UI",
		Before: e.open,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", EnvVars: []string{"MOOD_BIND"}, Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8080, EnvVars: []string{"MOOD_PORT"}, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			e.seedOnStart(ctx)

			m, err := metrics.NewDefault()
			if err != nil {
				return e.fail(errors.NewInternal(err))
			}
			j, err := e.newJournal(m)
			if err != nil {
				return e.fail(err)
			}

			srv, err := web.NewServer(web.Deps{
				Journal: j,
				Config:  e.cfg,
				Metrics: m,
				Logger:  e.logger,
				Version: Version,
			}, c.String("bind"), c.Int("port"))
			if err != nil {
				return e.fail(errors.NewInternal(err))
			}

			if err := web.Run(ctx, srv, e.logger); err != nil {
				return e.fail(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command. Logs go to stderr; stdout carries the protocol.
func mcpCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:   "mcp",
		Usage:  "Serve MCP tools over stdio",
		Before: e.open,
		Action: func(c *cli.Context) error {
			e.seedOnStart(c.Context)

			j, err := e.newJournal(nil)
			if err != nil {
				return e.fail(err)
			}
			if err := mcp.Run(j, e.db, e.cfg, Version, e.logger); err != nil {
				return e.fail(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// newJournal wires the SQLite store into a Journal using the configured zone.
func (e *env) newJournal(m *metrics.Metrics) (*journal.Journal, error) {
	loc, err := e.cfg.Location()
	if err != nil {
		return nil, errors.NewInvalidField("timezone", err.Error())
	}
	return journal.New(journal.NewSQLStore(e.db),
		journal.WithLocation(loc),
		journal.WithMetrics(m),
		journal.WithLogger(e.logger),
	), nil
}

// seedOnStart loads the sample corpus into an under-populated store.
// Failures are logged; the server still starts.
func (e *env) seedOnStart(ctx context.Context) {
	if !e.cfg.ShouldSeedOnStart() {
		return
	}
	out, err := ops.Seed(ctx, e.db, e.cfg, ops.SeedInput{})
	if err != nil {
		e.logger.Warn("seeding failed", "error", err)
		return
	}
	if out.Seeded {
		e.logger.Info("seeded sample entries", "added", out.Added)
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func (e *env) outputJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// fail writes err as a JSON error object to stderr and returns an exit code 1 error.
func (e *env) fail(err error) error {
	jErr := errors.As(err)
	payload := map[string]any{
		"error": map[string]any{
			"code":    jErr.Code,
			"message": strings.TrimPrefix(err.Error(), string(jErr.Code)+": "),
			"status":  jErr.Status,
		},
	}
	enc := json.NewEncoder(e.errOut)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
	return cli.Exit("", 1)
}

// hasPipedInput reports whether r carries data. A terminal stdin does not.
func hasPipedInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readAll reads all content from r.
func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseID parses a positional entry id.
func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.NewInvalidField("id", "is required")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidField("id", "must be a positive integer")
	}
	return id, nil
}
