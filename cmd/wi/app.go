package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/steveyegge/workitems/internal/config"
	"github.com/steveyegge/workitems/internal/debug"
	"github.com/steveyegge/workitems/internal/lifecycle"
	"github.com/steveyegge/workitems/internal/notify"
	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/storage/factory"
	"github.com/steveyegge/workitems/internal/store"
	"github.com/steveyegge/workitems/internal/telemetry"
	"github.com/steveyegge/workitems/internal/templates"
	"github.com/steveyegge/workitems/internal/types"
	"github.com/steveyegge/workitems/internal/utils"
)

// App bundles the store with the resources opened for one command.
type App struct {
	Store   *store.Store
	Project string
	Events  *notify.Recorder

	raw     storage.Adapter // backend before instrumentation
	webhook *notify.WebhookHandler
}

type openOptions struct {
	allProjects bool
}

// openApp builds the store from configuration and loads the current
// project, or every stored project when allProjects is set.
func openApp(ctx context.Context, opts openOptions) (*App, error) {
	if app != nil {
		return app, nil
	}
	project := resolveProject()
	if err := storage.ValidateProjectID(project); err != nil {
		return nil, err
	}

	if err := telemetry.Init(ctx, "wi", Version); err != nil {
		debug.Logf("telemetry init: %v\n", err)
	}
	raw, err := factory.New(ctx, config.GetString("backend"), factory.Options{
		DataDir:     config.DataDir(),
		DSN:         config.GetString("dsn"),
		LockTimeout: config.GetDuration("lock-timeout"),
	})
	if err != nil {
		return nil, err
	}

	defaults := templates.Builtin()
	if path := config.GetString("defaults-file"); path != "" {
		if defaults, err = templates.Load(path); err != nil {
			closeAdapter(raw)
			return nil, err
		}
	}

	a := &App{Project: project, Events: notify.NewRecorder(), raw: raw}
	bus := notify.NewBus(a.Events)
	if verboseFlag {
		bus.Register(notify.NewLogHandler(os.Stderr))
	}
	if url := config.GetString("notify.webhook-url"); url != "" {
		a.webhook = notify.NewWebhookHandler(url, config.GetDuration("notify.webhook-timeout"))
		bus.Register(a.webhook)
	}

	a.Store = store.New(telemetry.WrapAdapter(raw),
		store.WithActor(resolveActor()),
		store.WithPolicy(lifecycle.PolicyFor(config.GetBool("lifecycle.strict"))),
		store.WithDefaults(defaults),
		store.WithSink(bus),
	)

	if opts.allProjects {
		err = loadAllProjects(ctx, a)
	} else {
		err = a.Store.Load(ctx, project)
	}
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Events.Reset()
	app = a
	return a, nil
}

// resolveID expands an id prefix against the loaded items.
func (a *App) resolveID(input string) (string, error) {
	return utils.ResolvePartialID(a.Store.Items(""), input)
}

// resolveIDs expands each prefix. Unknown ids pass through unchanged so
// bulk operations report them per id; ambiguous prefixes are an error.
func (a *App) resolveIDs(inputs []string) ([]string, error) {
	items := a.Store.Items("")
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		id, err := utils.ResolvePartialID(items, input)
		if errors.Is(err, types.ErrNotFound) {
			id, err = input, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func loadAllProjects(ctx context.Context, a *App) error {
	lister, ok := a.Store.Adapter().(storage.ProjectLister)
	if !ok {
		return a.Store.Load(ctx, a.Project)
	}
	projects, err := lister.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	return a.Store.LoadProjects(ctx, projects)
}

// Close flushes pending webhook deliveries and releases the backend.
func (a *App) Close(ctx context.Context) {
	if a.webhook != nil {
		flushCtx, cancel := context.WithTimeout(ctx, config.GetDuration("notify.webhook-timeout")+time.Second)
		if err := a.webhook.Close(flushCtx); err != nil {
			WarnError("webhook: %v", err)
		}
		cancel()
	}
	closeAdapter(a.raw)
	if err := telemetry.Shutdown(ctx); err != nil {
		debug.Logf("telemetry shutdown: %v\n", err)
	}
}

func closeAdapter(a storage.Adapter) {
	if c, ok := a.(storage.Closer); ok {
		if err := c.Close(); err != nil {
			debug.Logf("close backend: %v\n", err)
		}
	}
}

func closeApp() {
	if app != nil {
		app.Close(context.Background())
		app = nil
	}
	if rootCancel != nil {
		rootCancel()
	}
}

var unsafeProjectChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// resolveProject returns the configured project, else the name of the
// directory holding .workitems, else the working directory name.
func resolveProject() string {
	if p := config.GetString("project"); p != "" {
		return p
	}
	dir, err := os.Getwd()
	if err != nil {
		return "default"
	}
	if path, err := config.FindProjectConfig(); err == nil {
		if local := config.LoadLocalConfig(filepath.Dir(path)); local.Project != "" {
			return local.Project
		}
		dir = filepath.Dir(filepath.Dir(path))
	}
	name := strings.Trim(unsafeProjectChars.ReplaceAllString(filepath.Base(dir), "-"), "-.")
	if name == "" {
		return "default"
	}
	return name
}

// resolveActor returns the --actor flag or config value, else $USER.
func resolveActor() string {
	if a := config.GetString("actor"); a != "" {
		return a
	}
	return os.Getenv("USER")
}
