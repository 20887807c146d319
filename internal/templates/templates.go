// Package templates provides per-kind defaults for new work items.
//
// Lookup chain (highest to lowest priority):
//  1. The file named by the defaults-file setting
//  2. Embedded defaults (defaults/kinds.toml)
//
// Defaults only fill fields the caller left unset.
package templates

import (
	"embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/steveyegge/workitems/internal/types"
)

//go:embed defaults/kinds.toml
var defaultFS embed.FS

const defaultFile = "defaults/kinds.toml"

// KindDefaults are the defaults for one kind. Bug-only fields are ignored
// for other kinds.
type KindDefaults struct {
	Priority    types.Priority `toml:"priority"`
	Tags        []string       `toml:"tags"`
	Severity    types.Severity `toml:"severity"`
	Category    string         `toml:"category"`
	Source      string         `toml:"source"`
	Environment string         `toml:"environment"`
}

// Defaults maps each kind to its defaults.
type Defaults map[types.Kind]KindDefaults

// Builtin returns the embedded defaults.
func Builtin() Defaults {
	data, err := defaultFS.ReadFile(defaultFile)
	if err != nil {
		panic(fmt.Sprintf("templates: embedded %s missing: %v", defaultFile, err))
	}
	d, err := parse(data)
	if err != nil {
		panic(fmt.Sprintf("templates: embedded %s invalid: %v", defaultFile, err))
	}
	return d
}

// Load returns the built-in defaults overlaid with the TOML file at path.
// An empty path yields the built-ins.
func Load(path string) (Defaults, error) {
	d := Builtin()
	if path == "" {
		return d, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("read defaults file: %w", err)
	}
	overrides, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for kind, o := range overrides {
		d[kind] = merge(d[kind], o)
	}
	return d, nil
}

func parse(data []byte) (Defaults, error) {
	var raw map[string]KindDefaults
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown defaults key %q", types.ErrValidation, undecoded[0].String())
	}
	d := make(Defaults, len(raw))
	for name, kd := range raw {
		kind := types.Kind(name)
		if !kind.IsValid() {
			return nil, fmt.Errorf("%w: unknown kind %q", types.ErrValidation, name)
		}
		if kd.Priority != "" && !kd.Priority.IsValid() {
			return nil, fmt.Errorf("%w: %s: invalid priority %q", types.ErrValidation, name, kd.Priority)
		}
		if kd.Severity != "" && !kd.Severity.IsValid() {
			return nil, fmt.Errorf("%w: %s: invalid severity %q", types.ErrValidation, name, kd.Severity)
		}
		d[kind] = kd
	}
	return d, nil
}

func merge(base, o KindDefaults) KindDefaults {
	if o.Priority != "" {
		base.Priority = o.Priority
	}
	if o.Tags != nil {
		base.Tags = o.Tags
	}
	if o.Severity != "" {
		base.Severity = o.Severity
	}
	if o.Category != "" {
		base.Category = o.Category
	}
	if o.Source != "" {
		base.Source = o.Source
	}
	if o.Environment != "" {
		base.Environment = o.Environment
	}
	return base
}

// Apply fills the unset fields of item from the defaults of its kind.
// Priority falls back to medium even when no defaults are configured.
func (d Defaults) Apply(item *types.WorkItem) {
	kd := d[item.Kind]
	if item.Meta.Priority == "" {
		item.Meta.Priority = kd.Priority.OrMedium()
	}
	if len(item.Meta.Tags) == 0 && len(kd.Tags) > 0 {
		item.Meta.Tags = types.NormalizeTags(kd.Tags)
	}
	if item.Bug == nil {
		return
	}
	if item.Bug.Severity == "" {
		item.Bug.Severity = kd.Severity.OrMedium()
	}
	if item.Bug.Category == "" {
		item.Bug.Category = kd.Category
	}
	if item.Bug.Source == "" {
		item.Bug.Source = kd.Source
	}
	if item.Bug.Environment == "" {
		item.Bug.Environment = kd.Environment
	}
}
