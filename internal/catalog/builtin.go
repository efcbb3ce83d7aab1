package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"candyworks/internal/tycoon"
)

// Default is the layout a fresh server starts with.
const Default = "candy_factory"

//go:embed catalogs/*.yml
var builtinFS embed.FS

// Builtin returns one of the layouts compiled into the binary.
func Builtin(name string) (tycoon.Layout, error) {
	b, err := builtinFS.ReadFile(path.Join("catalogs", name+".yml"))
	if err != nil {
		return tycoon.Layout{}, fmt.Errorf("unknown catalog %q", name)
	}
	l, err := Parse(b)
	if err != nil {
		return tycoon.Layout{}, fmt.Errorf("catalog %s: %w", name, err)
	}
	return l, nil
}

// Names lists the built-in layouts in alphabetical order.
func Names() []string {
	entries, err := fs.ReadDir(builtinFS, "catalogs")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yml"); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Resolve loads file when it is set and falls back to the named built-in.
func Resolve(name, file string) (tycoon.Layout, error) {
	if file != "" {
		return Load(file)
	}
	if name == "" {
		name = Default
	}
	return Builtin(name)
}
