package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/dekarrin/avail/internal/avail/config"
	"github.com/dekarrin/avail/internal/avail/module"
	availwatch "github.com/dekarrin/avail/internal/avail/watch"
)

// runWatch recompiles the given module's source whenever it or any
// module it Uses/Extends changes on disk.
func runWatch(args []string) error {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "avail.toml", "path to avail.toml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("watch requires exactly one module source file")
	}
	path := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	w, err := availwatch.New()
	if err != nil {
		return err
	}
	defer w.Close()
	w.Log = os.Stderr

	recompile := func(changed string) {
		fmt.Printf("change detected in %s, recompiling %s\n", changed, path)
		c := newCompiler(cfg, func(s string) { fmt.Println(s) })
		rec, _, err := c.compileFile(context.Background(), path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "compile failed: %v\n", err)
			return
		}
		fmt.Printf("compiled %s: %d public atoms\n", rec.Name, len(rec.PublicAtoms))

		deps, err := dependencyPaths(cfg, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not refresh watched dependencies: %v\n", err)
			return
		}
		for _, dep := range deps {
			if err := w.Track(dep); err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not watch %s: %v\n", dep, err)
			}
		}
	}
	w.Recompile = recompile

	if err := w.Track(path); err != nil {
		return err
	}
	deps, err := dependencyPaths(cfg, path)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if err := w.Track(dep); err != nil {
			return err
		}
	}

	recompile(path)

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", path)
	w.Run()
	return nil
}

// dependencyPaths resolves path's module header's direct Extends/Uses
// imports to source files, for the watcher to track alongside path
// itself.
func dependencyPaths(cfg config.Config, path string) ([]string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	h, err := module.ParseHeader(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: parse header: %w", path, err)
	}

	c := newCompiler(cfg, nil)
	var out []string
	for _, imp := range append(append([]module.Import{}, h.Extends...), h.Uses...) {
		depPath, err := c.resolver.Resolve(imp.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve import %q: %w", imp.Name, err)
		}
		out = append(out, depPath)
	}
	return out, nil
}
