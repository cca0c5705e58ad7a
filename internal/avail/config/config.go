// Package config loads the compiler's on-disk configuration: a small
// struct decoded straight from TOML via struct tags.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level shape of an avail.toml file.
type Config struct {
	Modules     ModuleRoots `toml:"modules"`
	Registry    Registry    `toml:"registry"`
	Cache       Cache       `toml:"cache"`
	Diagnostics Diagnostics `toml:"diagnostics"`
}

// ModuleRoots lists the filesystem directories searched for a module name
// and the path to the primitive-number registry file (§6).
type ModuleRoots struct {
	Roots             []string `toml:"roots"`
	PrimitiveRegistry string   `toml:"primitive_registry"`
}

// Registry configures the optional remote module registry resolver
// (internal/avail/runtime/resolver): its base URL and the bcrypt-hashed
// credential file used to mint a bearer JWT.
type Registry struct {
	BaseURL      string `toml:"base_url"`
	CredentialDB string `toml:"credential_db"`
	TokenTTLSecs int    `toml:"token_ttl_seconds"`
}

// Cache configures the persistent splitter-program cache
// (internal/avail/cache).
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Diagnostics configures the optional chi diagnostics HTTP server
// (internal/avail/diagserver).
type Diagnostics struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Default returns the configuration used when no avail.toml is present.
func Default() Config {
	return Config{
		Modules: ModuleRoots{Roots: []string{"."}, PrimitiveRegistry: "primitives.toml"},
		Cache:   Cache{Enabled: true, Path: "avail-cache.db"},
		Diagnostics: Diagnostics{
			Enabled: false,
			Addr:    "127.0.0.1:8710",
		},
	}
}

// Load reads and decodes path, or returns Default() if path does not
// exist.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
