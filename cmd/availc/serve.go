package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/pflag"

	"github.com/dekarrin/avail/internal/avail/config"
	"github.com/dekarrin/avail/internal/avail/diagserver"
)

// runServe starts the diagnostics HTTP server. The server starts with no
// reports, and the compile and watch commands do not publish reports to
// it.
func runServe(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "avail.toml", "path to avail.toml")
	addrFlag := fs.StringP("addr", "a", "", "listen address, overriding avail.toml's diagnostics.addr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	addr := cfg.Diagnostics.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	srv := diagserver.New()
	fmt.Printf("diagnostics server listening on %s\n", addr)
	return http.ListenAndServe(addr, srv)
}
