package main

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/Veysel440/ipgate/internal/config"
	"github.com/Veysel440/ipgate/internal/gate"
)

// gatecheck evaluates a synthetic request against the configured allowlist
// without starting the server.
func main() {
	path := flag.String("path", "/", "request path")
	cf := flag.String("cf", "", "CF-Connecting-IP value")
	realIP := flag.String("real-ip", "", "X-Real-IP value")
	xff := flag.String("xff", "", "X-Forwarded-For value")
	remote := flag.String("remote", "", "connection address host:port")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.MergeAllowlistFile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	policy, err := gate.ParsePolicy(cfg.DenyPolicy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	rec := gate.RecorderFunc(func(_ context.Context, e gate.Event) {
		fmt.Printf("event:     %s\n", e.Name)
	})
	g := gate.New(gate.Options{
		Allowlist:     gate.NewAllowlist(cfg.AllowedIPs),
		Policy:        policy,
		RedirectURL:   cfg.RedirectURL,
		DebugPath:     cfg.DebugPath,
		UseRemoteAddr: cfg.UseRemoteAddr,
		Recorder:      rec,
	})

	req := httptest.NewRequest("GET", *path, nil)
	req.RemoteAddr = *remote
	for h, v := range map[string]string{gate.HeaderCFConnectingIP: *cf, gate.HeaderRealIP: *realIP, gate.HeaderForwardedFor: *xff} {
		if v != "" {
			req.Header.Set(h, v)
		}
	}

	fmt.Printf("allowlist: %v\n", g.Allowlist().Entries())
	d := g.Evaluate(req)
	fmt.Printf("client ip: %s (%s)\n", d.ClientIP, d.ClientIP.Source)
	fmt.Printf("decision:  %s %d %s\n", d.Action, d.Status, d.Location)
	if !d.Allowed() {
		os.Exit(1)
	}
}
