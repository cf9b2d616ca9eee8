// Package gate restricts HTTP traffic to a fixed set of client addresses.
//
// A Gate resolves the client address of each request from proxy headers,
// checks it against an immutable Allowlist and answers with a Decision:
// pass the request on, redirect it, or block it with an HTML page. The gate
// keeps no state between requests.
package gate

import (
	"net/http"
	"time"
)

const (
	DefaultRedirectURL = "https://www.muletown.law/estate-planning"
	DefaultDebugPath   = "/debug-ip.html"
)

type Options struct {
	Allowlist     Allowlist
	Policy        Policy
	RedirectURL   string
	DebugPath     string
	UseRemoteAddr bool
	Scope         Scope
	Page          BlockPage
	Recorder      Recorder
}

type Gate struct {
	allow       Allowlist
	policy      Policy
	redirectURL string
	debugPath   string
	remoteAddr  bool
	scope       Scope
	page        BlockPage
	rec         Recorder
	now         func() time.Time
}

func New(o Options) *Gate {
	g := &Gate{
		allow:       o.Allowlist,
		policy:      o.Policy,
		redirectURL: o.RedirectURL,
		debugPath:   o.DebugPath,
		remoteAddr:  o.UseRemoteAddr,
		scope:       o.Scope,
		page:        o.Page,
		rec:         o.Recorder,
		now:         time.Now,
	}
	if g.redirectURL == "" {
		g.redirectURL = DefaultRedirectURL
	}
	if g.rec == nil {
		g.rec = NopRecorder
	}
	return g
}

func (g *Gate) DebugPath() string { return g.debugPath }

func (g *Gate) UsesRemoteAddr() bool { return g.remoteAddr }

func (g *Gate) Allowlist() Allowlist { return g.allow }

// Evaluate decides what happens to r. It never mutates r.
func (g *Gate) Evaluate(r *http.Request) Decision {
	if g.debugPath != "" && r.URL.Path == g.debugPath {
		return Decision{Action: Passthrough, Status: http.StatusOK}
	}

	ip := Resolve(r, g.remoteAddr)
	d := g.decide(ip)

	name := EventAllowed
	if !d.Allowed() {
		name = EventDenied
	}
	g.rec.Record(r.Context(), Event{
		Name:           name,
		At:             g.now(),
		IP:             ip,
		Path:           r.URL.Path,
		Method:         r.Method,
		Outcome:        d.Action,
		RequestID:      r.Header.Get("X-Request-ID"),
		CFConnectingIP: r.Header.Get(HeaderCFConnectingIP),
		RealIP:         r.Header.Get(HeaderRealIP),
		ForwardedFor:   r.Header.Get(HeaderForwardedFor),
	})
	return d
}

func (g *Gate) decide(ip ClientIP) Decision {
	if g.allow.Contains(ip) {
		return Decision{Action: Passthrough, Status: http.StatusOK, ClientIP: ip}
	}
	if g.policy == PolicyBlock {
		return Decision{
			Action:   Block,
			Status:   http.StatusForbidden,
			Body:     g.page.Render(ip),
			ClientIP: ip,
		}
	}
	return Decision{
		Action:   Redirect,
		Status:   http.StatusFound,
		Location: g.redirectURL,
		ClientIP: ip,
	}
}

// Middleware applies the gate to every in-scope request.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.scope.Applies(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		d := g.Evaluate(r)
		if d.Allowed() {
			next.ServeHTTP(w, r)
			return
		}
		d.Respond(w, r)
	})
}
