package gate

import (
	"fmt"
	"net/http"
	"strings"
)

type Action int

const (
	Passthrough Action = iota
	Redirect
	Block
)

func (a Action) String() string {
	switch a {
	case Passthrough:
		return "allow"
	case Redirect:
		return "redirect"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// Policy selects how a request outside the allowlist is answered.
type Policy int

const (
	PolicyRedirect Policy = iota
	PolicyBlock
)

func (p Policy) String() string {
	if p == PolicyBlock {
		return "block"
	}
	return "redirect"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "redirect":
		return PolicyRedirect, nil
	case "block":
		return PolicyBlock, nil
	}
	return PolicyRedirect, fmt.Errorf("gate: unknown deny policy %q", s)
}

type Decision struct {
	Action   Action
	Status   int
	Location string
	Body     []byte
	ClientIP ClientIP
}

func (d Decision) Allowed() bool { return d.Action == Passthrough }

// Respond writes a deny decision. It is a no-op for Passthrough.
func (d Decision) Respond(w http.ResponseWriter, r *http.Request) {
	switch d.Action {
	case Redirect:
		http.Redirect(w, r, d.Location, d.Status)
	case Block:
		h := w.Header()
		h.Set("Content-Type", "text/html; charset=utf-8")
		h.Set("Cache-Control", "no-store")
		w.WriteHeader(d.Status)
		_, _ = w.Write(d.Body)
	}
}
