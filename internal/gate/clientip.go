package gate

import (
	"net"
	"net/http"
	"strings"
)

const (
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderRealIP         = "X-Real-IP"
	HeaderForwardedFor   = "X-Forwarded-For"
)

// Unknown is how an unresolved client IP is displayed. It is never compared
// against the allowlist.
const Unknown = "unknown"

type Source int

const (
	SourceNone Source = iota
	SourceCFConnectingIP
	SourceRealIP
	SourceForwardedFor
	SourceRemoteAddr
)

func (s Source) String() string {
	switch s {
	case SourceCFConnectingIP:
		return "cf-connecting-ip"
	case SourceRealIP:
		return "x-real-ip"
	case SourceForwardedFor:
		return "x-forwarded-for"
	case SourceRemoteAddr:
		return "remote-addr"
	default:
		return "none"
	}
}

// ClientIP is the address a request is attributed to. The zero value means
// no source produced an address.
type ClientIP struct {
	Addr   string
	Source Source
}

func (c ClientIP) Found() bool { return c.Source != SourceNone && c.Addr != "" }

func (c ClientIP) String() string {
	if !c.Found() {
		return Unknown
	}
	return c.Addr
}

// Resolve picks the client address in fixed order:
// CF-Connecting-IP, X-Real-IP, first X-Forwarded-For hop, then the
// connection address when useRemoteAddr is set.
func Resolve(r *http.Request, useRemoteAddr bool) ClientIP {
	if v := strings.TrimSpace(r.Header.Get(HeaderCFConnectingIP)); v != "" {
		return ClientIP{Addr: v, Source: SourceCFConnectingIP}
	}
	if v := strings.TrimSpace(r.Header.Get(HeaderRealIP)); v != "" {
		return ClientIP{Addr: v, Source: SourceRealIP}
	}
	if v := firstHop(r.Header.Get(HeaderForwardedFor)); v != "" {
		return ClientIP{Addr: v, Source: SourceForwardedFor}
	}
	if useRemoteAddr {
		if v := remoteHost(r.RemoteAddr); v != "" {
			return ClientIP{Addr: v, Source: SourceRemoteAddr}
		}
	}
	return ClientIP{}
}

// firstHop returns the left-most entry of an X-Forwarded-For chain. A value
// without commas is taken whole.
func firstHop(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

func remoteHost(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
