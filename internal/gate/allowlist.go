package gate

// Allowlist is an immutable set of exact-match address strings. Entries are
// compared byte for byte: no trimming, case folding or CIDR expansion.
type Allowlist struct {
	order []string
	set   map[string]struct{}
}

func NewAllowlist(ips []string) Allowlist {
	a := Allowlist{set: make(map[string]struct{}, len(ips))}
	for _, ip := range ips {
		if _, dup := a.set[ip]; dup {
			continue
		}
		a.set[ip] = struct{}{}
		a.order = append(a.order, ip)
	}
	return a
}

// Contains reports membership. An unresolved ClientIP is never a member.
func (a Allowlist) Contains(ip ClientIP) bool {
	if !ip.Found() {
		return false
	}
	_, ok := a.set[ip.Addr]
	return ok
}

func (a Allowlist) Len() int { return len(a.order) }

// Entries returns a copy in configuration order.
func (a Allowlist) Entries() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}
