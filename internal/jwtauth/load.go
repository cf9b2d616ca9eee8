package jwtauth

import (
	"strings"
)

// Load parses "kid:secret,kid2:secret2". A bare secret becomes the only key
// under currentKID (or "key1").
func Load(keys, currentKID string, secret []byte) EnvProvider {
	keys = strings.TrimSpace(keys)
	current := strings.TrimSpace(currentKID)

	set := map[string][]byte{}
	if keys != "" {
		for _, p := range strings.Split(keys, ",") {
			kv := strings.SplitN(strings.TrimSpace(p), ":", 2)
			if len(kv) == 2 && kv[0] != "" && kv[1] != "" {
				set[kv[0]] = []byte(kv[1])
			}
		}
	}
	if len(set) == 0 && len(secret) > 0 {
		if current == "" {
			current = "key1"
		}
		set[current] = secret
	}
	if _, ok := set[current]; !ok {
		current = ""
		for k := range set {
			if current == "" || k < current {
				current = k
			}
		}
	}
	return EnvProvider{Current: current, Set: set}
}
