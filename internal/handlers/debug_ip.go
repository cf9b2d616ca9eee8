package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/Veysel440/ipgate/internal/gate"
)

var debugTmpl = template.Must(template.New("debug").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"/><title>IP Check</title>
<style>body{font-family:system-ui,sans-serif;margin:2rem}td,th{padding:.3rem .8rem;text-align:left}</style>
</head><body>
<h1>IP Check</h1>
<p>Detected address: <strong>{{.IP}}</strong> (from {{.Source}})</p>
<table>
<tr><th>cf-connecting-ip</th><td>{{.CF}}</td></tr>
<tr><th>x-real-ip</th><td>{{.RealIP}}</td></tr>
<tr><th>x-forwarded-for</th><td>{{.XFF}}</td></tr>
<tr><th>connection</th><td>{{.Remote}}</td></tr>
</table>
</body></html>`))

type debugView struct {
	IP     string `json:"ip"`
	Source string `json:"source"`
	CF     string `json:"cf_connecting_ip"`
	RealIP string `json:"x_real_ip"`
	XFF    string `json:"x_forwarded_for"`
	Remote string `json:"remote_addr"`
}

// DebugIP shows how the gate sees the caller. It is served on the gate's
// diagnostic path, which every client can reach.
type DebugIP struct{ UseRemoteAddr bool }

func (h DebugIP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := gate.Resolve(r, h.UseRemoteAddr)
	v := debugView{
		IP:     ip.String(),
		Source: ip.Source.String(),
		CF:     r.Header.Get(gate.HeaderCFConnectingIP),
		RealIP: r.Header.Get(gate.HeaderRealIP),
		XFF:    r.Header.Get(gate.HeaderForwardedFor),
		Remote: r.RemoteAddr,
	}
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = debugTmpl.Execute(w, v)
}
