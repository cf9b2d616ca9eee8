package gate

import (
	"bytes"
	"html/template"
)

const defaultBlockPage = `<!doctype html>
<html lang="en"><head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Access Restricted</title>
<style>
body{font-family:system-ui,sans-serif;background:#f5f5f4;color:#1c1917;display:flex;min-height:100vh;align-items:center;justify-content:center;margin:0}
main{background:#fff;max-width:32rem;padding:2rem 2.5rem;border-radius:8px;box-shadow:0 1px 4px rgba(0,0,0,.12)}
code{background:#f5f5f4;padding:.15rem .4rem;border-radius:4px}
</style>
</head><body><main>
<h1>Access Restricted</h1>
<p>This system is only available from approved office networks.</p>
<p>Your IP address: <code>{{.IP}}</code></p>
<p>If you believe you should have access, contact support and include the address above.</p>
</main></body></html>`

var blockTmpl = template.Must(template.New("block").Parse(defaultBlockPage))

// BlockPage renders HTML for a denied request.
type BlockPage struct{ t *template.Template }

// ParseBlockPage compiles a custom page; the template receives {{.IP}}.
func ParseBlockPage(src string) (BlockPage, error) {
	t, err := template.New("block").Parse(src)
	if err != nil {
		return BlockPage{}, err
	}
	return BlockPage{t: t}, nil
}

func (p BlockPage) Render(ip ClientIP) []byte {
	t := p.t
	if t == nil {
		t = blockTmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ IP string }{ip.String()}); err != nil {
		return []byte("<!doctype html><title>Access Restricted</title><p>Access restricted.</p>")
	}
	return buf.Bytes()
}
