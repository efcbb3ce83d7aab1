// Package page renders the server-side HTML pages.
package page

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// DashboardProps is what the dashboard needs before the websocket connects.
type DashboardProps struct {
	Title   string
	Session string
	Catalog string
}

// Dashboard is the single-page factory view. Live data arrives over
// /api/tycoon/ws and commands go to /api/tycoon/cmd.
func Dashboard(p DashboardProps) templ.Component {
	if p.Title == "" {
		p.Title = "Candyworks"
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, dashboardHTML,
			templ.EscapeString(p.Title),
			templ.EscapeString(p.Title),
			templ.EscapeString(p.Session),
			templ.EscapeString(p.Catalog),
		)
		return err
	})
}

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="/static/css/dashboard.css">
</head>
<body>
<header class="topbar">
  <h1>%s</h1>
  <span class="meta">session <code id="session">%s</code> &middot; catalog <code id="catalog">%s</code></span>
  <span id="conn" class="conn offline">offline</span>
</header>
<main class="grid">
  <section class="panel" id="economy">
    <h2>Economy</h2>
    <dl>
      <dt>Money</dt><dd id="money">0</dd>
      <dt>Income</dt><dd id="mps">0/s</dd>
      <dt>Multiplier</dt><dd id="multiplier">x1</dd>
      <dt>Rebirths</dt><dd id="rebirths">0</dd>
      <dt>Rebirth cost</dt><dd id="rebirth-cost">0</dd>
    </dl>
    <div class="actions">
      <button id="buy-next" type="button">Buy next</button>
      <button id="collect" type="button">Collect</button>
      <button id="rebirth" type="button" disabled>Rebirth</button>
    </div>
  </section>
  <section class="panel" id="offers-panel">
    <h2>Offers</h2>
    <ol id="offers"></ol>
  </section>
  <section class="panel" id="floor-panel">
    <h2>Factory floor</h2>
    <canvas id="floor" width="640" height="320"></canvas>
  </section>
  <section class="panel" id="log-panel">
    <h2>Events</h2>
    <ul id="events"></ul>
  </section>
</main>
<script src="/static/js/dashboard.js" defer></script>
</body>
</html>
`
