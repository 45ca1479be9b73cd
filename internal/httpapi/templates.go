package httpapi

import (
	"html/template"

	"github.com/mesh-intelligence/qurancms/internal/content"
)

// Template names.
const (
	tmplHub      = "hub"
	tmplList     = "list"
	tmplForm     = "form"
	tmplConfirm  = "confirm"
	tmplLogin    = "login"
	tmplNotFound = "notfound"
)

const layoutTemplate = `
{{define "header"}}<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{.Title}} · qurancms</title>
    <style>
      body { font-family: system-ui, -apple-system, "Segoe UI", sans-serif; margin: 0; background: #f8fafc; color: #0f172a; }
      nav { display: flex; gap: 16px; align-items: center; padding: 12px 24px; background: #064e3b; }
      nav a, nav button { color: #ecfdf5; text-decoration: none; background: none; border: 0; font: inherit; cursor: pointer; }
      nav form { margin-left: auto; }
      main { max-width: 960px; margin: 24px auto; padding: 0 16px; }
      .toast { padding: 12px 16px; border-radius: 8px; margin-bottom: 16px; }
      .toast-success { background: #d1fae5; color: #065f46; }
      .toast-error { background: #fee2e2; color: #991b1b; }
      .toast-info { background: #e0f2fe; color: #075985; }
      .cards { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 16px; }
      .card { background: #fff; border-radius: 8px; padding: 16px; box-shadow: 0 1px 2px rgba(0,0,0,.08); }
      .card h3 { margin: 0 0 4px; }
      .card .meta { color: #64748b; font-size: 14px; }
      .card img { max-width: 100%; border-radius: 4px; }
      .actions { display: flex; gap: 8px; margin-top: 12px; }
      label { display: block; margin-top: 12px; font-weight: 600; }
      input, textarea { width: 100%; box-sizing: border-box; padding: 8px; margin-top: 4px; }
      textarea { min-height: 96px; }
      button.primary { background: #047857; color: #fff; border: 0; padding: 8px 16px; border-radius: 6px; margin-top: 16px; }
      button.danger { background: #b91c1c; color: #fff; border: 0; padding: 8px 16px; border-radius: 6px; }
    </style>
  </head>
  <body>
    {{if .Authenticated}}
    <nav>
      <a href="/">Home</a>
      {{range .Nav}}<a href="{{.Route}}">{{.Plural}}</a>{{end}}
      <a href="/stats">Stats</a>
      <form method="post" action="/logout"><button type="submit">Log out</button></form>
    </nav>
    {{end}}
    <main>
    {{with .Flash}}<div class="toast toast-{{.Level}}" role="status">{{.Message}}</div>{{end}}
{{end}}

{{define "footer"}}
    </main>
    {{if .Authenticated}}
    <script>
      (function() {
        if (!window.EventSource) { return; }
        var collection = document.body.dataset.collection || '';
        var events = new EventSource('/events');
        events.addEventListener('refresh', function(e) {
          var ev = JSON.parse(e.data);
          if (collection && ev.collection === collection && !document.querySelector('form.editing')) {
            window.location.reload();
          }
        });
      })();
    </script>
    {{end}}
  </body>
</html>{{end}}

{{define "hub"}}{{template "header" .}}
    <h1>Quran content dashboard</h1>
    <div class="cards">
      {{range .Nav}}
      <a class="card" href="{{.Route}}"><h3>{{.Plural}}</h3><span class="meta">Manage {{.Plural}}</span></a>
      {{end}}
    </div>
{{template "footer" .}}{{end}}

{{define "list"}}{{template "header" .}}
    <script>document.body.dataset.collection = '{{.Schema.Kind.Plural}}';</script>
    <h1>{{.Schema.Plural}}</h1>
    <form method="get" action="{{.Schema.Route}}">
      <input type="search" name="q" value="{{.Query}}" placeholder="Search {{.Schema.Plural}}" />
    </form>
    <p><a href="{{.Schema.Route}}/new">Add {{.Schema.Title}}</a></p>
    {{if .Empty}}<p class="empty">{{.Empty}}</p>{{end}}
    <div class="cards">
      {{range .Cards}}
      <article class="card">
        {{with .ImageURL}}<img src="{{.}}" alt="" />{{end}}
        <h3>{{.Title}}</h3>
        {{with .Subtitle}}<div class="meta">{{.}}</div>{{end}}
        {{with .Meta}}<div class="meta">{{.}}</div>{{end}}
        {{with .Body}}<p>{{.}}</p>{{end}}
        {{with .MediaURL}}<audio controls preload="none" src="{{.}}"></audio>{{end}}
        {{with .LinkURL}}<p><a href="{{.}}" target="_blank" rel="noopener">Open file</a></p>{{end}}
        <div class="actions">
          <a href="{{$.Schema.Route}}/edit/{{.ID}}">Edit</a>
          <a href="{{$.Schema.Route}}/delete/{{.ID}}">Delete</a>
        </div>
      </article>
      {{end}}
    </div>
{{template "footer" .}}{{end}}

{{define "form"}}{{template "header" .}}
    <h1>{{if .Form.IsEdit}}Edit{{else}}Add{{end}} {{.Schema.Title}}</h1>
    <form class="editing" method="post" action="{{.Form.Action}}" enctype="multipart/form-data">
      {{range .Form.Fields}}
      <label for="{{.Key}}">{{.Label}}</label>
      {{if .Multiline}}<textarea id="{{.Key}}" name="{{.Key}}">{{.Value}}</textarea>
      {{else}}<input id="{{.Key}}" name="{{.Key}}" value="{{.Value}}" {{if .Numeric}}inputmode="decimal"{{end}} />{{end}}
      {{end}}
      {{range .Form.Slots}}
      <label for="upload-{{.Name}}">{{.Label}}</label>
      <input id="upload-{{.Name}}" type="file" name="{{.Name}}" accept="{{.Accept}}" />
      {{end}}
      <button class="primary" type="submit">{{if .Form.IsEdit}}Save changes{{else}}Create{{end}}</button>
      <a href="{{.Schema.Route}}">Cancel</a>
    </form>
{{template "footer" .}}{{end}}

{{define "confirm"}}{{template "header" .}}
    <h1>Delete {{.Schema.Title}}?</h1>
    <article class="card">
      <h3>{{.Card.Title}}</h3>
      {{with .Card.Subtitle}}<div class="meta">{{.}}</div>{{end}}
    </article>
    <p>This cannot be undone.</p>
    <form method="post" action="{{.Schema.Route}}/delete/{{.Card.ID}}" class="actions">
      <button class="danger" type="submit">Delete</button>
      <a href="{{.Schema.Route}}">Cancel</a>
    </form>
{{template "footer" .}}{{end}}

{{define "login"}}{{template "header" .}}
    <h1>Sign in</h1>
    <form method="post" action="/login">
      <input type="hidden" name="next" value="{{.Next}}" />
      {{if .KeyRequired}}
      <label for="key">Admin key</label>
      <input id="key" type="password" name="key" autocomplete="current-password" />
      {{end}}
      <button class="primary" type="submit">Continue</button>
    </form>
{{template "footer" .}}{{end}}

{{define "notfound"}}{{template "header" .}}
    <h1>Page not found</h1>
    <p>Nothing lives at this address. <a href="/">Back to the dashboard</a></p>
{{template "footer" .}}{{end}}
`

// pageTemplates holds every HTML page of the admin server.
var pageTemplates = template.Must(template.New("pages").Parse(layoutTemplate))

// pageData is the root value of every page template.
type pageData struct {
	Title         string
	Authenticated bool
	Nav           []*content.Schema
	Flash         *content.Toast

	Schema      *content.Schema
	Cards       []content.Card
	Card        content.Card
	Query       string
	Empty       string
	Form        formData
	Next        string
	KeyRequired bool
}

type formData struct {
	Action string
	IsEdit bool
	Fields []fieldData
	Slots  []content.UploadSlot
}

type fieldData struct {
	content.Field
	Value string
}
