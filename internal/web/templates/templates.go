// Package templates renders the admin HTML pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/churchbase/internal/core"
	"github.com/a-h/templ"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;max-width:64rem}
.notice{padding:.5rem 1rem;margin:.25rem 0;border-radius:4px}
.notice-success{background:#e6f4ea;color:#1e4620}
.notice-warning{background:#fff4e5;color:#663c00}
.notice-error{background:#fdecea;color:#611a15}
table{border-collapse:collapse;width:100%}td,th{border-bottom:1px solid #ddd;padding:.25rem .5rem;text-align:left}`

// MembersPageData feeds MembersPage.
type MembersPageData struct {
	Notices []core.Notice
	Members []core.Member
	Actions []core.Action
	Limiter core.ImportLimiterStatus
	Query   string

	// Selected category filter; empty means all.
	Category core.Category
}

// MembersPage is the member list with the CSV import form and the bulk
// action buttons.
func MembersPage(d MembersPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Members</title><style>`)
		p.raw(pageStyle)
		p.raw(`</style></head><body><h1>Members</h1>`)

		if err := Notices(d.Notices).Render(ctx, w); err != nil {
			return err
		}

		p.raw(`<section><h2>Import members</h2>`)
		p.raw(`<form method="post" action="/admin/members/import" enctype="multipart/form-data">`)
		p.raw(`<input type="file" name="csv_file" accept=".csv"> <button type="submit">Import</button></form>`)
		p.raw(`<p><a href="/admin/members/sample.csv">Download sample CSV</a></p>`)
		p.text(fmt.Sprintf("Imports running: %d of %d", d.Limiter.Active, d.Limiter.MaxConcurrent))
		p.raw(`</section>`)

		p.raw(`<section><h2>Search</h2><form method="get" action="/admin/members">`)
		p.raw(`<input type="search" name="q" value="`)
		p.text(d.Query)
		p.raw(`"> <select name="category"><option value="">All categories</option>`)
		for _, c := range core.Categories() {
			p.raw(`<option value="`)
			p.text(string(c))
			p.raw(`"`)
			if c == d.Category {
				p.raw(` selected`)
			}
			p.raw(`>`)
			p.text(string(c))
			p.raw(`</option>`)
		}
		p.raw(`</select> <button type="submit">Search</button></form></section>`)

		p.raw(`<form method="post"><table><thead><tr><th></th><th>Name</th><th>Contact 1</th><th>Gender</th><th>Email</th><th>Category</th></tr></thead><tbody>`)
		for _, m := range d.Members {
			p.raw(`<tr><td><input type="checkbox" name="ids" value="`)
			p.text(m.ID.String())
			p.raw(`"></td>`)
			for _, cell := range []string{m.FullName(), m.Contact1, m.Gender.Label(), m.Email, string(m.Category)} {
				p.raw(`<td>`)
				p.text(cell)
				p.raw(`</td>`)
			}
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table><p>`)
		for _, a := range d.Actions {
			p.raw(`<button type="submit" formaction="/admin/members/actions/`)
			p.text(a.Name)
			p.raw(`">`)
			p.text(a.Label)
			p.raw(`</button> `)
		}
		p.raw(`</p></form></body></html>`)
		return p.err
	})
}

// Notices renders flash notices, one alert each.
func Notices(notices []core.Notice) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		for _, n := range notices {
			p.raw(`<div class="notice notice-`)
			p.text(string(n.Level))
			p.raw(`" role="alert">`)
			p.text(n.Message)
			p.raw(`</div>`)
		}
		return p.err
	})
}

// ErrorAlert is the standalone error page for non-API requests.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Error</title><style>`)
		p.raw(pageStyle)
		p.raw(`</style></head><body><div class="notice notice-error" role="alert"><strong>`)
		p.text(message)
		p.raw(`</strong>`)
		if action != "" {
			p.raw(`<p>`)
			p.text(action)
			p.raw(`</p>`)
		}
		if code != "" {
			p.raw(`<small>Error code: `)
			p.text(code)
			p.raw(`</small>`)
		}
		p.raw(`</div><p><a href="/admin/members">Back to members</a></p></body></html>`)
		return p.err
	})
}

// printer keeps the first write error so components can write freely and
// check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(strings.TrimSpace(s)))
}
