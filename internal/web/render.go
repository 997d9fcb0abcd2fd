package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/k3a/html2text"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/journal"
	"github.com/hpungsan/moodjournal/internal/mood"
	"github.com/hpungsan/moodjournal/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title         string
	Version       string
	Nav           string // active nav item: "entries", "new", "stats"
	Notifications []journal.Notification
}

// EntryView is one entry card.
type EntryView struct {
	entry.Entry
	Emoji    string
	Color    string
	Tint     string
	TagColor string
	Preview  string // plain-text excerpt for the list card
}

// PreviewRunes bounds the list card excerpt.
const PreviewRunes = 280

// ListPageData is the template data for the entry list page.
type ListPageData struct {
	PageData
	Items   []EntryView
	Tags    []entry.Tag
	Tag     entry.Tag
	Pending int
}

// NewPageData is the template data for the entry form.
type NewPageData struct {
	PageData
	Moods    []mood.Classification
	Emotions []string // vocabulary of the selected mood
	Tags     []entry.Tag
	Form     entryForm
	Error    string
	Default  int
}

// DetailPageData is the template data for a single entry.
type DetailPageData struct {
	PageData
	Entry        EntryView
	RenderedHTML template.HTML
	Emotions     []string
}

// StatsPageData is the template data for the stats page.
type StatsPageData struct {
	PageData
	Stats      *ops.StatsOutput
	Background string
	Weekdays   []weekdayRow
	Tags       []entry.Tag
	Tag        entry.Tag
}

type weekdayRow struct {
	Day     string
	Average float64
	Count   int
	Percent float64
	Color   string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *slog.Logger) *Renderer {
	funcMap := template.FuncMap{
		"formatDate": formatDate,
		"css":        func(s string) template.CSS { return template.CSS(s) },
		"pct":        func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
		"px":         func(f float64) string { return fmt.Sprintf("%.1fpx", f) },
		"tenth":      func(f float64) string { return fmt.Sprintf("%.1f", f) },
		"emoji":      mood.Emoji,
		"join":       strings.Join,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":   "list.html",
		"new":    "new.html",
		"detail": "detail.html",
		"stats":  "stats.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
	}
}

func (r *Renderer) page(title, nav string, notes []journal.Notification) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav, Notifications: notes}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	jErr := errors.As(err)
	status := jErr.Status
	message := jErr.Message
	if jErr.Code == errors.ErrInternal {
		r.logger.Error("request failed", "path", req.URL.Path, "error", err)
		message = "internal error"
	}

	if wantsJSON(req) {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(jErr.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", status), "", nil),
		StatusCode: status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

// renderMarkdown converts journal text to sanitized HTML. Raw HTML in the
// source is dropped by goldmark; the UGC policy also strips unsafe URLs.
func (r *Renderer) renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(r.sanitizer.SanitizeBytes(buf.Bytes()))
}

// preview flattens the rendered journal text to a single plain-text line.
func (r *Renderer) preview(md string) string {
	text := strings.Join(strings.Fields(html2text.HTML2Text(string(r.renderMarkdown(md)))), " ")
	if utf8.RuneCountInString(text) <= PreviewRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:PreviewRunes])) + "…"
}

func newEntryView(e entry.Entry, loc *time.Location) EntryView {
	e.Date = e.Date.In(loc)
	return EntryView{
		Entry:    e,
		Emoji:    mood.Emoji(e.MoodValue),
		Color:    mood.Color(e.MoodValue),
		Tint:     mood.Tint(e.MoodValue),
		TagColor: e.Tag.Color(),
	}
}

// formatDate renders a timestamp like "Mon, Mar 10 2025 14:05" in the
// zone the time carries.
func formatDate(t time.Time) string {
	return t.Format("Mon, Jan 2 2006 15:04")
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.URL.Path, "/api/")
}
