package web

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/moodjournal/internal/analytics"
	"github.com/hpungsan/moodjournal/internal/entry"
	"github.com/hpungsan/moodjournal/internal/errors"
	"github.com/hpungsan/moodjournal/internal/journal"
	"github.com/hpungsan/moodjournal/internal/mood"
	"github.com/hpungsan/moodjournal/internal/ops"
)

// maxFormBytes bounds the size of a submitted entry.
const maxFormBytes = 1 << 20

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	journal  *journal.Journal
	renderer *Renderer
	loc      *time.Location
}

// entryForm holds the raw form fields so they can be echoed back on error.
type entryForm struct {
	Journal   string `json:"journal"`
	MoodValue string `json:"-"`
	Tag       string `json:"tag"`
	Emotion   string `json:"emotion"`
}

type createRequest struct {
	Journal   string `json:"journal"`
	MoodValue int    `json:"mood_value"`
	Tag       string `json:"tag"`
	Emotion   string `json:"emotion"`
}

// HandleList handles GET /entries: every entry newest first, optionally one tag.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	tag, err := parseTagParam(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	entries, err := h.journal.Entries(r.Context(), tag)
	if err != nil && !errors.Is(err, errors.ErrStoreUnavailable) {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"items":   entries,
			"pending": len(h.journal.Pending()),
		})
		return
	}

	items := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		view := newEntryView(e, h.loc)
		view.Preview = h.renderer.preview(e.Journal)
		items = append(items, view)
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: h.renderer.page("Journal", "entries", h.journal.Notifications()),
		Items:    items,
		Tags:     entry.Tags,
		Tag:      tag,
		Pending:  len(h.journal.Pending()),
	})
}

// HandleNew handles GET /entries/new: the entry form.
func (h *Handlers) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, entryForm{MoodValue: strconv.Itoa(mood.NeutralValue), Tag: string(entry.DefaultTag)}, "")
}

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, form entryForm, msg string) {
	moods := make([]mood.Classification, 0, mood.MaxValue)
	for v := mood.MinValue; v <= mood.MaxValue; v++ {
		moods = append(moods, mood.Classify(v))
	}
	def, err := strconv.Atoi(form.MoodValue)
	if err != nil || !mood.Valid(def) {
		def = mood.NeutralValue
	}

	h.renderer.renderPageStatus(w, r, status, "new", NewPageData{
		PageData: h.renderer.page("New entry", "new", nil),
		Moods:    moods,
		Emotions: mood.Emotions(def),
		Tags:     entry.Tags,
		Form:     form,
		Error:    msg,
		Default:  def,
	})
}

// HandleCreate handles POST /entries from the form or as JSON.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var (
		input entry.NewInput
		form  entryForm
	)
	isJSONBody := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")

	if isJSONBody {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid JSON body"))
			return
		}
		input = entry.NewInput{Journal: req.Journal, MoodValue: req.MoodValue, Tag: req.Tag, Emotion: req.Emotion}
	} else {
		if err := r.ParseForm(); err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
			return
		}
		form = entryForm{
			Journal:   r.PostFormValue("journal"),
			MoodValue: r.PostFormValue("mood_value"),
			Tag:       r.PostFormValue("tag"),
			Emotion:   r.PostFormValue("emotion"),
		}
		v, err := strconv.Atoi(strings.TrimSpace(form.MoodValue))
		if err != nil {
			h.renderForm(w, r, http.StatusBadRequest, form, "mood_value: must be a number between 1 and 9")
			return
		}
		if form.Emotion != "" && !mood.IsEmotionFor(v, form.Emotion) {
			// the mood changed after an emotion was picked
			form.Emotion = mood.DefaultEmotion(v)
		}
		input = entry.NewInput{Journal: form.Journal, MoodValue: v, Tag: form.Tag, Emotion: form.Emotion}
	}

	e, err := h.journal.Add(r.Context(), input)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrStoreUnavailable):
		// the entry is kept in memory; show it along with the failure
		if isJSONBody || wantsJSON(r) {
			renderJSON(w, http.StatusServiceUnavailable, map[string]any{
				"entry": e,
				"error": map[string]any{
					"code":    string(errors.ErrStoreUnavailable),
					"message": journal.MsgSaveFailed,
					"status":  http.StatusServiceUnavailable,
				},
			})
			return
		}
		h.redirect(w, r, "/entries")
		return
	case errors.Is(err, errors.ErrInvalidRequest) && !isJSONBody && !wantsJSON(r):
		h.renderForm(w, r, http.StatusBadRequest, form, errors.As(err).Message)
		return
	default:
		h.renderer.renderError(w, r, err)
		return
	}

	if isJSONBody || wantsJSON(r) {
		renderJSON(w, http.StatusCreated, ops.AddOutput{ID: e.ID, UID: e.UID, Mood: e.Mood, Entry: e})
		return
	}
	h.redirect(w, r, "/entries")
}

// HandleDetail handles GET /entries/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	e, err := h.journal.Get(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, ops.FetchOutput{
			Entry:          e,
			Classification: e.Classification(),
			TagColor:       e.Tag.Color(),
		})
		return
	}

	view := newEntryView(e, h.loc)
	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:     h.renderer.page(e.Mood, "entries", h.journal.Notifications()),
		Entry:        view,
		RenderedHTML: h.renderer.renderMarkdown(e.Journal),
		Emotions:     mood.Emotions(e.MoodValue),
	})
}

// HandleDelete handles DELETE /entries/{id} and POST /entries/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if err := h.journal.Delete(r.Context(), id); err != nil {
		// the failure notification is shown on the list page
		if errors.Is(err, errors.ErrStoreUnavailable) && !wantsJSON(r) {
			h.redirect(w, r, "/entries")
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, ops.DeleteOutput{Deleted: true, ID: id})
		return
	}
	h.redirect(w, r, "/entries")
}

// HandleRetry handles POST /entries/retry: save entries held in memory.
func (h *Handlers) HandleRetry(w http.ResponseWriter, r *http.Request) {
	saved, err := h.journal.Retry(r.Context())
	if wantsJSON(r) {
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		renderJSON(w, http.StatusOK, map[string]any{
			"saved":   saved,
			"pending": len(h.journal.Pending()),
		})
		return
	}
	h.redirect(w, r, "/entries")
}

// HandleStats handles GET /stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	tag, err := parseTagParam(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := h.journal.Stats(r.Context(), tag)
	if err != nil && !errors.Is(err, errors.ErrStoreUnavailable) {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}

	h.renderer.renderPage(w, r, "stats", StatsPageData{
		PageData:   h.renderer.page("Mood insights", "stats", h.journal.Notifications()),
		Stats:      out,
		Background: mood.Gradient(out.Stats.AverageMood, false),
		Weekdays:   weekdayRows(out.Stats.MoodByDay),
		Tags:       entry.Tags,
		Tag:        tag,
	})
}

// HandleAPIStats handles GET /api/stats.
func (h *Handlers) HandleAPIStats(w http.ResponseWriter, r *http.Request) {
	tag, err := parseTagParam(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := h.journal.Stats(r.Context(), tag)
	if err != nil && !errors.Is(err, errors.ErrStoreUnavailable) {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleClassify handles GET /api/moods/{value}.
func (h *Handlers) HandleClassify(w http.ResponseWriter, r *http.Request) {
	v, err := strconv.Atoi(chi.URLParam(r, "value"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidField("value", "must be an integer"))
		return
	}

	c, err := ops.Classify(ops.ClassifyInput{Value: v})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, c)
}

// HandleHealth handles GET /health.
// A store that does not answer reports 503 with status "degraded".
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := h.journal.Ping(r.Context()); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	renderJSON(w, code, map[string]any{
		"status":  status,
		"pending": len(h.journal.Pending()),
	})
}

// redirect answers a form post with a 303 to the page to show next.
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func weekdayRows(byDay map[string]analytics.DayStats) []weekdayRow {
	rows := make([]weekdayRow, 0, len(analytics.Weekdays))
	for _, day := range analytics.Weekdays {
		ds, ok := byDay[day]
		if !ok {
			rows = append(rows, weekdayRow{Day: day})
			continue
		}
		rows = append(rows, weekdayRow{
			Day:     day,
			Average: ds.Average,
			Count:   ds.Count,
			Percent: ds.Average / mood.MaxValue * 100,
			Color:   mood.Color(int(math.Floor(ds.Average + 0.5))),
		})
	}
	return rows
}

// parseTagParam reads ?tag=. Empty means all tags.
func parseTagParam(r *http.Request) (entry.Tag, error) {
	s := strings.TrimSpace(r.URL.Query().Get("tag"))
	if s == "" {
		return "", nil
	}
	return entry.ParseTag(s)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidField("id", "must be a positive integer")
	}
	return id, nil
}

func notFound(path string) error {
	return &errors.JournalError{
		Code:    errors.ErrNotFound,
		Status:  http.StatusNotFound,
		Message: "page not found: " + path,
	}
}
