package httpserver

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/session"
)

const (
	msgGeneric     = "An error occurred. Please try again."
	msgUnavailable = "The IoT service is currently unreachable. Please try again later."
	msgForbidden   = "Your form has expired. Please reload the page and try again."
	msgNotFound    = "The page or record you requested could not be found."

	msgSessionExpired = "Your session has expired. Please try again."
)

//go:embed templates/*.html
var templateFS embed.FS

var views = parseViews("login", "list", "form", "detail", "confirm", "dashboard", "error")

// Views that post back carry the session's CSRF token.
var formViews = map[string]bool{"login": true, "form": true, "confirm": true}

func parseViews(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return out
}

type link struct {
	Label string
	URL   string
}

// page is the data every template receives; Content holds the view-specific model.
type page struct {
	Title     string
	LoggedIn  bool
	UserEmail string
	UserRole  string
	CSRF      string
	Content   any
}

type listView struct {
	Notice  string
	Columns []string
	Rows    []listRow
	Actions []link
	Empty   string
}

type listRow struct {
	Cells []string
	Links []link
}

type formField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Error    string
	Required bool
	Checked  bool
	Options  []option
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type formView struct {
	Action    string
	Submit    string
	FormError string
	Fields    []formField
	Back      link
}

type detailItem struct {
	Label string
	Value string
}

type detailView struct {
	Items   []detailItem
	Actions []link
}

type confirmView struct {
	Prompt string
	Items  []detailItem
	Action string
	Back   link
}

type errorView struct {
	Message string
	Status  int
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, view, title string, content any) {
	tmpl, ok := views[view]
	if !ok {
		h.log.ErrorContext(r.Context(), "unknown view", "operation", "render", "outcome", "failure", "view", view)
		http.Error(w, msgGeneric, http.StatusInternalServerError)
		return
	}
	sess := session.FromContext(r.Context())
	data := page{
		Title:     title,
		LoggedIn:  sess.LoggedIn(),
		UserEmail: sess.Get(session.KeyUserEmail),
		UserRole:  sess.Get(session.KeyUserRole),
		Content:   content,
	}
	if formViews[view] {
		data.CSRF = sess.CSRFToken()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.ErrorContext(r.Context(), "render failed",
			"operation", "render",
			"outcome", "failure",
			"view", view,
			"error", err.Error(),
		)
		http.Error(w, msgGeneric, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error", http.StatusText(status), errorView{Message: message, Status: status})
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, msgNotFound)
}

// remoteFailure turns a proxy error into a response. Token rejection ends the session.
func (h *handler) remoteFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.WarnContext(r.Context(), "remote operation failed",
		"operation", op,
		"outcome", "failure",
		"error", err.Error(),
	)
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		h.relogin(w, r)
	case errors.Is(err, apiclient.ErrUnavailable):
		session.FromContext(r.Context()).Clear()
		h.renderError(w, r, http.StatusServiceUnavailable, msgUnavailable)
	case errors.Is(err, apiclient.ErrNotFound):
		h.notFound(w, r)
	default:
		h.renderError(w, r, http.StatusBadGateway, apiclient.UserMessage(err))
	}
}

func (h *handler) relogin(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Clear()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// applyErrors copies field errors onto the matching fields and returns the form-level rest.
func applyErrors(fields []formField, fe domain.FieldErrors) string {
	known := make(map[string]bool, len(fields))
	for i := range fields {
		known[fields[i].Name] = true
		if msg, ok := fe[fields[i].Name]; ok {
			fields[i].Error = msg
		}
	}
	var rest domain.FieldErrors
	for k, v := range fe {
		if known[k] {
			continue
		}
		if rest == nil {
			rest = domain.FieldErrors{}
		}
		rest.Add(k, v)
	}
	if rest == nil {
		return ""
	}
	if msg, ok := rest[domain.FormKey]; ok && len(rest) == 1 {
		return msg
	}
	return rest.Error()
}
