package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/audit"
	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/session"
)

// scope describes a resource that lives under a parent, e.g. sites under a customer. The
// parent id is echoed into the session by the list page and read back by the create form.
type scope struct {
	key      string // session key
	param    string // URL parameter on the list route
	listPath func(parentID string) string
	fallback string // where to go when no valid parent id is known
}

// crud serves list/detail/form pages for one remote resource.
type crud[T any] struct {
	h        *handler
	res      Resource[T]
	singular string
	plural   string
	base     string
	action   string
	scope    *scope

	columns  []string
	row      func(T) []string
	details  func(T) []detailItem
	fields   func(create bool) []formField
	values   func(T) map[string]string
	fromForm func(form url.Values, v *T) domain.FieldErrors
	validate func(v T, create bool) domain.FieldErrors
	id       func(T) string
	setID    func(v *T, id string)
	setScope func(v *T, parentID string)
	parentOf func(T) string

	// checkCreate and checkUpdate run remote-backed validation after local checks pass.
	checkCreate func(ctx context.Context, token, parentID string, v T) (domain.FieldErrors, error)
	checkUpdate func(ctx context.Context, token string, v T) (domain.FieldErrors, error)

	canShow, canCreate, canEdit, canDelete bool
}

func (c *crud[T]) listURL(r *http.Request) string {
	if c.scope == nil {
		return c.base
	}
	if parentID, ok := parentFromSession(r, c.scope.key); ok {
		return c.scope.listPath(parentID)
	}
	return c.scope.fallback
}

func (c *crud[T]) itemURL(id, suffix string) string {
	return c.base + "/" + url.PathEscape(id) + suffix
}

func parentFromSession(r *http.Request, key string) (string, bool) {
	id := session.FromContext(r.Context()).Get(key)
	if id == "" {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (c *crud[T]) list(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	parentID := ""
	if c.scope != nil {
		parentID = chi.URLParam(r, c.scope.param)
		if _, err := uuid.Parse(parentID); err != nil {
			c.h.notFound(w, r)
			return
		}
		sess.Set(c.scope.key, parentID)
	}

	view := listView{Columns: c.columns, Empty: "No " + lower(c.plural) + " found."}
	items, err := c.res.List(r.Context(), sess.Token(), parentID)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			c.h.relogin(w, r)
			return
		}
		c.h.log.WarnContext(r.Context(), "list degraded to empty",
			"operation", "list_"+c.action,
			"outcome", "failure",
			"error", err.Error(),
		)
		items = nil
	}

	if c.canCreate {
		view.Actions = append(view.Actions, link{Label: "New " + lower(c.singular), URL: c.base + "/new"})
	}
	for _, item := range items {
		row := listRow{Cells: c.row(item)}
		id := c.id(item)
		if id != "" {
			if c.canShow {
				row.Links = append(row.Links, link{Label: "Details", URL: c.itemURL(id, "")})
			}
			if c.canEdit {
				row.Links = append(row.Links, link{Label: "Edit", URL: c.itemURL(id, "/edit")})
			}
			if c.canDelete {
				row.Links = append(row.Links, link{Label: "Delete", URL: c.itemURL(id, "/delete")})
			}
			row.Links = append(row.Links, c.h.childLinks(c.action, id)...)
		}
		view.Rows = append(view.Rows, row)
	}
	c.h.render(w, r, http.StatusOK, "list", c.plural, view)
}

func (c *crud[T]) show(w http.ResponseWriter, r *http.Request) {
	item, ok := c.load(w, r)
	if !ok {
		return
	}
	id := c.id(item)
	view := detailView{Items: c.details(item)}
	if c.canEdit {
		view.Actions = append(view.Actions, link{Label: "Edit", URL: c.itemURL(id, "/edit")})
	}
	if c.canDelete {
		view.Actions = append(view.Actions, link{Label: "Delete", URL: c.itemURL(id, "/delete")})
	}
	view.Actions = append(view.Actions, c.h.childLinks(c.action, id)...)
	view.Actions = append(view.Actions, link{Label: "Back to list", URL: c.listURL(r)})
	c.h.render(w, r, http.StatusOK, "detail", c.singular+" details", view)
}

func (c *crud[T]) load(w http.ResponseWriter, r *http.Request) (T, bool) {
	id := chi.URLParam(r, "id")
	item, err := c.res.Get(r.Context(), session.FromContext(r.Context()).Token(), id)
	if err != nil {
		c.h.remoteFailure(w, r, "get_"+c.action, err)
		return item, false
	}
	return item, true
}

// requireParent resolves the parent id for create pages, redirecting when it is unknown.
func (c *crud[T]) requireParent(w http.ResponseWriter, r *http.Request) (string, bool) {
	if c.scope == nil {
		return "", true
	}
	parentID, ok := parentFromSession(r, c.scope.key)
	if !ok {
		http.Redirect(w, r, c.scope.fallback, http.StatusSeeOther)
		return "", false
	}
	return parentID, true
}

func (c *crud[T]) newForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := c.requireParent(w, r); !ok {
		return
	}
	var zero T
	c.renderForm(w, r, http.StatusOK, true, c.base+"/new", c.fill(c.fields(true), c.values(zero)), "")
}

func (c *crud[T]) create(w http.ResponseWriter, r *http.Request) {
	parentID, ok := c.requireParent(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		c.h.renderError(w, r, http.StatusBadRequest, msgGeneric)
		return
	}

	var item T
	fe := c.fromForm(r.PostForm, &item)
	if fe == nil {
		fe = domain.FieldErrors{}
	}
	if c.setScope != nil {
		c.setScope(&item, parentID)
	}
	for k, v := range c.validate(item, true) {
		fe.Add(k, v)
	}
	token := session.FromContext(r.Context()).Token()
	if fe.Empty() && c.checkCreate != nil {
		remote, err := c.checkCreate(r.Context(), token, parentID, item)
		if err != nil {
			c.formFailure(w, r, true, c.base+"/new", item, err)
			return
		}
		fe = remote
	}
	if !fe.Empty() {
		c.renderInvalid(w, r, true, c.base+"/new", item, fe)
		return
	}

	id, err := c.res.Create(r.Context(), token, parentID, item)
	if err != nil {
		c.h.audit(r, c.action+".create", "", audit.OutcomeFailure, apiclient.UserMessage(err))
		c.formFailure(w, r, true, c.base+"/new", item, err)
		return
	}
	c.h.audit(r, c.action+".create", id, audit.OutcomeSuccess, "")
	http.Redirect(w, r, c.listURL(r), http.StatusSeeOther)
}

func (c *crud[T]) editForm(w http.ResponseWriter, r *http.Request) {
	item, ok := c.load(w, r)
	if !ok {
		return
	}
	c.renderForm(w, r, http.StatusOK, false, c.itemURL(chi.URLParam(r, "id"), "/edit"), c.fill(c.fields(false), c.values(item)), "")
}

// update applies the posted fields onto the stored record so that fields the form does not
// carry, including the owning parent, are sent back unchanged.
func (c *crud[T]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := c.itemURL(id, "/edit")
	if err := r.ParseForm(); err != nil {
		c.h.renderError(w, r, http.StatusBadRequest, msgGeneric)
		return
	}
	item, ok := c.load(w, r)
	if !ok {
		return
	}

	fe := c.fromForm(r.PostForm, &item)
	if fe == nil {
		fe = domain.FieldErrors{}
	}
	c.setID(&item, id)
	if c.setScope != nil && c.parentOf != nil && c.parentOf(item) == "" {
		if parentID, ok := parentFromSession(r, c.scope.key); ok {
			c.setScope(&item, parentID)
		}
	}
	for k, v := range c.validate(item, false) {
		fe.Add(k, v)
	}
	token := session.FromContext(r.Context()).Token()
	if fe.Empty() && c.checkUpdate != nil {
		remote, err := c.checkUpdate(r.Context(), token, item)
		if err != nil {
			c.formFailure(w, r, false, action, item, err)
			return
		}
		fe = remote
	}
	if !fe.Empty() {
		c.renderInvalid(w, r, false, action, item, fe)
		return
	}

	if err := c.res.Update(r.Context(), token, item); err != nil {
		c.h.audit(r, c.action+".update", id, audit.OutcomeFailure, apiclient.UserMessage(err))
		c.formFailure(w, r, false, action, item, err)
		return
	}
	c.h.audit(r, c.action+".update", id, audit.OutcomeSuccess, "")
	http.Redirect(w, r, c.ownerListURL(r, item), http.StatusSeeOther)
}

// ownerListURL is the list page of the record's own parent, falling back to the session echo.
func (c *crud[T]) ownerListURL(r *http.Request, item T) string {
	if c.scope != nil && c.parentOf != nil {
		if parentID := c.parentOf(item); parentID != "" {
			if _, err := uuid.Parse(parentID); err == nil {
				return c.scope.listPath(parentID)
			}
		}
	}
	return c.listURL(r)
}

func (c *crud[T]) confirmDelete(w http.ResponseWriter, r *http.Request) {
	item, ok := c.load(w, r)
	if !ok {
		return
	}
	id := c.id(item)
	if id == "" {
		id = chi.URLParam(r, "id")
	}
	c.h.render(w, r, http.StatusOK, "confirm", "Delete "+lower(c.singular), confirmView{
		Prompt: "Are you sure you want to delete this " + lower(c.singular) + "?",
		Items:  c.details(item),
		Action: c.itemURL(id, "/delete"),
		Back:   link{Label: "Cancel", URL: c.listURL(r)},
	})
}

func (c *crud[T]) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := c.res.Delete(r.Context(), session.FromContext(r.Context()).Token(), id)
	if err != nil {
		c.h.audit(r, c.action+".delete", id, audit.OutcomeFailure, err.Error())
		c.h.remoteFailure(w, r, "delete_"+c.action, err)
		return
	}
	c.h.audit(r, c.action+".delete", id, audit.OutcomeSuccess, "")
	http.Redirect(w, r, c.listURL(r), http.StatusSeeOther)
}

// formFailure handles a failed write: session and connectivity problems leave the form,
// anything else is shown on it.
func (c *crud[T]) formFailure(w http.ResponseWriter, r *http.Request, create bool, action string, item T, err error) {
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		c.h.relogin(w, r)
		return
	case errors.Is(err, apiclient.ErrUnavailable):
		c.h.remoteFailure(w, r, "write_"+c.action, err)
		return
	}
	c.h.log.WarnContext(r.Context(), "remote write rejected",
		"operation", "write_"+c.action,
		"outcome", "failure",
		"error", err.Error(),
	)
	c.renderForm(w, r, http.StatusUnprocessableEntity, create, action, c.fill(c.fields(create), c.values(item)), apiclient.UserMessage(err))
}

func (c *crud[T]) renderInvalid(w http.ResponseWriter, r *http.Request, create bool, action string, item T, fe domain.FieldErrors) {
	fields := c.fill(c.fields(create), c.values(item))
	formErr := applyErrors(fields, fe)
	c.renderForm(w, r, http.StatusUnprocessableEntity, create, action, fields, formErr)
}

func (c *crud[T]) renderForm(w http.ResponseWriter, r *http.Request, status int, create bool, action string, fields []formField, formErr string) {
	title, submit := "Edit "+lower(c.singular), "Save"
	if create {
		title, submit = "New "+lower(c.singular), "Create"
	}
	c.h.render(w, r, status, "form", title, formView{
		Action:    action,
		Submit:    submit,
		FormError: formErr,
		Fields:    fields,
		Back:      link{Label: "Back to list", URL: c.listURL(r)},
	})
}

// fill copies values onto the field definitions. Passwords are never echoed back.
func (c *crud[T]) fill(fields []formField, values map[string]string) []formField {
	for i := range fields {
		f := &fields[i]
		if f.Type == "password" {
			continue
		}
		v := values[f.Name]
		switch f.Type {
		case "checkbox":
			f.Checked = v == "true"
		case "select":
			for j := range f.Options {
				f.Options[j].Selected = f.Options[j].Value == v
			}
			f.Value = v
		default:
			f.Value = v
		}
	}
	return fields
}

// mount registers the item routes under base. The list route is registered by the caller
// because scoped resources list under their parent.
func (c *crud[T]) mount(r chi.Router) {
	if c.canCreate {
		r.Get(c.base+"/new", c.newForm)
		r.Post(c.base+"/new", c.create)
	}
	if c.canShow {
		r.Get(c.base+"/{id}", c.show)
	}
	if c.canEdit {
		r.Get(c.base+"/{id}/edit", c.editForm)
		r.Post(c.base+"/{id}/edit", c.update)
	}
	if c.canDelete {
		r.Get(c.base+"/{id}/delete", c.confirmDelete)
		r.Post(c.base+"/{id}/delete", c.remove)
	}
}
