package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/audit"
	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/session"
)

const msgOverlapUnchecked = "Existing services could not be loaded to check for overlapping periods. Please try again."

func (h *handler) digitalServices() *crud[domain.DigitalService] {
	return &crud[domain.DigitalService]{
		h:        h,
		res:      h.deps.DigitalServices,
		singular: "Digital service",
		plural:   "Digital services",
		base:     "/services",
		action:   "digital_service",
		scope:    customerScoped("/services"),
		columns:  []string{"Start date", "End date", "Active"},
		row: func(d domain.DigitalService) []string {
			return []string{d.ServiceStartDate.FormValue(), d.ServiceEndDate.FormValue(), yesNo(d.IsActive)}
		},
		details: func(d domain.DigitalService) []detailItem {
			return []detailItem{
				{Label: "Start date", Value: d.ServiceStartDate.FormValue()},
				{Label: "End date", Value: d.ServiceEndDate.FormValue()},
				{Label: "Active", Value: yesNo(d.IsActive)},
				{Label: "Notification users", Value: fmt.Sprint(len(d.NotificationUsers))},
			}
		},
		fields: func(bool) []formField {
			return []formField{
				{Name: "serviceStartDate", Label: "Start date", Type: "date", Required: true},
				{Name: "serviceEndDate", Label: "End date", Type: "date", Required: true},
				checkbox("isActive", "Active"),
			}
		},
		values: func(d domain.DigitalService) map[string]string {
			return map[string]string{
				"serviceStartDate": d.ServiceStartDate.FormValue(),
				"serviceEndDate":   d.ServiceEndDate.FormValue(),
				"isActive":         formatBool(d.IsActive),
			}
		},
		fromForm: func(form url.Values, d *domain.DigitalService) domain.FieldErrors {
			fe := domain.FieldErrors{}
			d.ServiceStartDate = formDate(form, "serviceStartDate", "Start date", fe)
			d.ServiceEndDate = formDate(form, "serviceEndDate", "End date", fe)
			d.IsActive = formBool(form, "isActive")
			return fe
		},
		validate: func(d domain.DigitalService, _ bool) domain.FieldErrors { return d.Validate() },
		id:       func(d domain.DigitalService) string { return d.DigitalServiceID },
		setID:    func(d *domain.DigitalService, id string) { d.DigitalServiceID = id },
		setScope: func(d *domain.DigitalService, customerID string) { d.CustomerID = customerID },
		parentOf: func(d domain.DigitalService) string { return d.CustomerID },

		checkCreate: func(ctx context.Context, token, customerID string, d domain.DigitalService) (domain.FieldErrors, error) {
			return h.checkServiceOverlap(ctx, token, customerID, d)
		},
		checkUpdate: func(ctx context.Context, token string, d domain.DigitalService) (domain.FieldErrors, error) {
			return h.checkServiceOverlap(ctx, token, d.CustomerID, d)
		},

		canShow: true, canCreate: true, canEdit: true, canDelete: true,
	}
}

// checkServiceOverlap refuses the write when the customer's existing services cannot be listed.
func (h *handler) checkServiceOverlap(ctx context.Context, token, customerID string, d domain.DigitalService) (domain.FieldErrors, error) {
	existing, err := h.deps.DigitalServices.List(ctx, token, customerID)
	if err != nil {
		h.log.WarnContext(ctx, "overlap check could not list services",
			"operation", "digital_service_overlap",
			"outcome", "failure",
			"error", err.Error(),
		)
		if isSessionOrConnectivity(err) {
			return nil, err
		}
		return domain.FieldErrors{domain.FormKey: msgOverlapUnchecked}, nil
	}
	return domain.CheckOverlap(d, existing), nil
}

func isSessionOrConnectivity(err error) bool {
	return errors.Is(err, apiclient.ErrUnauthorized) || errors.Is(err, apiclient.ErrUnavailable)
}

func (h *handler) mountDigitalServices(r chi.Router) {
	s := h.digitalServices()
	r.Get("/customers/{id}/services", s.list)
	s.mount(r)

	r.Get("/services/{id}/notification-users", h.listNotificationUsers)
	r.Get("/notification-users/new", h.newNotificationUserForm)
	r.Post("/notification-users/new", h.createNotificationUser)
}

func (h *handler) listNotificationUsers(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	serviceID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(serviceID); err != nil {
		h.notFound(w, r)
		return
	}
	sess.Set(session.KeyDigitalServiceID, serviceID)

	customerID, ok := parentFromSession(r, session.KeyCustomerID)
	if !ok {
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
		return
	}

	token := sess.Token()
	assignments, err := h.deps.NotificationUsers.List(r.Context(), token, serviceID)
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.degraded(r, "list_notification_user", err)
	}
	users, err := h.deps.Users.List(r.Context(), token, customerID)
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.degraded(r, "list_user", err)
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[strings.ToLower(u.UserID)] = u
	}

	view := listView{
		Columns: []string{"Email", "First name", "Last name"},
		Empty:   "No notification users assigned.",
		Actions: []link{
			{Label: "Add notification user", URL: "/notification-users/new"},
			{Label: "Back to digital services", URL: "/customers/" + url.PathEscape(customerID) + "/services"},
		},
	}
	seen := map[string]bool{}
	for _, a := range assignments {
		for _, userID := range a.NotificationUsers {
			key := strings.ToLower(userID)
			if seen[key] {
				continue
			}
			seen[key] = true
			u, ok := byID[key]
			if !ok {
				view.Rows = append(view.Rows, listRow{Cells: []string{userID, "", ""}})
				continue
			}
			view.Rows = append(view.Rows, listRow{Cells: []string{u.Email, u.FirstName, u.LastName}})
		}
	}
	h.render(w, r, http.StatusOK, "list", "Notification users", view)
}

func (h *handler) notificationUserFields(r *http.Request, customerID, selected string) []formField {
	users, err := h.deps.Users.List(r.Context(), session.FromContext(r.Context()).Token(), customerID)
	if err != nil {
		h.log.WarnContext(r.Context(), "user options degraded to empty",
			"operation", "list_user",
			"outcome", "failure",
			"error", err.Error(),
		)
	}
	opts := make([]option, 0, len(users))
	for _, u := range users {
		opts = append(opts, option{
			Value:    u.UserID,
			Label:    strings.TrimSpace(u.FirstName + " " + u.LastName + " <" + u.Email + ">"),
			Selected: u.UserID == selected,
		})
	}
	return []formField{{Name: "userID", Label: "User", Type: "select", Required: true, Value: selected, Options: opts}}
}

func (h *handler) notificationParents(w http.ResponseWriter, r *http.Request) (serviceID, customerID string, ok bool) {
	serviceID, ok = parentFromSession(r, session.KeyDigitalServiceID)
	if !ok {
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
		return "", "", false
	}
	customerID, ok = parentFromSession(r, session.KeyCustomerID)
	if !ok {
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
		return "", "", false
	}
	return serviceID, customerID, true
}

func (h *handler) newNotificationUserForm(w http.ResponseWriter, r *http.Request) {
	serviceID, customerID, ok := h.notificationParents(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "form", "Add notification user", formView{
		Action: "/notification-users/new",
		Submit: "Add",
		Fields: h.notificationUserFields(r, customerID, ""),
		Back:   link{Label: "Back to list", URL: "/services/" + url.PathEscape(serviceID) + "/notification-users"},
	})
}

func (h *handler) createNotificationUser(w http.ResponseWriter, r *http.Request) {
	serviceID, customerID, ok := h.notificationParents(w, r)
	if !ok {
		return
	}
	listURL := "/services/" + url.PathEscape(serviceID) + "/notification-users"
	userID := strings.TrimSpace(r.PostFormValue("userID"))

	rerender := func(status int, fieldErr, formErr string) {
		fields := h.notificationUserFields(r, customerID, userID)
		fields[0].Error = fieldErr
		h.render(w, r, status, "form", "Add notification user", formView{
			Action:    "/notification-users/new",
			Submit:    "Add",
			FormError: formErr,
			Fields:    fields,
			Back:      link{Label: "Back to list", URL: listURL},
		})
	}
	if _, err := uuid.Parse(userID); err != nil {
		rerender(http.StatusUnprocessableEntity, "Please select a user.", "")
		return
	}

	assignment := domain.DigitalService{
		DigitalServiceID:  serviceID,
		CustomerID:        customerID,
		NotificationUsers: []string{userID},
	}
	if _, err := h.deps.NotificationUsers.Create(r.Context(), session.FromContext(r.Context()).Token(), serviceID, assignment); err != nil {
		h.audit(r, "notification_user.create", serviceID, audit.OutcomeFailure, apiclient.UserMessage(err))
		if h.unauthorized(w, r, err) {
			return
		}
		rerender(http.StatusUnprocessableEntity, "", apiclient.UserMessage(err))
		return
	}
	h.audit(r, "notification_user.create", serviceID, audit.OutcomeSuccess, "user="+userID)
	http.Redirect(w, r, listURL, http.StatusSeeOther)
}

// unauthorized ends the session and redirects when err is a token rejection.
func (h *handler) unauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		h.relogin(w, r)
		return true
	}
	return false
}
