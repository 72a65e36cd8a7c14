package httpserver

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/audit"
	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/session"
)

const msgRegisterFailed = "Error creating user. Please try again."

func userFields(create bool) []formField {
	fields := []formField{
		{Name: "email", Label: "Email", Type: "email", Required: true},
		text("firstName", "First name", true),
		text("lastName", "Last name", true),
	}
	if create {
		fields = append(fields,
			formField{Name: "password", Label: "Password", Type: "password", Required: true},
			formField{Name: "confirmPassword", Label: "Confirm password", Type: "password", Required: true},
		)
	}
	return fields
}

func userValues(u domain.User) map[string]string {
	return map[string]string{
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
	}
}

func userFromForm(form url.Values, u *domain.User) domain.FieldErrors {
	u.Email = formString(form, "email")
	u.FirstName = formString(form, "firstName")
	u.LastName = formString(form, "lastName")
	u.Password = form.Get("password")
	u.ConfirmPassword = form.Get("confirmPassword")
	return domain.FieldErrors{}
}

func validateUser(u domain.User, create bool) domain.FieldErrors {
	if create {
		return u.ValidateRegistration()
	}
	return u.Validate()
}

func userRow(u domain.User) []string {
	return []string{u.Email, u.FirstName, u.LastName, yesNo(u.EmailVerified)}
}

func userDetails(u domain.User) []detailItem {
	return []detailItem{
		{Label: "Email", Value: u.Email},
		{Label: "First name", Value: u.FirstName},
		{Label: "Last name", Value: u.LastName},
		{Label: "Email verified", Value: yesNo(u.EmailVerified)},
	}
}

func (h *handler) users() *crud[domain.User] {
	return &crud[domain.User]{
		h:        h,
		res:      h.deps.Users,
		singular: "User",
		plural:   "Users",
		base:     "/users",
		action:   "user",
		scope:    customerScoped("/users"),
		columns:  []string{"Email", "First name", "Last name", "Verified"},
		row:      userRow,
		details:  userDetails,
		fields:   userFields,
		values:   userValues,
		fromForm: userFromForm,
		validate: validateUser,
		id:       func(u domain.User) string { return u.UserID },
		setID:    func(u *domain.User, id string) { u.UserID = id },
		setScope: func(u *domain.User, customerID string) { u.CustomerID = customerID },
		parentOf: func(u domain.User) string { return u.CustomerID },

		canShow: true, canCreate: true, canEdit: true, canDelete: true,
	}
}

func (h *handler) admins() *crud[domain.User] {
	return &crud[domain.User]{
		h:        h,
		res:      h.deps.Admins,
		singular: "Admin",
		plural:   "Admins",
		base:     "/admins",
		action:   "admin",
		columns:  []string{"Email", "First name", "Last name", "Verified"},
		row:      userRow,
		details:  userDetails,
		fields:   userFields,
		values:   userValues,
		fromForm: userFromForm,
		validate: validateUser,
		id:       func(u domain.User) string { return u.UserID },
		setID:    func(u *domain.User, id string) { u.UserID = id },

		canEdit: true,
	}
}

func (h *handler) mountUsers(r chi.Router) {
	u := h.users()
	r.Get("/customers/{id}/users", u.list)
	u.mount(r)

	a := h.admins()
	r.Get("/admins", a.list)
	a.mount(r)
}

func (h *handler) registerAdminForm(w http.ResponseWriter, r *http.Request) {
	h.renderRegisterAdmin(w, r, http.StatusOK, userFields(true), "")
}

func (h *handler) renderRegisterAdmin(w http.ResponseWriter, r *http.Request, status int, fields []formField, formErr string) {
	h.render(w, r, status, "form", "Register administrator", formView{
		Action:    "/admin/register",
		Submit:    "Register",
		FormError: formErr,
		Fields:    fields,
		Back:      link{Label: "Back to login", URL: "/login"},
	})
}

// registerFields echoes the posted registration back onto the form, passwords excluded.
func registerFields(form url.Values) []formField {
	var u domain.User
	userFromForm(form, &u)
	values := userValues(u)
	fields := userFields(true)
	for i := range fields {
		if fields[i].Type != "password" {
			fields[i].Value = values[fields[i].Name]
		}
	}
	return fields
}

// registerAdmin is reachable without a session token and sends to the login page on success.
func (h *handler) registerAdmin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, msgGeneric)
		return
	}
	var u domain.User
	fe := userFromForm(r.PostForm, &u)
	for k, v := range u.ValidateRegistration() {
		fe.Add(k, v)
	}
	fields := registerFields(r.PostForm)
	if !fe.Empty() {
		formErr := applyErrors(fields, fe)
		h.renderRegisterAdmin(w, r, http.StatusUnprocessableEntity, fields, formErr)
		return
	}

	token := session.FromContext(r.Context()).Token()
	if _, err := h.deps.Admins.Create(r.Context(), token, "", u); err != nil {
		h.audit(r, "admin.register", u.Email, audit.OutcomeFailure, apiclient.UserMessage(err))
		h.log.WarnContext(r.Context(), "admin registration rejected",
			"operation", "register_admin",
			"outcome", "failure",
			"error", err.Error(),
		)
		h.renderRegisterAdmin(w, r, http.StatusUnprocessableEntity, fields, msgRegisterFailed)
		return
	}
	h.audit(r, "admin.register", u.Email, audit.OutcomeSuccess, "")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
