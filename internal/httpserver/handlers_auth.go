package httpserver

import (
	"net/http"

	"iotconsole/iot-ui/internal/audit"
	"iotconsole/iot-ui/internal/auth"
	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/session"
)

type loginView struct {
	Email     string
	FormError string
	Errors    domain.FieldErrors
}

func (h *handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).LoggedIn() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", "Log in", loginView{Errors: domain.FieldErrors{}})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, msgGeneric)
		return
	}
	creds := domain.Credentials{
		Email:    formString(r.PostForm, "email"),
		Password: r.PostForm.Get("password"),
	}
	if fe := creds.Validate(); !fe.Empty() {
		h.render(w, r, http.StatusUnprocessableEntity, "login", "Log in", loginView{Email: creds.Email, Errors: fe})
		return
	}

	res, err := h.deps.Auth.Login(r.Context(), creds)
	if err != nil {
		h.audit(r, "login", creds.Email, audit.OutcomeDenied, err.Error())
		h.render(w, r, http.StatusUnauthorized, "login", "Log in", loginView{
			Email:     creds.Email,
			FormError: auth.Message(err),
			Errors:    domain.FieldErrors{},
		})
		return
	}

	sess := session.FromContext(r.Context())
	auth.Establish(sess, res)
	h.audit(r, "login", res.Email, audit.OutcomeSuccess, "")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// logoff is audited before the session is cleared so the entry carries the user's email.
func (h *handler) logoff(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.LoggedIn() {
		h.audit(r, "logoff", sess.Get(session.KeyUserEmail), audit.OutcomeSuccess, "")
	}
	auth.Logoff(sess)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
