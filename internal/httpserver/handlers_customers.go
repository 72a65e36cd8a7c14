package httpserver

import (
	"net/url"

	"github.com/go-chi/chi/v5"

	"iotconsole/iot-ui/internal/domain"
)

func (h *handler) customers() *crud[domain.Customer] {
	return &crud[domain.Customer]{
		h:        h,
		res:      h.deps.Customers,
		singular: "Customer",
		plural:   "Customers",
		base:     "/customers",
		action:   "customer",
		columns:  []string{"Name", "Email", "Phone", "City", "Region", "Active"},
		row: func(c domain.Customer) []string {
			return []string{c.CustomerName, c.CustomerEmail, c.CustomerPhone, c.CustomerCity, c.CustomerRegion, yesNo(c.IsActive)}
		},
		details: func(c domain.Customer) []detailItem {
			return []detailItem{
				{Label: "Name", Value: c.CustomerName},
				{Label: "Email", Value: c.CustomerEmail},
				{Label: "Phone", Value: c.CustomerPhone},
				{Label: "City", Value: c.CustomerCity},
				{Label: "Region", Value: c.CustomerRegion},
				{Label: "Active", Value: yesNo(c.IsActive)},
			}
		},
		fields: func(bool) []formField {
			return []formField{
				text("customerName", "Name", true),
				{Name: "customerEmail", Label: "Email", Type: "email", Required: true},
				{Name: "customerPhone", Label: "Phone", Type: "tel", Required: true},
				text("customerCity", "City", true),
				text("customerRegion", "Region", true),
				checkbox("isActive", "Active"),
			}
		},
		values: func(c domain.Customer) map[string]string {
			return map[string]string{
				"customerName":   c.CustomerName,
				"customerEmail":  c.CustomerEmail,
				"customerPhone":  c.CustomerPhone,
				"customerCity":   c.CustomerCity,
				"customerRegion": c.CustomerRegion,
				"isActive":       formatBool(c.IsActive),
			}
		},
		fromForm: func(form url.Values, c *domain.Customer) domain.FieldErrors {
			c.CustomerName = formString(form, "customerName")
			c.CustomerEmail = formString(form, "customerEmail")
			c.CustomerPhone = formString(form, "customerPhone")
			c.CustomerCity = formString(form, "customerCity")
			c.CustomerRegion = formString(form, "customerRegion")
			c.IsActive = formBool(form, "isActive")
			return domain.FieldErrors{}
		},
		validate: func(c domain.Customer, _ bool) domain.FieldErrors { return c.Validate() },
		id:       func(c domain.Customer) string { return c.CustomerID },
		setID:    func(c *domain.Customer, id string) { c.CustomerID = id },

		canShow: true, canCreate: true, canEdit: true, canDelete: true,
	}
}

func (h *handler) mountCustomers(r chi.Router) {
	c := h.customers()
	r.Get("/customers", c.list)
	c.mount(r)
}

// childLinks lists the pages nested under a record of the given kind.
func (h *handler) childLinks(kind, id string) []link {
	esc := url.PathEscape(id)
	switch kind {
	case "customer":
		return []link{
			{Label: "Sites", URL: "/customers/" + esc + "/sites"},
			{Label: "Digital services", URL: "/customers/" + esc + "/services"},
			{Label: "Users", URL: "/customers/" + esc + "/users"},
		}
	case "site":
		return []link{{Label: "Devices", URL: "/sites/" + esc + "/devices"}}
	case "digital_service":
		return []link{{Label: "Notification users", URL: "/services/" + esc + "/notification-users"}}
	}
	return nil
}
