package httpserver

import (
	"net/url"

	"github.com/go-chi/chi/v5"

	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/session"
)

// Nested list routes reuse the {id} parameter of the parent item routes.
func customerScoped(suffix string) *scope {
	return &scope{
		key:      session.KeyCustomerID,
		param:    "id",
		listPath: func(id string) string { return "/customers/" + url.PathEscape(id) + suffix },
		fallback: "/customers",
	}
}

func (h *handler) sites() *crud[domain.Site] {
	return &crud[domain.Site]{
		h:        h,
		res:      h.deps.Sites,
		singular: "Site",
		plural:   "Sites",
		base:     "/sites",
		action:   "site",
		scope:    customerScoped("/sites"),
		columns:  []string{"Name", "Location", "Latitude", "Longitude"},
		row: func(s domain.Site) []string {
			return []string{s.SiteName, s.SiteLocation, formatFloat(s.Latitude), formatFloat(s.Longitude)}
		},
		details: func(s domain.Site) []detailItem {
			return []detailItem{
				{Label: "Name", Value: s.SiteName},
				{Label: "Location", Value: s.SiteLocation},
				{Label: "Latitude", Value: formatFloat(s.Latitude)},
				{Label: "Longitude", Value: formatFloat(s.Longitude)},
			}
		},
		fields: func(bool) []formField {
			return []formField{
				text("siteName", "Name", true),
				text("siteLocation", "Location", true),
				number("latitude", "Latitude"),
				number("longitude", "Longitude"),
			}
		},
		values: func(s domain.Site) map[string]string {
			return map[string]string{
				"siteName":     s.SiteName,
				"siteLocation": s.SiteLocation,
				"latitude":     formatFloat(s.Latitude),
				"longitude":    formatFloat(s.Longitude),
			}
		},
		fromForm: func(form url.Values, s *domain.Site) domain.FieldErrors {
			fe := domain.FieldErrors{}
			s.SiteName = formString(form, "siteName")
			s.SiteLocation = formString(form, "siteLocation")
			s.Latitude = formFloat(form, "latitude", "Latitude", fe)
			s.Longitude = formFloat(form, "longitude", "Longitude", fe)
			return fe
		},
		validate: func(s domain.Site, _ bool) domain.FieldErrors { return s.Validate() },
		id:       func(s domain.Site) string { return s.SiteID },
		setID:    func(s *domain.Site, id string) { s.SiteID = id },
		setScope: func(s *domain.Site, customerID string) { s.CustomerID = customerID },
		parentOf: func(s domain.Site) string { return s.CustomerID },

		canShow: true, canCreate: true, canEdit: true, canDelete: true,
	}
}

func (h *handler) devices() *crud[domain.Device] {
	return &crud[domain.Device]{
		h:        h,
		res:      h.deps.Devices,
		singular: "Device",
		plural:   "Devices",
		base:     "/devices",
		action:   "device",
		scope: &scope{
			key:      session.KeySiteID,
			param:    "id",
			listPath: func(id string) string { return "/sites/" + url.PathEscape(id) + "/devices" },
			fallback: "/customers",
		},
		columns: []string{"Name", "Product type", "Threshold"},
		row: func(d domain.Device) []string {
			return []string{d.DeviceName, d.ProductType, formatFloat(d.ThresholdValue)}
		},
		id: func(d domain.Device) string { return d.DeviceID },
	}
}

func (h *handler) mountSites(r chi.Router) {
	s := h.sites()
	r.Get("/customers/{id}/sites", s.list)
	s.mount(r)

	d := h.devices()
	r.Get("/sites/{id}/devices", d.list)
}
