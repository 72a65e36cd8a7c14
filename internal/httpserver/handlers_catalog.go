package httpserver

import (
	"net/url"

	"github.com/go-chi/chi/v5"

	"iotconsole/iot-ui/internal/domain"
)

func (h *handler) roles() *crud[domain.Role] {
	return &crud[domain.Role]{
		h:        h,
		res:      h.deps.Roles,
		singular: "Role",
		plural:   "Roles",
		base:     "/roles",
		action:   "role",
		columns:  []string{"Name", "Description"},
		row:      func(r domain.Role) []string { return []string{r.RoleName, r.RoleDescription} },
		details: func(r domain.Role) []detailItem {
			return []detailItem{
				{Label: "Name", Value: r.RoleName},
				{Label: "Description", Value: r.RoleDescription},
			}
		},
		fields: func(bool) []formField {
			return []formField{
				text("roleName", "Name", true),
				{Name: "roleDescription", Label: "Description", Type: "textarea"},
			}
		},
		values: func(r domain.Role) map[string]string {
			return map[string]string{"roleName": r.RoleName, "roleDescription": r.RoleDescription}
		},
		fromForm: func(form url.Values, r *domain.Role) domain.FieldErrors {
			r.RoleName = formString(form, "roleName")
			r.RoleDescription = formString(form, "roleDescription")
			return domain.FieldErrors{}
		},
		validate: func(r domain.Role, _ bool) domain.FieldErrors { return r.Validate() },
		id:       func(r domain.Role) string { return r.RoleID },
		setID:    func(r *domain.Role, id string) { r.RoleID = id },

		canShow: true, canCreate: true, canEdit: true, canDelete: true,
	}
}

func (h *handler) productTypes() *crud[domain.ProductType] {
	return &crud[domain.ProductType]{
		h:        h,
		res:      h.deps.ProductTypes,
		singular: "Product type",
		plural:   "Product types",
		base:     "/product-types",
		action:   "product_type",
		columns:  []string{"Name", "Min", "Max", "Unit", "Active"},
		row: func(p domain.ProductType) []string {
			return []string{p.ProductTypeName, formatFloat(p.MinVal), formatFloat(p.MaxVal), p.UOM, yesNo(p.IsActive)}
		},
		details: func(p domain.ProductType) []detailItem {
			return []detailItem{
				{Label: "Name", Value: p.ProductTypeName},
				{Label: "Minimum", Value: formatFloat(p.MinVal)},
				{Label: "Maximum", Value: formatFloat(p.MaxVal)},
				{Label: "Unit of measure", Value: p.UOM},
				{Label: "Active", Value: yesNo(p.IsActive)},
			}
		},
		fields: func(bool) []formField {
			return []formField{
				text("productTypeName", "Name", true),
				number("minVal", "Minimum"),
				number("maxVal", "Maximum"),
				text("uom", "Unit of measure", true),
				checkbox("isActive", "Active"),
			}
		},
		values: func(p domain.ProductType) map[string]string {
			return map[string]string{
				"productTypeName": p.ProductTypeName,
				"minVal":          formatFloat(p.MinVal),
				"maxVal":          formatFloat(p.MaxVal),
				"uom":             p.UOM,
				"isActive":        formatBool(p.IsActive),
			}
		},
		fromForm: func(form url.Values, p *domain.ProductType) domain.FieldErrors {
			fe := domain.FieldErrors{}
			p.ProductTypeName = formString(form, "productTypeName")
			p.MinVal = formFloat(form, "minVal", "Minimum", fe)
			p.MaxVal = formFloat(form, "maxVal", "Maximum", fe)
			p.UOM = formString(form, "uom")
			p.IsActive = formBool(form, "isActive")
			return fe
		},
		validate: func(p domain.ProductType, _ bool) domain.FieldErrors { return p.Validate() },
		id:       func(p domain.ProductType) string { return p.ProductTypeID },
		setID:    func(p *domain.ProductType, id string) { p.ProductTypeID = id },

		canShow: true, canCreate: true, canEdit: true, canDelete: true,
	}
}

func (h *handler) mountCatalog(r chi.Router) {
	roles := h.roles()
	r.Get("/roles", roles.list)
	roles.mount(r)

	pt := h.productTypes()
	r.Get("/product-types", pt.list)
	pt.mount(r)
}
