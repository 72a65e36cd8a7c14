package domain

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

// FormKey is the field name used for errors that belong to the whole form.
const FormKey = ""

// FieldErrors maps a field name to a user-facing message.
type FieldErrors map[string]string

func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; exists {
		return
	}
	fe[field] = msg
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == FormKey {
			parts = append(parts, fe[k])
			continue
		}
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

func (fe FieldErrors) required(field, value, label string) {
	if strings.TrimSpace(value) == "" {
		fe.Add(field, label+" is required.")
	}
}

func (fe FieldErrors) maxLen(field, value, label string, n int) {
	if utf8.RuneCountInString(value) > n {
		fe.Add(field, fmt.Sprintf("%s cannot be longer than %d characters.", label, n))
	}
}

func (fe FieldErrors) email(field, value string) {
	if strings.TrimSpace(value) == "" {
		fe.Add(field, "Email is required.")
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		fe.Add(field, "Please enter a valid email address.")
	}
}

func (c Customer) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.required("customerName", c.CustomerName, "Customer name")
	fe.required("customerPhone", c.CustomerPhone, "Customer phone")
	fe.required("customerEmail", c.CustomerEmail, "Customer email")
	fe.required("customerCity", c.CustomerCity, "Customer city")
	fe.required("customerRegion", c.CustomerRegion, "Customer region")
	return fe
}

func (s Site) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.required("siteName", s.SiteName, "Site name")
	fe.required("siteLocation", s.SiteLocation, "Site location")
	if s.Latitude < -90 || s.Latitude > 90 {
		fe.Add("latitude", "Latitude must be between -90 and 90.")
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		fe.Add("longitude", "Longitude must be between -180 and 180.")
	}
	return fe
}

func (d DigitalService) Validate() FieldErrors {
	fe := FieldErrors{}
	if d.ServiceStartDate.IsZero() {
		fe.Add("serviceStartDate", "Service start date is required.")
	}
	if d.ServiceEndDate.IsZero() {
		fe.Add("serviceEndDate", "Service end date is required.")
	}
	if !d.ServiceStartDate.IsZero() && !d.ServiceEndDate.IsZero() && d.ServiceEndDate.Before(d.ServiceStartDate.Time) {
		fe.Add("serviceEndDate", "Service end date must not be before the start date.")
	}
	return fe
}

// Validate checks the profile fields shared by create and edit.
func (u User) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.email("email", u.Email)
	fe.required("firstName", u.FirstName, "First name")
	fe.maxLen("firstName", u.FirstName, "First name", 50)
	fe.required("lastName", u.LastName, "Last name")
	fe.maxLen("lastName", u.LastName, "Last name", 50)
	return fe
}

// ValidateRegistration adds the password rules that apply when an account is created.
func (u User) ValidateRegistration() FieldErrors {
	fe := u.Validate()
	switch {
	case u.Password == "":
		fe.Add("password", "Password is required.")
	case utf8.RuneCountInString(u.Password) < 6:
		fe.Add("password", "Password must be at least 6 characters long.")
	}
	if u.ConfirmPassword == "" {
		fe.Add("confirmPassword", "Please confirm your password.")
	} else if u.Password != u.ConfirmPassword {
		fe.Add("confirmPassword", "Password and confirmation password do not match.")
	}
	return fe
}

func (r Role) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.required("roleName", r.RoleName, "Role name")
	fe.maxLen("roleName", r.RoleName, "Role name", 100)
	return fe
}

func (p ProductType) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.required("productTypeName", p.ProductTypeName, "Product type name")
	fe.maxLen("productTypeName", p.ProductTypeName, "Product type name", 100)
	fe.required("uom", p.UOM, "Unit of measure")
	fe.maxLen("uom", p.UOM, "Unit of measure", 20)
	if p.MaxVal < p.MinVal {
		fe.Add("maxVal", "Maximum value must not be below the minimum value.")
	}
	return fe
}

func (c Credentials) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.email("email", c.Email)
	fe.required("password", c.Password, "Password")
	return fe
}
