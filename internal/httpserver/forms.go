package httpserver

import (
	"net/url"
	"strconv"
	"strings"

	"iotconsole/iot-ui/internal/domain"
)

func formString(form url.Values, key string) string {
	return strings.TrimSpace(form.Get(key))
}

// formFloat parses an optional number; an empty value reads as zero.
func formFloat(form url.Values, key, label string, fe domain.FieldErrors) float64 {
	raw := formString(form, key)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fe.Add(key, label+" must be a number.")
		return 0
	}
	return v
}

func formBool(form url.Values, key string) bool {
	switch strings.ToLower(formString(form, key)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func formDate(form url.Values, key, label string, fe domain.FieldErrors) domain.Date {
	raw := formString(form, key)
	if raw == "" {
		return domain.Date{}
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		fe.Add(key, label+" must be a valid date.")
		return domain.Date{}
	}
	return d
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func lower(s string) string {
	return strings.ToLower(s)
}

func text(name, label string, required bool) formField {
	return formField{Name: name, Label: label, Type: "text", Required: required}
}

func number(name, label string) formField {
	return formField{Name: name, Label: label, Type: "number"}
}

func checkbox(name, label string) formField {
	return formField{Name: name, Label: label, Type: "checkbox"}
}
