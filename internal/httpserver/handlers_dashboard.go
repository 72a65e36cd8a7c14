package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/domain"
	"iotconsole/iot-ui/internal/session"
)

type dashboardView struct {
	Customers []domain.Customer
	Points    []pointRow
}

type pointRow struct {
	Time        string
	Temperature string
	WindSpeed   string
	Min         string
	Max         string
	Threshold   string
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func toPointRow(p domain.DataPoint) pointRow {
	row := pointRow{
		Temperature: optFloat(p.Temperature),
		WindSpeed:   optFloat(p.WindSpeed),
		Min:         optFloat(p.MinValue),
		Max:         optFloat(p.MaxValue),
		Threshold:   optFloat(p.ThresholdValue),
	}
	switch {
	case p.Time != nil && !p.Time.IsZero():
		row.Time = p.Time.Format("2006-01-02 15:04")
	case p.Duration != nil:
		row.Time = *p.Duration
	}
	return row
}

func (h *handler) mountDashboard(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/dashboard/sites", h.dashboardSites)
	r.Get("/dashboard/devices", h.dashboardDevices)
}

// dashboard fetches customers and chart data side by side. Either source failing leaves its
// section empty; only a rejected token leaves the page.
func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	token := session.FromContext(r.Context()).Token()

	var (
		customers []domain.Customer
		points    []domain.DataPoint
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		list, err := h.deps.Customers.List(ctx, token, "")
		if err != nil {
			h.degraded(r, "list_customer", err)
			return unauthorizedOnly(err)
		}
		customers = list
		return nil
	})
	g.Go(func() error {
		if h.deps.Dashboard == nil {
			return nil
		}
		data, err := h.deps.Dashboard.RecentData(ctx, token)
		if err != nil {
			h.degraded(r, "recent_data", err)
			return unauthorizedOnly(err)
		}
		points = data
		return nil
	})
	if err := g.Wait(); err != nil {
		h.relogin(w, r)
		return
	}

	view := dashboardView{Customers: customers, Points: make([]pointRow, 0, len(points))}
	for _, p := range points {
		view.Points = append(view.Points, toPointRow(p))
	}
	h.render(w, r, http.StatusOK, "dashboard", "Dashboard", view)
}

func unauthorizedOnly(err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	return nil
}

func (h *handler) degraded(r *http.Request, op string, err error) {
	h.log.WarnContext(r.Context(), "remote source degraded to empty",
		"operation", op,
		"outcome", "failure",
		"error", err.Error(),
	)
}

type optionJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *handler) dashboardSites(w http.ResponseWriter, r *http.Request) {
	out := []optionJSON{}
	customerID := strings.TrimSpace(r.URL.Query().Get("customerId"))
	if _, err := uuid.Parse(customerID); err != nil {
		writeJSON(w, http.StatusOK, out)
		return
	}
	sites, err := h.deps.Sites.List(r.Context(), session.FromContext(r.Context()).Token(), customerID)
	if err != nil {
		h.degraded(r, "list_site", err)
	}
	for _, s := range sites {
		out = append(out, optionJSON{ID: s.SiteID, Name: s.SiteName})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) dashboardDevices(w http.ResponseWriter, r *http.Request) {
	out := []optionJSON{}
	siteID := strings.TrimSpace(r.URL.Query().Get("siteId"))
	if _, err := uuid.Parse(siteID); err != nil {
		writeJSON(w, http.StatusOK, out)
		return
	}
	devices, err := h.deps.Devices.List(r.Context(), session.FromContext(r.Context()).Token(), siteID)
	if err != nil {
		h.degraded(r, "list_device", err)
	}
	for _, d := range devices {
		out = append(out, optionJSON{ID: d.DeviceID, Name: d.DeviceName})
	}
	writeJSON(w, http.StatusOK, out)
}
