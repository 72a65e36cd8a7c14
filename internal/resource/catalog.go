package resource

import (
	"context"
	"fmt"

	"iotconsole/iot-ui/internal/apiclient"
	"iotconsole/iot-ui/internal/domain"
)

// Catalog instantiates one proxy per remote resource.
type Catalog struct {
	Customers         *Proxy[domain.Customer]
	Sites             *Proxy[domain.Site]
	Devices           *Proxy[domain.Device]
	DigitalServices   *Proxy[domain.DigitalService]
	NotificationUsers *Proxy[domain.DigitalService]
	Users             *Proxy[domain.User]
	Admins            *Proxy[domain.User]
	Roles             *Proxy[domain.Role]
	ProductTypes      *Proxy[domain.ProductType]
	Dashboard         *Dashboard
}

func NewCatalog(api *apiclient.Client) *Catalog {
	userID := func(u domain.User) string { return u.UserID }

	return &Catalog{
		Customers: NewProxy(api, "customer", Endpoints{
			List:   Static("Customer/GetAllCustomers"),
			Get:    PathID("Customer/GetCustomerById"),
			Create: Static("Customer/RegisterCustomer"),
			Update: Static("Customer/UpdateCustomer"),
			Delete: PathID("Customer/DeleteCustomer"),
		}, func(c domain.Customer) string { return c.CustomerID }),

		Sites: NewProxy(api, "site", Endpoints{
			List:   QueryID("Customer/GetCustomerSites", "customerId"),
			Get:    PathID("Customer/GetSiteById"),
			Create: QueryID("Customer/AddSite", "customerId"),
			Update: Static("Customer/UpdateSite"),
			Delete: PathID("Customer/DeleteSite"),
		}, func(s domain.Site) string { return s.SiteID }),

		Devices: NewProxy(api, "device", Endpoints{
			List: QueryID("Customer/GetSiteDevices", "siteId"),
		}, func(d domain.Device) string { return d.DeviceID }),

		DigitalServices: NewProxy(api, "digital service", Endpoints{
			List:   QueryID("Customer/GetAllDigitalService", "customerId"),
			Get:    PathID("Customer/GetDigitalServiceById"),
			Create: QueryID("Customer/AddDigitalService", "customerId"),
			Update: Static("Customer/UpdateDigitalService"),
			Delete: PathID("Customer/DeleteDigitalService"),
		}, func(d domain.DigitalService) string { return d.DigitalServiceID }),

		// Assignments travel as digital service records listing user ids.
		NotificationUsers: NewProxy(api, "notification user", Endpoints{
			List:   PathID("Customer/GetNotificationUserById"),
			Create: QueryID("Customer/AddNotificationUser", "digitalServiceId"),
		}, func(d domain.DigitalService) string { return d.DigitalServiceID }),

		Users: NewProxy(api, "user", Endpoints{
			List:   PathID("User/GetAllUsersByCustomer"),
			Get:    PathID("User/GetUserById"),
			Create: Static("User/Register"),
			Update: Static("User/UpdateUser"),
			Delete: PathID("User/DeleteUser"),
		}, userID),

		Admins: NewProxy(api, "admin", Endpoints{
			List:   Static("GlobalAdmin/GetAllAdmin"),
			Get:    PathID("User/GetUserById"),
			Create: Static("GlobalAdmin/RegisterAdmin"),
			Update: Static("User/UpdateUser"),
		}, userID),

		Roles: NewProxy(api, "role", Endpoints{
			List:   Static("GlobalAdmin/GetAllRoles"),
			Get:    PathID("GlobalAdmin/GetRoleById"),
			Create: Static("GlobalAdmin/CreateRole"),
			Update: Static("GlobalAdmin/UpdateRole"),
			Delete: PathID("GlobalAdmin/DeleteRole"),
		}, func(r domain.Role) string { return r.RoleID }),

		ProductTypes: NewProxy(api, "product type", Endpoints{
			List:   Static("ProductType/GetAllProductTypes"),
			Get:    PathID("ProductType/GetProductTypeById"),
			Create: Static("ProductType/CreateProductType"),
			Update: Static("ProductType/UpdateProductType"),
			Delete: PathID("ProductType/DeleteProductType"),
		}, func(p domain.ProductType) string { return p.ProductTypeID }),

		Dashboard: &Dashboard{api: api},
	}
}

// Dashboard reads the chart feed, which the remote API serves without an envelope.
type Dashboard struct {
	api *apiclient.Client
}

func (d *Dashboard) RecentData(ctx context.Context, token string) ([]domain.DataPoint, error) {
	points, err := apiclient.GetRaw[[]domain.DataPoint](ctx, d.api, "Dashboard/GetRecentData", token)
	if err != nil {
		return nil, fmt.Errorf("recent data: %w", err)
	}
	if points == nil {
		points = []domain.DataPoint{}
	}
	return points, nil
}
