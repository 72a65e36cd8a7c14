package domain

type Customer struct {
	CustomerID      string           `json:"customerID"`
	CustomerName    string           `json:"customerName"`
	CustomerPhone   string           `json:"customerPhone"`
	CustomerEmail   string           `json:"customerEmail"`
	CustomerCity    string           `json:"customerCity"`
	CustomerRegion  string           `json:"customerRegion"`
	IsActive        bool             `json:"isActive"`
	IsDeleted       bool             `json:"isDeleted"`
	Sites           []Site           `json:"sites,omitempty"`
	CustomerUsers   []string         `json:"customerUsers,omitempty"`
	DigitalServices []DigitalService `json:"digitalServices,omitempty"`
}

type Site struct {
	SiteID       string   `json:"siteID"`
	CustomerID   string   `json:"customerID,omitempty"`
	SiteName     string   `json:"siteName"`
	SiteLocation string   `json:"siteLocation"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Devices      []Device `json:"devices,omitempty"`
}

type Device struct {
	DeviceID       string  `json:"deviceID"`
	SiteID         string  `json:"siteID,omitempty"`
	DeviceName     string  `json:"deviceName"`
	ProductType    string  `json:"productType"`
	ThresholdValue float64 `json:"threSholdValue"`
}

type DigitalService struct {
	DigitalServiceID  string   `json:"digitalServiceID"`
	CustomerID        string   `json:"customerID,omitempty"`
	ServiceStartDate  Date     `json:"serviceStartDate"`
	ServiceEndDate    Date     `json:"serviceEndDate"`
	IsActive          bool     `json:"isActive"`
	NotificationUsers []string `json:"notificationUsers,omitempty"`
}

type User struct {
	UserID          string `json:"userID"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	CustomerID      string `json:"customerId,omitempty"`
	CustomerEmail   string `json:"customerEmail,omitempty"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
	EmailVerified   bool   `json:"emailVerified"`
	IsDeleted       bool   `json:"isDeleted"`
}

type Role struct {
	RoleID          string `json:"roleID"`
	RoleName        string `json:"roleName"`
	RoleDescription string `json:"roleDescription"`
}

type ProductType struct {
	ProductTypeID   string  `json:"productTypeID"`
	ProductTypeName string  `json:"productTypeName"`
	MinVal          float64 `json:"minVal"`
	MaxVal          float64 `json:"maxVal"`
	UOM             string  `json:"uom"`
	IsActive        bool    `json:"isActive"`
}

// DataPoint is one sample of the dashboard chart feed. Every field is optional.
type DataPoint struct {
	MinValue       *float64 `json:"minValue,omitempty"`
	MaxValue       *float64 `json:"maxValue,omitempty"`
	ThresholdValue *float64 `json:"thresholdValue,omitempty"`
	Duration       *string  `json:"duration,omitempty"`
	Time           *Date    `json:"time,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	WindSpeed      *float64 `json:"windSpeed,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Roles string `json:"roles"`
}
