package models

// Website is the tenant directory entry shown to the widget at session start.
type Website struct {
	TenantCode   string `json:"tenantCode" yaml:"tenantCode"`
	Title        string `json:"title" yaml:"title"`
	LogoURL      string `json:"logoUrl,omitempty" yaml:"logoUrl,omitempty"`
	Hours        string `json:"hours,omitempty" yaml:"hours,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty" yaml:"contactPhone,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty" yaml:"contactEmail,omitempty"`
	Address      string `json:"address,omitempty" yaml:"address,omitempty"`
}

// HasContactDetails reports whether a contact card can be shown.
func (w *Website) HasContactDetails() bool {
	return w.ContactPhone != "" || w.ContactEmail != "" || w.Address != ""
}

// ServiceCapacity is the per tenant and service booking cap.
type ServiceCapacity struct {
	TenantCode             string `json:"tenantCode" yaml:"tenantCode"`
	Service                string `json:"service" yaml:"service"`
	HowManyBookingsAllowed int    `json:"howManyBookingsAllowed" yaml:"howManyBookingsAllowed"`
}
