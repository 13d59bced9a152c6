package constants

// Role permissions carried in JWT claims
const (
	PermAdminFull  = "qr-offers.admin.full-permit"
	PermVendorFull = "qr-offers.vendor.full-permit"

	// Special permissions
	PermAny = "any"
)
