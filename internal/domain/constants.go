package domain

const (
	RoleStudent       = "student"
	RolePropertyOwner = "property_owner"
)

const (
	PropertyStatusAvailable = "available"
	PropertyStatusRented    = "rented"
	PropertyStatusPending   = "pending"
)

var PropertyTypes = []string{"house", "apartment", "studio", "shared_room"}

const (
	RentPaymentActive    = "active"
	RentPaymentPastDue   = "past_due"
	RentPaymentCancelled = "cancelled"
)

const (
	InquiryPending   = "pending"
	InquiryResponded = "responded"
	InquiryClosed    = "closed"
)

// Metadata keys attached to processor checkout sessions and subscriptions.
const (
	MetadataPropertyID = "property_id"
	MetadataTenantID   = "tenant_id"
)

const (
	NotifPropertyRented = "PROPERTY_RENTED"
	NotifRentPastDue    = "RENT_PAST_DUE"
	NotifRentCancelled  = "RENT_CANCELLED"
	NotifNewInquiry     = "NEW_INQUIRY"
	NotifInquiryMessage = "INQUIRY_MESSAGE"
)

func IsValidRole(role string) bool {
	return role == RoleStudent || role == RolePropertyOwner
}

func IsValidPropertyType(t string) bool {
	for _, pt := range PropertyTypes {
		if pt == t {
			return true
		}
	}
	return false
}

func IsValidInquiryStatus(s string) bool {
	return s == InquiryPending || s == InquiryResponded || s == InquiryClosed
}
