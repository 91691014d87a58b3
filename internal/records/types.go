// =============================================================================
// Pharmacy Records - Record Types
// =============================================================================
//
// This package contains the record types shared by every ledger, the line
// codecs that read and write them, and the error kinds the core reports.
// Types defined here are used by:
//   - flatfile   (generic load/overwrite/append)
//   - inventory, purchases, users, suppliers (one ledger per file)
//   - sales      (the cross-ledger sale coordinator)
//
// =============================================================================

package records

import (
	"fmt"
	"time"
)

// DateLayout is the on-disk format of a medicine expiry date.
const DateLayout = "2006-01-02"

// TimestampLayout is the on-disk format of a purchase timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// =============================================================================
// MEDICINE
// =============================================================================

// Medicine is one inventory line. Name is the case-insensitive key.
type Medicine struct {
	Name       string
	Quantity   int
	UnitPrice  float64
	ExpiryDate time.Time
}

// =============================================================================
// PURCHASE
// =============================================================================

// Purchase is one immutable sales ledger entry.
type Purchase struct {
	// MedicineName refers to a Medicine by name. No referential integrity
	// is enforced.
	MedicineName string

	Quantity  int
	UnitPrice float64

	// Total is Quantity x UnitPrice at the time of sale.
	Total float64

	// Timestamp is local wall-clock time with whole-second precision.
	Timestamp time.Time
}

// NewPurchase builds a Purchase with its derived total and a timestamp
// truncated to the precision the ledger stores.
func NewPurchase(medicineName string, quantity int, unitPrice float64, at time.Time) Purchase {
	return Purchase{
		MedicineName: medicineName,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Total:        float64(quantity) * unitPrice,
		Timestamp:    at.Truncate(time.Second).Local(),
	}
}

// =============================================================================
// USER
// =============================================================================

// Role is the access level of a user account.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RolePharmacist Role = "Pharmacist"
	RoleCustomer   Role = "Customer"
)

// ParseRole accepts exactly the spellings written to users.txt.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RolePharmacist, RoleCustomer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is one credential record.
type User struct {
	Username string

	// Password is the stored credential: a bcrypt hash, or plaintext for
	// files written without hashing.
	Password string

	Role Role
}

// IsAdmin reports whether the user holds the single administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// =============================================================================
// SUPPLIER
// =============================================================================

// Supplier is one supplier record. SuppliedMedicines is free text.
type Supplier struct {
	Name              string
	Phone             string
	Address           string
	SuppliedMedicines string
}
