// =============================================================================
// Pharmacy Records - Line Codecs
// =============================================================================
//
// Each record type is stored one per line with a fixed field order and a
// single delimiter:
//
//   medicines.txt  name,quantity,price,expiryDate          ","
//   purchases.txt  medicineName,quantity,price,total,time  ","
//   users.txt      username,password,role                  ","
//   suppliers.txt  name||phone||address||suppliedMedicines  "||"
//
// PARSING:
//   A line whose values break the record's rules (blank name, negative
//   quantity or price, a sale of zero units) is malformed, like a line that
//   does not split.
//
// ESCAPING:
//   Field values are never escaped. Format refuses any value that contains
//   its delimiter or a line break, so every line it writes parses back to
//   the same record.
//
// =============================================================================

package records

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/pharmacy-records/internal/validation"
)

// Codec converts one record type to and from a single line.
type Codec[T any] interface {
	// Delimiter is the field separator for this record type.
	Delimiter() string

	// Format renders a record as a line without its terminator.
	Format(record T) (string, error)

	// Parse reads a line. Failures are *MalformedRecordError.
	Parse(line string) (T, error)
}

// splitFields splits a line and checks the field count.
func splitFields(line, delimiter string, want int) ([]string, *MalformedRecordError) {
	fields := strings.Split(line, delimiter)
	if len(fields) != want {
		return nil, malformed(line, "expected %d fields, got %d", want, len(fields))
	}
	return fields, nil
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseInt(line, field, value string) (int, *MalformedRecordError) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, malformed(line, "%s %q is not an integer", field, value)
	}
	return n, nil
}

func parseDecimal(line, field, value string) (float64, *MalformedRecordError) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, malformed(line, "%s %q is not a number", field, value)
	}
	if f < 0 {
		return 0, malformed(line, "%s %q is negative", field, value)
	}
	return f, nil
}

// parseCount reads an integer field that must be at least min.
func parseCount(line, field, value string, min int) (int, *MalformedRecordError) {
	n, bad := parseInt(line, field, value)
	if bad != nil {
		return 0, bad
	}
	if n < min {
		return 0, malformed(line, "%s %d is below %d", field, n, min)
	}
	return n, nil
}

func parseName(line, field, value string) (string, *MalformedRecordError) {
	if strings.TrimSpace(value) == "" {
		return "", malformed(line, "%s is empty", field)
	}
	return value, nil
}

// ParseDate reads a yyyy-MM-dd calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// =============================================================================
// MEDICINE CODEC
// =============================================================================

// MedicineCodec reads and writes medicines.txt lines.
type MedicineCodec struct{}

func (MedicineCodec) Delimiter() string { return "," }

func (c MedicineCodec) Format(m Medicine) (string, error) {
	if err := validation.First(validation.NoDelimiter("name", m.Name, c.Delimiter())); err != nil {
		return "", err
	}
	return strings.Join([]string{
		m.Name,
		strconv.Itoa(m.Quantity),
		formatDecimal(m.UnitPrice),
		m.ExpiryDate.Format(DateLayout),
	}, c.Delimiter()), nil
}

func (c MedicineCodec) Parse(line string) (Medicine, error) {
	fields, bad := splitFields(line, c.Delimiter(), 4)
	if bad != nil {
		return Medicine{}, bad
	}
	name, bad := parseName(line, "name", fields[0])
	if bad != nil {
		return Medicine{}, bad
	}
	qty, bad := parseCount(line, "quantity", fields[1], 0)
	if bad != nil {
		return Medicine{}, bad
	}
	price, bad := parseDecimal(line, "price", fields[2])
	if bad != nil {
		return Medicine{}, bad
	}
	expiry, err := ParseDate(fields[3])
	if err != nil {
		return Medicine{}, malformed(line, "expiry date %q is not yyyy-MM-dd", fields[3])
	}
	return Medicine{Name: name, Quantity: qty, UnitPrice: price, ExpiryDate: expiry}, nil
}

// =============================================================================
// PURCHASE CODEC
// =============================================================================

// PurchaseCodec reads and writes purchases.txt lines. The stored total is
// read back as written.
type PurchaseCodec struct{}

func (PurchaseCodec) Delimiter() string { return "," }

func (c PurchaseCodec) Format(p Purchase) (string, error) {
	if err := validation.First(validation.NoDelimiter("medicine name", p.MedicineName, c.Delimiter())); err != nil {
		return "", err
	}
	return strings.Join([]string{
		p.MedicineName,
		strconv.Itoa(p.Quantity),
		formatDecimal(p.UnitPrice),
		formatDecimal(p.Total),
		p.Timestamp.Format(TimestampLayout),
	}, c.Delimiter()), nil
}

func (c PurchaseCodec) Parse(line string) (Purchase, error) {
	fields, bad := splitFields(line, c.Delimiter(), 5)
	if bad != nil {
		return Purchase{}, bad
	}
	name, bad := parseName(line, "medicine name", fields[0])
	if bad != nil {
		return Purchase{}, bad
	}
	qty, bad := parseCount(line, "quantity", fields[1], 1)
	if bad != nil {
		return Purchase{}, bad
	}
	price, bad := parseDecimal(line, "price", fields[2])
	if bad != nil {
		return Purchase{}, bad
	}
	total, bad := parseDecimal(line, "total", fields[3])
	if bad != nil {
		return Purchase{}, bad
	}
	at, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(fields[4]), time.Local)
	if err != nil {
		return Purchase{}, malformed(line, "timestamp %q is not yyyy-MM-dd HH:mm:ss", fields[4])
	}
	return Purchase{MedicineName: name, Quantity: qty, UnitPrice: price, Total: total, Timestamp: at}, nil
}

// =============================================================================
// USER CODEC
// =============================================================================

// UserCodec reads and writes users.txt lines.
type UserCodec struct{}

func (UserCodec) Delimiter() string { return "," }

func (c UserCodec) Format(u User) (string, error) {
	err := validation.First(
		validation.NoDelimiter("username", u.Username, c.Delimiter()),
		validation.NoDelimiter("password", u.Password, c.Delimiter()),
	)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{u.Username, u.Password, string(u.Role)}, c.Delimiter()), nil
}

func (c UserCodec) Parse(line string) (User, error) {
	fields, bad := splitFields(line, c.Delimiter(), 3)
	if bad != nil {
		return User{}, bad
	}
	role, err := ParseRole(fields[2])
	if err != nil {
		return User{}, malformed(line, "%v", err)
	}
	return User{Username: fields[0], Password: fields[1], Role: role}, nil
}

// =============================================================================
// SUPPLIER CODEC
// =============================================================================

// SupplierCodec reads and writes suppliers.txt lines. The two-character
// delimiter tolerates commas in addresses and medicine lists.
type SupplierCodec struct{}

func (SupplierCodec) Delimiter() string { return "||" }

func (c SupplierCodec) Format(s Supplier) (string, error) {
	fields := []string{s.Name, s.Phone, s.Address, s.SuppliedMedicines}
	names := []string{"name", "phone", "address", "supplied medicines"}
	for i, v := range fields {
		if err := validation.First(validation.NoDelimiter(names[i], v, c.Delimiter())); err != nil {
			return "", err
		}
		// A pipe at either edge would merge with the delimiter on split.
		if strings.HasPrefix(v, "|") || strings.HasSuffix(v, "|") {
			return "", &validation.ValidationError{
				Field:   names[i],
				Value:   v,
				Rule:    "delimiter",
				Message: "must not start or end with '|'",
			}
		}
	}
	return strings.Join(fields, c.Delimiter()), nil
}

func (c SupplierCodec) Parse(line string) (Supplier, error) {
	fields, bad := splitFields(line, c.Delimiter(), 4)
	if bad != nil {
		return Supplier{}, bad
	}
	return Supplier{Name: fields[0], Phone: fields[1], Address: fields[2], SuppliedMedicines: fields[3]}, nil
}
