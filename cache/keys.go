package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const availabilityPrefix = "availability"

// AvailabilityKey identifies one destination-day block of one company.
type AvailabilityKey struct {
	CompanyID     uint
	DestinationID uint
	Date          time.Time
}

func (k AvailabilityKey) String() string {
	return fmt.Sprintf("%s:%d:%d:%s", availabilityPrefix, k.CompanyID, k.DestinationID, k.Date.Format("2006-01-02"))
}

// MonthKey is the (destination, year, month) a refresh covers.
func (k AvailabilityKey) MonthKey() string {
	return fmt.Sprintf("%d:%d:%04d-%02d", k.CompanyID, k.DestinationID, k.Date.Year(), int(k.Date.Month()))
}

func NewAvailabilityKey(companyID, destinationID uint, date time.Time) AvailabilityKey {
	y, m, d := date.Date()
	return AvailabilityKey{
		CompanyID:     companyID,
		DestinationID: destinationID,
		Date:          time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

// ParseAvailabilityKey decodes availability:{company}:{destination}:{YYYY-MM-DD}.
func ParseAvailabilityKey(key string) (AvailabilityKey, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 4 || parts[0] != availabilityPrefix {
		return AvailabilityKey{}, fmt.Errorf("malformed availability key %q", key)
	}
	companyID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || companyID == 0 {
		return AvailabilityKey{}, fmt.Errorf("bad company id in key %q", key)
	}
	destinationID, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil || destinationID == 0 {
		return AvailabilityKey{}, fmt.Errorf("bad destination id in key %q", key)
	}
	date, err := time.Parse("2006-01-02", parts[3])
	if err != nil {
		return AvailabilityKey{}, fmt.Errorf("bad date in key %q: %w", key, err)
	}
	return AvailabilityKey{CompanyID: uint(companyID), DestinationID: uint(destinationID), Date: date}, nil
}

// AvailabilityPattern matches every block of a company.
func AvailabilityPattern(companyID uint) string {
	return fmt.Sprintf("%s:%d:*", availabilityPrefix, companyID)
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
