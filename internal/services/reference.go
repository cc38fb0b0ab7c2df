package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/servicehand/internal/models"
)

const referenceDigits = 6

var ErrMalformedReference = errors.New("malformed booking reference")

// ReferencePrefix returns the prefix shared by every reference issued in year.
func ReferencePrefix(year int) string {
	return fmt.Sprintf("GS%d-", year)
}

// FormatReference renders a reference such as GS2024-000001.
func FormatReference(year, seq int) string {
	return fmt.Sprintf("%s%0*d", ReferencePrefix(year), referenceDigits, seq)
}

// ParseReference splits a reference into its year and sequence number.
func ParseReference(ref string) (year, seq int, err error) {
	head, tail, ok := strings.Cut(ref, "-")
	if !ok || !strings.HasPrefix(head, "GS") {
		return 0, 0, ErrMalformedReference
	}
	year, err = strconv.Atoi(strings.TrimPrefix(head, "GS"))
	if err != nil {
		return 0, 0, ErrMalformedReference
	}
	seq, err = strconv.Atoi(tail)
	if err != nil || seq < 0 {
		return 0, 0, ErrMalformedReference
	}
	return year, seq, nil
}

// ReferenceGenerator hands out sequential booking references per year.
//
// Allocation goes through a per-year counter row that is locked for the
// duration of the caller's transaction, so concurrent bookings never read
// the same "last" value.
type ReferenceGenerator struct{}

// NewReferenceGenerator constructs a ReferenceGenerator.
func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{}
}

// Next allocates the next reference for year. tx must be the transaction
// that will insert the booking.
func (g *ReferenceGenerator) Next(tx *gorm.DB, year int) (string, error) {
	if err := g.ensureCounter(tx, year); err != nil {
		return "", err
	}

	var seq models.BookingSequence
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("year = ?", year).
		First(&seq).Error; err != nil {
		return "", err
	}

	seq.LastValue++
	if err := tx.Model(&models.BookingSequence{}).
		Where("year = ?", year).
		Update("last_value", seq.LastValue).Error; err != nil {
		return "", err
	}

	return FormatReference(year, seq.LastValue), nil
}

// ensureCounter creates the counter row for year, seeded from the highest
// reference already stored for that year. Bookings entered by hand with a
// malformed reference are ignored.
func (g *ReferenceGenerator) ensureCounter(tx *gorm.DB, year int) error {
	var count int64
	if err := tx.Model(&models.BookingSequence{}).Where("year = ?", year).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var refs []string
	if err := tx.Model(&models.Booking{}).
		Where("booking_reference LIKE ?", ReferencePrefix(year)+"%").
		Pluck("booking_reference", &refs).Error; err != nil {
		return err
	}

	last := 0
	for _, ref := range refs {
		refYear, seq, err := ParseReference(ref)
		if err != nil || refYear != year {
			continue
		}
		if seq > last {
			last = seq
		}
	}

	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.BookingSequence{Year: year, LastValue: last}).Error
}

// Observe raises the counter for ref's year so that a reference stored
// verbatim is never handed out again by Next.
func (g *ReferenceGenerator) Observe(tx *gorm.DB, ref string) error {
	year, seq, err := ParseReference(ref)
	if err != nil {
		return nil
	}
	if err := g.ensureCounter(tx, year); err != nil {
		return err
	}
	return tx.Model(&models.BookingSequence{}).
		Where("year = ? AND last_value < ?", year, seq).
		Update("last_value", seq).Error
}
