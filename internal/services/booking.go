package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/servicehand/internal/models"
)

const defaultServiceName = "Service"

// BookingNotifier is told about bookings created through the hire flow.
type BookingNotifier interface {
	NotifyNewBooking(b BookingNotification) error
}

// BookingService drives the booking lifecycle.
type BookingService struct {
	db       *gorm.DB
	refs     *ReferenceGenerator
	notifier BookingNotifier
	now      func() time.Time
}

// NewBookingService constructs a BookingService. notifier may be nil.
func NewBookingService(db *gorm.DB, refs *ReferenceGenerator, notifier BookingNotifier) *BookingService {
	return &BookingService{
		db:       db,
		refs:     refs,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateHire books provider for the end user p. An empty serviceName falls
// back to the provider's first category, then to "Service".
func (s *BookingService) CreateHire(ctx context.Context, p Principal, providerID uuid.UUID, serviceName string) (*models.Booking, error) {
	if p.Role != models.RoleUser {
		return nil, ErrForbidden
	}

	var provider models.ProviderProfile
	err := s.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc, id asc")
		}).
		First(&provider, "id = ?", providerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var user models.Account
	if err := s.db.WithContext(ctx).First(&user, "id = ?", p.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		serviceName = defaultServiceName
		if len(provider.Categories) > 0 {
			serviceName = provider.Categories[0].CategoryName
		}
	}

	now := s.now()
	booking := models.Booking{
		UserID:          user.ID,
		ProviderID:      provider.ID,
		ServiceName:     serviceName,
		BookingDatetime: now,
		Status:          models.BookingStatusAssigned,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := s.refs.Next(tx, now.Year())
		if err != nil {
			return err
		}
		booking.BookingReference = ref
		return tx.Create(&booking).Error
	})
	if err != nil {
		return nil, err
	}

	booking.User = &user
	booking.Provider = &provider
	log.Printf("[Booking] %s created: user=%s provider=%s service=%q", booking.BookingReference, user.ID, provider.ID, serviceName)

	if s.notifier != nil {
		go s.notify(booking)
	}

	return &booking, nil
}

func (s *BookingService) notify(b models.Booking) {
	n := BookingNotification{
		Reference:   b.BookingReference,
		ServiceName: b.ServiceName,
		Status:      string(b.Status),
		CreatedAt:   b.BookingDatetime,
	}
	if b.User != nil {
		n.UserName = b.User.Name
		n.UserPhone = b.User.Phone
	}
	if b.Provider != nil {
		n.ProviderName = b.Provider.Name
	}
	if err := s.notifier.NotifyNewBooking(n); err != nil {
		log.Printf("[Booking] Failed to notify admin about %s: %v", b.BookingReference, err)
	}
}

// Cancel moves the requester's own booking to cancelled.
func (s *BookingService) Cancel(ctx context.Context, bookingID uuid.UUID, p Principal) (*models.Booking, error) {
	return s.finalize(ctx, bookingID, p, models.BookingStatusCancelled)
}

// Complete moves the requester's own booking to completed.
func (s *BookingService) Complete(ctx context.Context, bookingID uuid.UUID, p Principal) (*models.Booking, error) {
	return s.finalize(ctx, bookingID, p, models.BookingStatusCompleted)
}

// finalize applies a terminal transition. Bookings owned by someone else are
// reported as not found. A booking that is already terminal is returned
// unchanged together with ErrAlreadyFinalized.
func (s *BookingService) finalize(ctx context.Context, bookingID uuid.UUID, p Principal, target models.BookingStatus) (*models.Booking, error) {
	if p.Role != models.RoleUser {
		return nil, ErrForbidden
	}

	var booking models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", bookingID, p.AccountID).
			First(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if booking.Status.IsTerminal() {
			return ErrAlreadyFinalized
		}

		if err := tx.Model(&booking).Update("status", target).Error; err != nil {
			return err
		}
		booking.Status = target
		return nil
	})
	if errors.Is(err, ErrAlreadyFinalized) {
		return &booking, err
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[Booking] %s -> %s by %s", booking.BookingReference, target, p.AccountID)
	return &booking, nil
}

type AdminBookingInput struct {
	BookingReference string
	UserID           uuid.UUID
	ProviderID       uuid.UUID
	ServiceName      string
	BookingDatetime  *time.Time
	Status           models.BookingStatus
	FinalAmount      *float64
}

// CreateByAdmin stores a booking in any status. A blank reference is
// generated; a given one is stored verbatim.
func (s *BookingService) CreateByAdmin(ctx context.Context, adminID uuid.UUID, in AdminBookingInput) (*models.Booking, error) {
	if in.Status == "" {
		in.Status = models.BookingStatusPending
	}
	if !in.Status.Valid() {
		return nil, invalid("status", "Unknown booking status.")
	}
	if in.FinalAmount != nil && *in.FinalAmount < 0 {
		return nil, invalid("final_amount", "Final amount cannot be negative.")
	}
	in.BookingReference = strings.TrimSpace(in.BookingReference)
	if len(in.BookingReference) > 20 {
		return nil, invalid("booking_reference", "Booking reference is too long.")
	}

	when := s.now()
	if in.BookingDatetime != nil {
		when = *in.BookingDatetime
	}

	booking := models.Booking{
		BookingReference: in.BookingReference,
		UserID:           in.UserID,
		ProviderID:       in.ProviderID,
		ServiceName:      strings.TrimSpace(in.ServiceName),
		BookingDatetime:  when,
		Status:           in.Status,
		FinalAmount:      in.FinalAmount,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Where("id = ?", in.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return invalid("user_id", "User not found.")
		}
		if err := tx.Model(&models.ProviderProfile{}).Where("id = ?", in.ProviderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return invalid("provider_id", "Provider not found.")
		}

		if booking.BookingReference == "" {
			ref, err := s.refs.Next(tx, when.Year())
			if err != nil {
				return err
			}
			booking.BookingReference = ref
		} else {
			if err := tx.Model(&models.Booking{}).
				Where("booking_reference = ?", booking.BookingReference).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return invalid("booking_reference", "Booking reference already exists.")
			}
			if err := s.refs.Observe(tx, booking.BookingReference); err != nil {
				return err
			}
		}

		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		return recordAudit(tx, adminID, fmt.Sprintf("created booking %s (%s)", booking.BookingReference, booking.Status))
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, invalid("booking_reference", "Booking reference already exists.")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// AdminBookingUpdate holds the fields an administrator may edit. Nil fields
// are left alone. A reference may be resent but never changed.
type AdminBookingUpdate struct {
	BookingReference *string
	Status           *models.BookingStatus
	FinalAmount      *float64
}

// UpdateByAdmin edits status and final amount of any booking, terminal or not.
func (s *BookingService) UpdateByAdmin(ctx context.Context, adminID, bookingID uuid.UUID, in AdminBookingUpdate) (*models.Booking, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, invalid("status", "Unknown booking status.")
	}
	if in.FinalAmount != nil && *in.FinalAmount < 0 {
		return nil, invalid("final_amount", "Final amount cannot be negative.")
	}

	updates := map[string]interface{}{}
	if in.BookingReference != nil {
		updates["booking_reference"] = strings.TrimSpace(*in.BookingReference)
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.FinalAmount != nil {
		updates["final_amount"] = *in.FinalAmount
	}

	var booking models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bookingID).
			First(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&booking).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", bookingID).First(&booking).Error; err != nil {
			return err
		}
		return recordAudit(tx, adminID, fmt.Sprintf("updated booking %s (%s)", booking.BookingReference, booking.Status))
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListForUser returns the user's bookings, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Provider").
		Where("user_id = ?", userID).
		Order("booking_datetime desc").
		Find(&bookings).Error
	return bookings, err
}

// ListForProvider returns bookings made with the provider profile owned by
// accountID, newest first.
func (s *BookingService) ListForProvider(ctx context.Context, accountID uuid.UUID) ([]models.Booking, error) {
	var profile models.ProviderProfile
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.Booking{}, nil
		}
		return nil, err
	}

	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("provider_id = ?", profile.ID).
		Order("booking_datetime desc").
		Find(&bookings).Error
	return bookings, err
}

type BookingFilter struct {
	Status models.BookingStatus
	Search string
}

// ListAll returns bookings for the admin listing.
func (s *BookingService) ListAll(ctx context.Context, f BookingFilter, offset, limit int) ([]models.Booking, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Booking{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(booking_reference) LIKE ? OR LOWER(service_name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []models.Booking
	if err := query.Preload("User").Preload("Provider").
		Order("booking_datetime desc").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns the number of bookings in each status.
func (s *BookingService) CountByStatus(ctx context.Context) (map[models.BookingStatus]int64, error) {
	var rows []struct {
		Status models.BookingStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[models.BookingStatus]int64{
		models.BookingStatusPending:   0,
		models.BookingStatusAssigned:  0,
		models.BookingStatusCompleted: 0,
		models.BookingStatusCancelled: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
