package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/servicehand/internal/models"
)

type recordingNotifier struct {
	mu   sync.Mutex
	got  chan BookingNotification
	fail error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{got: make(chan BookingNotification, 4)}
}

func (n *recordingNotifier) NotifyNewBooking(b BookingNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got <- b
	return n.fail
}

type bookingFixture struct {
	accounts *AccountService
	bookings *BookingService
	user     Principal
	other    Principal
}

func newBookingFixture(t *testing.T, notifier BookingNotifier) (*bookingFixture, func(name string, categories ...string) *models.ProviderProfile) {
	t.Helper()

	db := newTestDB(t)
	accounts := NewAccountService(db, newTestCreds())
	bookings := NewBookingService(db, NewReferenceGenerator(), notifier)
	bookings.now = func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) }

	a := registerUser(t, accounts, "a@gmail.com", "pw1")
	b := registerUser(t, accounts, "b@gmail.com", "pw1")

	f := &bookingFixture{
		accounts: accounts,
		bookings: bookings,
		user:     Principal{AccountID: a.ID, Role: models.RoleUser},
		other:    Principal{AccountID: b.ID, Role: models.RoleUser},
	}
	return f, func(name string, categories ...string) *models.ProviderProfile {
		return createProvider(t, db, name, categories...)
	}
}

func TestCreateHireDefaultsServiceName(t *testing.T) {
	f, provider := newBookingFixture(t, nil)
	ctx := context.Background()

	bare := provider("Arjun Verma")
	booking, err := f.bookings.CreateHire(ctx, f.user, bare.ID, "")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}
	if booking.ServiceName != "Service" {
		t.Fatalf("service name = %q, want Service", booking.ServiceName)
	}
	if booking.Status != models.BookingStatusAssigned {
		t.Fatalf("status = %q, want assigned", booking.Status)
	}
	if booking.BookingReference != "GS2024-000001" {
		t.Fatalf("reference = %q", booking.BookingReference)
	}

	electrician := provider("Rahul Kumar", "Electrician", "AC Repair")
	booking, err = f.bookings.CreateHire(ctx, f.user, electrician.ID, "  ")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}
	if booking.ServiceName != "Electrician" {
		t.Fatalf("service name = %q, want first category", booking.ServiceName)
	}
	if booking.BookingReference != "GS2024-000002" {
		t.Fatalf("reference = %q", booking.BookingReference)
	}

	booking, err = f.bookings.CreateHire(ctx, f.user, electrician.ID, "AC Repair")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}
	if booking.ServiceName != "AC Repair" {
		t.Fatalf("explicit service name was replaced: %q", booking.ServiceName)
	}
}

func TestCreateHireRejections(t *testing.T) {
	f, provider := newBookingFixture(t, nil)
	ctx := context.Background()
	p := provider("Sita Devi", "Plumber")

	if _, err := f.bookings.CreateHire(ctx, f.user, uuid.New(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown provider: got %v", err)
	}

	asProvider := Principal{AccountID: p.AccountID, Role: models.RoleServiceProvider}
	if _, err := f.bookings.CreateHire(ctx, asProvider, p.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-user principal: got %v", err)
	}
}

func TestCreateHireNotifiesAdmin(t *testing.T) {
	notifier := newRecordingNotifier()
	f, provider := newBookingFixture(t, notifier)
	p := provider("Sita Devi", "Plumber")

	booking, err := f.bookings.CreateHire(context.Background(), f.user, p.ID, "")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}

	select {
	case n := <-notifier.got:
		if n.Reference != booking.BookingReference || n.ProviderName != "Sita Devi" || n.ServiceName != "Plumber" {
			t.Fatalf("unexpected notification: %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification sent")
	}
}

func TestCancelTwiceIsAlreadyFinalized(t *testing.T) {
	f, provider := newBookingFixture(t, nil)
	ctx := context.Background()
	booking, err := f.bookings.CreateHire(ctx, f.user, provider("Sita Devi").ID, "")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}

	cancelled, err := f.bookings.Cancel(ctx, booking.ID, f.user)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.BookingStatusCancelled {
		t.Fatalf("status = %q", cancelled.Status)
	}

	again, err := f.bookings.Cancel(ctx, booking.ID, f.user)
	if !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("second cancel: got %v, want ErrAlreadyFinalized", err)
	}
	if again.Status != models.BookingStatusCancelled {
		t.Fatalf("status changed to %q", again.Status)
	}
}

func TestCompleteThenCancel(t *testing.T) {
	f, provider := newBookingFixture(t, nil)
	ctx := context.Background()
	booking, err := f.bookings.CreateHire(ctx, f.user, provider("Sita Devi").ID, "")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}

	if _, err := f.bookings.Complete(ctx, booking.ID, f.user); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := f.bookings.Cancel(ctx, booking.ID, f.user); !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("cancel after complete: got %v", err)
	}

	list, err := f.bookings.ListForUser(ctx, f.user.AccountID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != models.BookingStatusCompleted {
		t.Fatalf("unexpected bookings: %+v", list)
	}
}

func TestFinalizeRequiresOwner(t *testing.T) {
	f, provider := newBookingFixture(t, nil)
	ctx := context.Background()
	booking, err := f.bookings.CreateHire(ctx, f.user, provider("Sita Devi").ID, "")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}

	if _, err := f.bookings.Cancel(ctx, booking.ID, f.other); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancel by non-owner: got %v, want ErrNotFound", err)
	}
	if _, err := f.bookings.Complete(ctx, uuid.New(), f.user); !errors.Is(err, ErrNotFound) {
		t.Fatalf("complete unknown booking: got %v, want ErrNotFound", err)
	}

	list, _ := f.bookings.ListForUser(ctx, f.user.AccountID)
	if list[0].Status != models.BookingStatusAssigned {
		t.Fatalf("non-owner changed status to %q", list[0].Status)
	}
}

func TestCreateByAdmin(t *testing.T) {
	f, provider := newBookingFixture(t, nil)
	ctx := context.Background()
	p := provider("Sita Devi", "Plumber")

	admin, _, err := f.accounts.EnsureAdmin(ctx, "Admin", "", "admin@sh.com", "adminpass")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}

	generated, err := f.bookings.CreateByAdmin(ctx, admin.ID, AdminBookingInput{
		UserID:      f.user.AccountID,
		ProviderID:  p.ID,
		ServiceName: "Plumber",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if generated.Status != models.BookingStatusPending || generated.BookingReference != "GS2024-000001" {
		t.Fatalf("unexpected booking: %+v", generated)
	}

	amount := 450.0
	manual, err := f.bookings.CreateByAdmin(ctx, admin.ID, AdminBookingInput{
		BookingReference: "GS2024-000050",
		UserID:           f.user.AccountID,
		ProviderID:       p.ID,
		Status:           models.BookingStatusCompleted,
		FinalAmount:      &amount,
	})
	if err != nil {
		t.Fatalf("create with reference: %v", err)
	}
	if manual.BookingReference != "GS2024-000050" || manual.Status != models.BookingStatusCompleted {
		t.Fatalf("unexpected booking: %+v", manual)
	}

	if _, err := f.bookings.CreateByAdmin(ctx, admin.ID, AdminBookingInput{
		BookingReference: "GS2024-000050",
		UserID:           f.user.AccountID,
		ProviderID:       p.ID,
	}); !IsValidation(err) {
		t.Fatalf("duplicate reference: got %v", err)
	}
	if _, err := f.bookings.CreateByAdmin(ctx, admin.ID, AdminBookingInput{
		UserID:     f.user.AccountID,
		ProviderID: p.ID,
		Status:     "archived",
	}); !IsValidation(err) {
		t.Fatalf("unknown status: got %v", err)
	}

	hired, err := f.bookings.CreateHire(ctx, f.user, p.ID, "")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}
	if hired.BookingReference != "GS2024-000051" {
		t.Fatalf("hire after manual reference = %q, want GS2024-000051", hired.BookingReference)
	}

	counts, err := f.bookings.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[models.BookingStatusPending] != 1 || counts[models.BookingStatusCompleted] != 1 || counts[models.BookingStatusAssigned] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	all, total, err := f.bookings.ListAll(ctx, BookingFilter{Search: "000050"}, 0, 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 1 || all[0].ID != manual.ID {
		t.Fatalf("search returned %d bookings", total)
	}

	forProvider, err := f.bookings.ListForProvider(ctx, p.AccountID)
	if err != nil {
		t.Fatalf("list for provider: %v", err)
	}
	if len(forProvider) != 3 {
		t.Fatalf("provider sees %d bookings, want 3", len(forProvider))
	}
}

func TestReferenceImmutable(t *testing.T) {
	f, provider := newBookingFixture(t, nil)
	ctx := context.Background()
	booking, err := f.bookings.CreateHire(ctx, f.user, provider("Sita Devi").ID, "")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}

	err = f.bookings.db.Model(booking).Update("booking_reference", "GS2024-999999").Error
	if !errors.Is(err, models.ErrReferenceImmutable) {
		t.Fatalf("got %v, want ErrReferenceImmutable", err)
	}
}

func TestUpdateByAdmin(t *testing.T) {
	f, provider := newBookingFixture(t, nil)
	ctx := context.Background()
	booking, err := f.bookings.CreateHire(ctx, f.user, provider("Sita Devi").ID, "")
	if err != nil {
		t.Fatalf("hire: %v", err)
	}
	adminID := f.other.AccountID

	completed := models.BookingStatusCompleted
	amount := 450.0
	sameRef := booking.BookingReference
	updated, err := f.bookings.UpdateByAdmin(ctx, adminID, booking.ID, AdminBookingUpdate{
		BookingReference: &sameRef,
		Status:           &completed,
		FinalAmount:      &amount,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != completed || updated.FinalAmount == nil || *updated.FinalAmount != amount || updated.BookingReference != sameRef {
		t.Fatalf("unexpected booking %+v", updated)
	}

	otherRef := "GS2024-999999"
	_, err = f.bookings.UpdateByAdmin(ctx, adminID, booking.ID, AdminBookingUpdate{BookingReference: &otherRef, Status: &completed})
	if !errors.Is(err, models.ErrReferenceImmutable) {
		t.Fatalf("got %v, want ErrReferenceImmutable", err)
	}

	bogus := models.BookingStatus("archived")
	if _, err := f.bookings.UpdateByAdmin(ctx, adminID, booking.ID, AdminBookingUpdate{Status: &bogus}); !IsValidation(err) {
		t.Fatalf("unknown status: got %v", err)
	}
	negative := -1.0
	if _, err := f.bookings.UpdateByAdmin(ctx, adminID, booking.ID, AdminBookingUpdate{FinalAmount: &negative}); !IsValidation(err) {
		t.Fatalf("negative amount: got %v", err)
	}
	if _, err := f.bookings.UpdateByAdmin(ctx, adminID, uuid.New(), AdminBookingUpdate{Status: &completed}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing booking: got %v", err)
	}
}
