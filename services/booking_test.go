package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"sevaconnect-backend/models"
)

func codes(seq ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := seq[i%len(seq)]
		i++
		return c, nil
	}
}

type bookingFixture struct {
	store     *memStore
	offerings *OfferingService
	bookings  *BookingService
	sms       *fakeSMS
	offering  *models.Offering
}

func newBookingFixture(t *testing.T, masterOTP string, opts ...BookingOption) *bookingFixture {
	t.Helper()
	m := newMemStore()
	seedCatalogue(m)
	m.addUser("hh-1", "Asha", models.RoleHousehold, "soc-1", "+919876543210")
	m.addUser("maid-1", "Sunita", models.RoleMaid, "soc-1", "+919812345678")

	offerings := NewOfferingService(m)
	offering, err := offerings.Create(context.Background(), OfferingInput{SocietyID: "soc-1", ServiceID: ptr("srv-clean")})
	if err != nil {
		t.Fatalf("seed offering: %v", err)
	}
	sms := &fakeSMS{}
	opts = append([]BookingOption{WithOTPDelivery(sms)}, opts...)
	return &bookingFixture{
		store:     m,
		offerings: offerings,
		bookings:  NewBookingService(m, offerings, masterOTP, opts...),
		sms:       sms,
		offering:  offering,
	}
}

func (f *bookingFixture) book(t *testing.T) *models.BookingView {
	t.Helper()
	b, err := f.bookings.Create(context.Background(), BookingInput{
		SocietyServiceID: f.offering.ID,
		HouseholdID:      "hh-1",
		MaidID:           "maid-1",
		Date:             "2025-03-10",
		StartTime:        "09:00",
		EndTime:          "10:00",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func (f *bookingFixture) status(t *testing.T, id string) models.BookingStatus {
	t.Helper()
	b, err := f.bookings.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	return b.Status
}

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 2000; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatal(err)
		}
		n, err := strconv.Atoi(code)
		if err != nil || len(code) != 4 || n < 1000 || n > 9999 {
			t.Fatalf("code %q out of range", code)
		}
	}
}

func TestBookingPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "")
	b := f.book(t)
	if b.PriceAtBooking != 500 || b.Status != models.StatusRequested {
		t.Fatalf("new booking = %+v", b.Booking)
	}

	if _, err := f.offerings.Update(ctx, f.offering.ID, patchOf(t, `{"price": 600}`)); err != nil {
		t.Fatal(err)
	}
	got, err := f.bookings.Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PriceAtBooking != 500 {
		t.Errorf("snapshot changed to %v", got.PriceAtBooking)
	}
	if got.ServiceName.Get("en") != "Cleaning" || got.HouseholdName != "Asha" || got.MaidName != "Sunita" {
		t.Errorf("view = %+v", got)
	}

	next := f.book(t)
	if next.PriceAtBooking != 600 {
		t.Errorf("new booking price = %v, want 600", next.PriceAtBooking)
	}
}

func TestBookingCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "")
	valid := BookingInput{
		SocietyServiceID: f.offering.ID,
		HouseholdID:      "hh-1",
		MaidID:           "maid-1",
		Date:             "2025-03-10",
		StartTime:        "09:00",
		EndTime:          "10:00",
	}
	tests := []struct {
		name   string
		mutate func(*BookingInput)
	}{
		{"missing maid", func(in *BookingInput) { in.MaidID = "" }},
		{"bad date", func(in *BookingInput) { in.Date = "10/03/2025" }},
		{"end before start", func(in *BookingInput) { in.EndTime = "08:00" }},
		{"unknown offering", func(in *BookingInput) { in.SocietyServiceID = "ss-nope" }},
		{"custom without days", func(in *BookingInput) {
			in.IsRecurring = true
			in.Frequency = ptr(models.FrequencyCustom)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if _, err := f.bookings.Create(ctx, in); !IsKind(err, KindValidation) {
				t.Errorf("err = %v, want VALIDATION", err)
			}
		})
	}

	if err := f.offerings.Delete(ctx, f.offering.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.bookings.Create(ctx, valid); !IsKind(err, KindValidation) {
		t.Errorf("inactive offering: err = %v, want VALIDATION", err)
	}
}

func TestBookingOTPLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "", WithCodeGenerator(codes("4821", "7305")))
	b := f.book(t)

	code, err := f.bookings.RequestOTP(ctx, b.ID, "start")
	if err != nil {
		t.Fatalf("request start: %v", err)
	}
	if code != "4821" {
		t.Fatalf("code = %q", code)
	}
	stored, _ := f.store.GetBooking(ctx, b.ID)
	if stored.StartOTP == nil || *stored.StartOTP != "4821" || !stored.MaidRequestedStart {
		t.Errorf("after request = %+v", stored)
	}
	if stored.Status != models.StatusRequested {
		t.Errorf("request changed status to %s", stored.Status)
	}
	if len(f.sms.sent) != 1 || f.sms.sent[0].to != "+919876543210" || !strings.Contains(f.sms.sent[0].body, "4821") {
		t.Errorf("sms = %+v", f.sms.sent)
	}

	if _, err := f.bookings.VerifyOTP(ctx, b.ID, "start", "0000"); !IsKind(err, KindUnauthenticatedOTP) {
		t.Fatalf("wrong code: err = %v", err)
	}
	if s := f.status(t, b.ID); s != models.StatusRequested {
		t.Fatalf("wrong code moved status to %s", s)
	}

	status, err := f.bookings.VerifyOTP(ctx, b.ID, "start", "4821")
	if err != nil || status != models.StatusInProgress {
		t.Fatalf("verify start = %s, %v", status, err)
	}
	if _, err := f.bookings.VerifyOTP(ctx, b.ID, "start", "4821"); !IsKind(err, KindConflict) {
		t.Errorf("second start verify: err = %v, want CONFLICT", err)
	}

	endCode, err := f.bookings.RequestOTP(ctx, b.ID, "end")
	if err != nil || endCode != "7305" {
		t.Fatalf("request end = %q, %v", endCode, err)
	}
	status, err = f.bookings.VerifyOTP(ctx, b.ID, "end", "7305")
	if err != nil || status != models.StatusCompleted {
		t.Fatalf("verify end = %s, %v", status, err)
	}
	if _, err := f.bookings.VerifyOTP(ctx, b.ID, "end", "7305"); !IsKind(err, KindConflict) {
		t.Errorf("verify after completion: err = %v, want CONFLICT", err)
	}
}

func TestBookingCancelAndRegenerateOTP(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "", WithCodeGenerator(codes("1111", "2222")))
	b := f.book(t)

	if _, err := f.bookings.RequestOTP(ctx, b.ID, "end"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := f.bookings.CancelOTPRequest(ctx, b.ID, "end"); err != nil {
			t.Fatalf("cancel #%d: %v", i+1, err)
		}
	}
	stored, _ := f.store.GetBooking(ctx, b.ID)
	if stored.EndOTP != nil || stored.MaidRequestedEnd {
		t.Errorf("after cancel = %+v", stored)
	}
	if _, err := f.bookings.VerifyOTP(ctx, b.ID, "end", "1111"); !IsKind(err, KindUnauthenticatedOTP) {
		t.Errorf("cancelled code accepted: err = %v", err)
	}

	code, err := f.bookings.RegenerateOTP(ctx, b.ID, "end")
	if err != nil || code != "2222" {
		t.Fatalf("regenerate = %q, %v", code, err)
	}
	stored, _ = f.store.GetBooking(ctx, b.ID)
	if stored.EndOTP == nil || *stored.EndOTP != "2222" || stored.MaidRequestedEnd {
		t.Errorf("after regenerate = %+v", stored)
	}
}

func TestBookingMasterOTP(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "1234")
	b := f.book(t)

	status, err := f.bookings.VerifyOTP(ctx, b.ID, "start", "1234")
	if err != nil || status != models.StatusInProgress {
		t.Fatalf("master start = %s, %v", status, err)
	}
	status, err = f.bookings.VerifyOTP(ctx, b.ID, "end", "1234")
	if err != nil || status != models.StatusCompleted {
		t.Fatalf("master end = %s, %v", status, err)
	}
}

func TestBookingOTPErrors(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "")
	b := f.book(t)

	_, err := f.bookings.RequestOTP(ctx, b.ID, "middle")
	if !IsKind(err, KindValidation) || err.(*Error).Fields[0] != "type" {
		t.Errorf("bad phase: err = %v", err)
	}
	if _, err := f.bookings.RequestOTP(ctx, "bk-missing", "start"); !IsKind(err, KindNotFound) {
		t.Errorf("missing booking: err = %v", err)
	}
	if _, err := f.bookings.VerifyOTP(ctx, b.ID, "start", " "); !IsKind(err, KindValidation) {
		t.Errorf("blank code: err = %v", err)
	}
	if _, err := f.bookings.VerifyOTP(ctx, b.ID, "start", "1234"); !IsKind(err, KindUnauthenticatedOTP) {
		t.Errorf("no stored code: err = %v", err)
	}
}

func TestBookingTransitionAndOverride(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "")
	b := f.book(t)

	view, err := f.bookings.Transition(ctx, b.ID, models.StatusConfirmed)
	if err != nil || view.Status != models.StatusConfirmed {
		t.Fatalf("confirm = %v, %v", view, err)
	}
	for _, to := range []models.BookingStatus{models.StatusInProgress, models.StatusCompleted} {
		if _, err := f.bookings.Transition(ctx, b.ID, to); !IsKind(err, KindValidation) {
			t.Errorf("transition to %s: err = %v, want VALIDATION", to, err)
		}
	}
	if s := f.status(t, b.ID); s != models.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", s)
	}
	if _, err := f.bookings.Transition(ctx, b.ID, models.StatusConfirmed); !IsKind(err, KindConflict) {
		t.Errorf("confirm twice: err = %v, want CONFLICT", err)
	}
	if _, err := f.bookings.Transition(ctx, b.ID, models.StatusCancelled); err != nil {
		t.Fatal(err)
	}

	if err := f.bookings.OverrideStatus(ctx, b.ID, models.StatusConfirmed); err != nil {
		t.Fatalf("override: %v", err)
	}
	if s := f.status(t, b.ID); s != models.StatusConfirmed {
		t.Errorf("status = %s after override", s)
	}
	if err := f.bookings.OverrideStatus(ctx, b.ID, "DONE"); !IsKind(err, KindValidation) {
		t.Errorf("bogus status: err = %v", err)
	}
}

func TestBookingUpdatePatch(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "")
	b := f.book(t)

	view, err := f.bookings.Update(ctx, b.ID, patchOf(t, `{"startTime": "11:00", "endTime": "12:30", "customPrice": 450}`))
	if err != nil {
		t.Fatal(err)
	}
	if view.StartTime != "11:00" || view.CustomPrice == nil || *view.CustomPrice != 450 {
		t.Errorf("updated = %+v", view.Booking)
	}
	if view.PriceAtBooking != 500 {
		t.Errorf("price snapshot = %v", view.PriceAtBooking)
	}
	if _, err := f.bookings.Update(ctx, b.ID, patchOf(t, `{"priceAtBooking": 1}`)); !IsKind(err, KindValidation) {
		t.Errorf("snapshot patch: err = %v, want VALIDATION", err)
	}
	if _, err := f.bookings.Update(ctx, b.ID, patchOf(t, `{"endTime": "10:00"}`)); !IsKind(err, KindValidation) {
		t.Errorf("end before start: err = %v, want VALIDATION", err)
	}
}

func TestBookingListings(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "")
	f.book(t)
	f.book(t)

	byHousehold, err := f.bookings.ListForUser(ctx, "hh-1", models.RoleHousehold)
	if err != nil || len(byHousehold) != 2 {
		t.Fatalf("household list = %d, %v", len(byHousehold), err)
	}
	byMaid, _ := f.bookings.ListForUser(ctx, "maid-1", models.RoleMaid)
	if len(byMaid) != 2 {
		t.Errorf("maid list = %d", len(byMaid))
	}
	bySociety, _ := f.bookings.ListForSociety(ctx, "soc-1")
	if len(bySociety) != 2 {
		t.Errorf("society list = %d", len(bySociety))
	}
	if _, err := f.bookings.ListForUser(ctx, "hh-1", models.RoleSysAdmin); !IsKind(err, KindValidation) {
		t.Errorf("admin role: err = %v", err)
	}
}

func TestBookingConcurrentVerifyAdvancesOnce(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "", WithCodeGenerator(codes("4821")))
	b := f.book(t)
	if _, err := f.bookings.RequestOTP(ctx, b.ID, "start"); err != nil {
		t.Fatal(err)
	}

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		advanced  int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.bookings.VerifyOTP(ctx, b.ID, "start", "4821")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				advanced++
			case IsKind(err, KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if advanced != 1 || conflicts != callers-1 {
		t.Errorf("advanced = %d, conflicts = %d", advanced, conflicts)
	}
	if s := f.status(t, b.ID); s != models.StatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", s)
	}
}

func TestFakeStoreWritesOnlyNamedColumns(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t, "")
	b := f.book(t)

	stored, _ := f.store.GetBooking(ctx, b.ID)
	code := "4821"
	stored.StartOTP = &code
	stored.EndTime = "23:00"
	if err := f.store.UpdateBookingColumns(ctx, stored, []string{"start_otp"}); err != nil {
		t.Fatal(err)
	}
	got, _ := f.store.GetBooking(ctx, b.ID)
	if got.StartOTP == nil || *got.StartOTP != "4821" || got.EndTime != "10:00" {
		t.Errorf("stored = %+v", got)
	}
	if err := f.store.UpdateBookingColumns(ctx, stored, []string{"startOtp"}); err == nil {
		t.Error("field name accepted as a column")
	}
}
