package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func patchOf(t *testing.T, body string) Patch {
	t.Helper()
	var p Patch
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("bad patch %s: %v", body, err)
	}
	return p
}

func TestSocietyServicePatchOmittedVersusNull(t *testing.T) {
	row := SocietyService{ServiceID: ptr("srv-1"), Price: ptr(600.0), Icon: ptr("x"), IsActive: true}

	cols, err := SocietyServicePatchRules.Apply(&row, patchOf(t, `{"price": null}`))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if row.Price != nil {
		t.Errorf("price = %v, want cleared", *row.Price)
	}
	if row.Icon == nil || *row.Icon != "x" {
		t.Error("omitted icon was touched")
	}
	if len(cols) != 1 || cols[0] != "price" {
		t.Errorf("columns = %v", cols)
	}
}

func TestSocietyServicePatchSetsOverrides(t *testing.T) {
	row := SocietyService{ServiceID: ptr("srv-1"), IsActive: true}
	_, err := SocietyServicePatchRules.Apply(&row, patchOf(t, `{"price": 650, "name": "Premium", "duration": 30, "isActive": false}`))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if *row.Price != 650 || row.Name.Get("en") != "Premium" || *row.Duration != 30 || row.IsActive {
		t.Errorf("row = %+v", row)
	}
}

func TestPatchRejectsUnknownFields(t *testing.T) {
	row := SocietyService{Price: ptr(1.0)}
	_, err := SocietyServicePatchRules.Apply(&row, patchOf(t, `{"price": 5, "serviceId": "srv-2", "societyId": "soc-2"}`))
	var unknown *UnknownFieldsError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownFieldsError", err)
	}
	if len(unknown.Fields) != 2 || unknown.Fields[0] != "serviceId" || unknown.Fields[1] != "societyId" {
		t.Errorf("fields = %v", unknown.Fields)
	}
	if *row.Price != 1 {
		t.Error("patch partially applied despite unknown fields")
	}
}

func TestPatchFieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"isActive null", `{"isActive": null}`, "isActive"},
		{"negative price", `{"price": -1}`, "price"},
		{"malformed duration", `{"duration": "long"}`, "duration"},
		{"name without english", `{"name": {"hi": "x"}}`, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := SocietyService{}
			_, err := SocietyServicePatchRules.Apply(&row, patchOf(t, tt.body))
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want FieldError", err)
			}
			if fe.Field != tt.field {
				t.Errorf("field = %q, want %q", fe.Field, tt.field)
			}
		})
	}
}

func TestServicePatchRejectsNull(t *testing.T) {
	svc := *cleaning()
	_, err := ServicePatchRules.Apply(&svc, patchOf(t, `{"basePrice": null}`))
	if !errors.Is(err, ErrNullNotAllowed) {
		t.Fatalf("err = %v, want ErrNullNotAllowed", err)
	}
}

func TestBookingPatchRules(t *testing.T) {
	b := Booking{Date: "2025-01-01", StartTime: "09:00", EndTime: "10:00", Status: StatusRequested}
	cols, err := BookingPatchRules.Apply(&b, patchOf(t, `{"date": "2025-02-03", "startOtp": "1234", "customPrice": 99.5}`))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if b.Date != "2025-02-03" || *b.StartOTP != "1234" || *b.CustomPrice != 99.5 {
		t.Errorf("booking = %+v", b)
	}
	if len(cols) != 3 {
		t.Errorf("columns = %v", cols)
	}

	for _, body := range []string{`{"status": "DONE"}`, `{"startTime": "9am"}`, `{"endOtp": "12"}`, `{"priceAtBooking": 1}`} {
		if _, err := BookingPatchRules.Apply(&b, patchOf(t, body)); err == nil {
			t.Errorf("%s: expected error", body)
		}
	}
}
