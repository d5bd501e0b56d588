package directory

import (
	"testing"

	apperrors "github.com/iotify/gateway/internal/errors"
)

func TestVerifyCredentials(t *testing.T) {
	store := newTestStore(t)
	if err := store.CreateUser("bob", "secret"); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}

	adapter := NewAdapter(store, false)

	tests := []struct {
		name     string
		username string
		password string
		want     VerifyResult
	}{
		{name: "correct credentials", username: "bob", password: "secret", want: VerifyAffirmed},
		{name: "wrong password", username: "bob", password: "wrong", want: VerifyWrongPassword},
		{name: "unknown user", username: "ghost", password: "secret", want: VerifyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.VerifyCredentials(tt.username, tt.password); got != tt.want {
				t.Errorf("VerifyCredentials() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyCredentials_StoreUnavailable(t *testing.T) {
	adapter := NewAdapter(nil, false)
	if got := adapter.VerifyCredentials("bob", "secret"); got != VerifyStoreUnavailable {
		t.Errorf("VerifyCredentials() = %v, want VerifyStoreUnavailable", got)
	}
}

func TestListDevicesForUser(t *testing.T) {
	store := newTestStore(t)
	if err := store.CreateUser("bob", "pw"); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	record := Record{Owner: "bob", Name: "Living Room Light", Pin: 5}
	if err := store.AddDevice(&record); err != nil {
		t.Fatalf("AddDevice(): %v", err)
	}

	adapter := NewAdapter(store, false)

	records, err := adapter.ListDevicesForUser("bob")
	if err != nil {
		t.Fatalf("ListDevicesForUser() error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Living Room Light" {
		t.Errorf("records = %+v", records)
	}
}

func TestListDevicesForUser_EmptyWithoutFallback(t *testing.T) {
	store := newTestStore(t)
	adapter := NewAdapter(store, false)

	records, err := adapter.ListDevicesForUser("bob")
	if err != nil {
		t.Fatalf("ListDevicesForUser() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records with fallback disabled, got %d", len(records))
	}
}

func TestListDevicesForUser_SyntheticFallback(t *testing.T) {
	store := newTestStore(t)
	adapter := NewAdapter(store, true)

	records, err := adapter.ListDevicesForUser("bob")
	if err != nil {
		t.Fatalf("ListDevicesForUser() error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3 synthetic devices", len(records))
	}
	if records[0].Name != "Living Room Light" || records[0].Pin != 5 {
		t.Errorf("first synthetic record = %+v", records[0])
	}
	for _, r := range records {
		if r.Owner != "bob" {
			t.Errorf("synthetic record owner = %q, want bob", r.Owner)
		}
	}
}

func TestListDevicesForUser_SyntheticSkippedWhenRowsExist(t *testing.T) {
	store := newTestStore(t)
	if err := store.CreateUser("bob", "pw"); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	record := Record{Owner: "bob", Name: "Garage Door", Pin: 12}
	if err := store.AddDevice(&record); err != nil {
		t.Fatalf("AddDevice(): %v", err)
	}

	adapter := NewAdapter(store, true)
	records, err := adapter.ListDevicesForUser("bob")
	if err != nil {
		t.Fatalf("ListDevicesForUser() error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Garage Door" {
		t.Errorf("real rows must win over synthetic set, got %+v", records)
	}
}

func TestListDevicesForUser_StoreUnavailable(t *testing.T) {
	adapter := NewAdapter(nil, true)

	_, err := adapter.ListDevicesForUser("bob")
	if err == nil {
		t.Fatal("expected error with nil store")
	}
	if !apperrors.IsCode(err, apperrors.CodeDirectoryUnavailable) {
		t.Errorf("error code = %q, want %q", apperrors.GetCode(err), apperrors.CodeDirectoryUnavailable)
	}
}
