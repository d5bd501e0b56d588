package directory

import (
	"errors"
	"testing"
)

// newTestStore creates an in-memory store that is torn down with the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetUser(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser("bob", "secret"); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}

	user, err := store.GetUser("bob")
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if user.Username != "bob" {
		t.Errorf("username = %q", user.Username)
	}
	if user.PasswordHash == "secret" || user.PasswordHash == "" {
		t.Error("password must be stored as a hash, never plaintext")
	}
	if user.CreatedAt.IsZero() {
		t.Error("created_at not persisted")
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser("bob", "secret"); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if err := store.CreateUser("bob", "other"); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate CreateUser() = %v, want ErrUserExists", err)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser("", "pw"); err == nil {
		t.Error("empty username should be rejected")
	}
	if err := store.CreateUser("bob", ""); err == nil {
		t.Error("empty password should be rejected")
	}
}

func TestGetUser_NotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetUser("ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser(ghost) = %v, want ErrUserNotFound", err)
	}
}

func TestListUsers(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"carol", "alice", "bob"} {
		if err := store.CreateUser(name, "pw"); err != nil {
			t.Fatalf("CreateUser(%s): %v", name, err)
		}
	}

	users, err := store.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers() error: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("len(users) = %d, want 3", len(users))
	}
	// Ordered by username.
	if users[0].Username != "alice" || users[2].Username != "carol" {
		t.Errorf("unexpected order: %s, %s, %s",
			users[0].Username, users[1].Username, users[2].Username)
	}
}

func TestAddAndListDevices(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser("bob", "pw"); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}

	devices := []Record{
		{Owner: "bob", Name: "Bedroom Fan", Pin: 6, CachedState: "1"},
		{Owner: "bob", Name: "Living Room Light", Pin: 5},
	}
	for i := range devices {
		if err := store.AddDevice(&devices[i]); err != nil {
			t.Fatalf("AddDevice(): %v", err)
		}
	}

	records, err := store.DevicesForOwner("bob")
	if err != nil {
		t.Fatalf("DevicesForOwner() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	// Ordered by pin.
	if records[0].Pin != 5 || records[1].Pin != 6 {
		t.Errorf("unexpected pin order: %d, %d", records[0].Pin, records[1].Pin)
	}
	if records[0].CachedState != "0" {
		t.Errorf("default cached state = %q, want \"0\"", records[0].CachedState)
	}
	if records[0].ID == "" || records[0].ExternalID == "" {
		t.Error("ids should be generated when absent")
	}

	// Unknown owner: empty, not an error.
	records, err = store.DevicesForOwner("ghost")
	if err != nil {
		t.Fatalf("DevicesForOwner(ghost) error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestUpdateCachedState(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser("bob", "pw"); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	record := Record{Owner: "bob", Name: "Desk Lamp", Pin: 7}
	if err := store.AddDevice(&record); err != nil {
		t.Fatalf("AddDevice(): %v", err)
	}

	if err := store.UpdateCachedState(7, "1"); err != nil {
		t.Fatalf("UpdateCachedState() error: %v", err)
	}

	records, err := store.DevicesForOwner("bob")
	if err != nil {
		t.Fatalf("DevicesForOwner() error: %v", err)
	}
	if records[0].CachedState != "1" {
		t.Errorf("cached state = %q, want \"1\"", records[0].CachedState)
	}
}
