package audit

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStoreSaveAuthenticateEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := AuthenticateEvent{
		UserID:   "c4f0e3d2",
		ClientIP: "192.168.1.1",
		Backend:  "ldap",
		Success:  true,
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,  // facility
			int(SeverityInfo), // severity
			sqlmock.AnyArg(),  // timestamp
			sqlmock.AnyArg(),  // hostname
			"keystone-hybrid", // appname
			sqlmock.AnyArg(),  // procid
			"authn",           // msgid
			sqlmock.AnyArg(),  // sdata (JSON)
			sqlmock.AnyArg(),  // message
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveProvisionEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := ProvisionEvent{
		UserID:    "c4f0e3d2",
		ProjectID: "proj-1",
		RoleID:    "role-1",
		Success:   true,
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,
			int(SeverityNotice),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"keystone-hybrid",
			sqlmock.AnyArg(),
			"provision",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveFailedEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := GrantEvent{
		ActorID:      "admin-1",
		UserID:       "c4f0e3d2",
		ProjectID:    "proj-1",
		RoleID:       "role-1",
		Success:      false,
		ErrorMessage: "role not found",
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,
			int(SeverityWarning), // Failed events have warning severity
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"keystone-hybrid",
			sqlmock.AnyArg(),
			"grant",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreNilDB(t *testing.T) {
	store := &Store{db: nil}

	event := AuthenticateEvent{
		UserID:  "c4f0e3d2",
		Success: true,
	}

	// Should not error when db is nil
	err := store.Save(event)
	if err != nil {
		t.Errorf("Save() with nil db should not error, got: %v", err)
	}
}

func TestStoreClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	store := NewStoreWithDB(db)

	mock.ExpectClose()

	err = store.Close()
	if err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreCloseNilDB(t *testing.T) {
	store := &Store{db: nil}

	err := store.Close()
	if err != nil {
		t.Errorf("Close() with nil db should not error, got: %v", err)
	}
}

func TestStoreCompose(t *testing.T) {
	store := NewStoreWithDB(nil)

	event := AuthenticateEvent{
		UserID:   "c4f0e3d2",
		ClientIP: "192.168.1.1",
		Backend:  "ldap",
		Success:  true,
	}

	before := time.Now().UTC()
	msg := store.compose(event)

	if msg.Facility != FacilityAuthPriv {
		t.Errorf("compose().Facility = %v, want %v", msg.Facility, FacilityAuthPriv)
	}
	if msg.Severity != int(SeverityInfo) {
		t.Errorf("compose().Severity = %v, want %v", msg.Severity, int(SeverityInfo))
	}
	if msg.Appname != appName {
		t.Errorf("compose().Appname = %q, want %q", msg.Appname, appName)
	}
	if msg.Procid == "" {
		t.Error("compose().Procid is empty")
	}
	if msg.Msgid != "authn" {
		t.Errorf("compose().Msgid = %q, want 'authn'", msg.Msgid)
	}
	if msg.Timestamp.Before(before) {
		t.Errorf("compose().Timestamp = %v, before test start %v", msg.Timestamp, before)
	}
	if msg.Message != event.Message() {
		t.Errorf("compose().Message = %q, want %q", msg.Message, event.Message())
	}

	authSD, ok := msg.Sdata[SDIDAuth].(map[string]string)
	if !ok {
		t.Fatalf("compose().Sdata[%q] missing or wrong type: %#v", SDIDAuth, msg.Sdata)
	}
	if authSD["user"] != "c4f0e3d2" {
		t.Errorf("Sdata user = %q, want 'c4f0e3d2'", authSD["user"])
	}
}
