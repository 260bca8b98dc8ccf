package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Message is the persisted form of an audit event, one row in the
// messages table. Sdata holds the event's structured data keyed by SDID.
type Message struct {
	Facility  int            `json:"facility"`
	Severity  int            `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Hostname  string         `json:"hostname"`
	Appname   string         `json:"appname"`
	Procid    string         `json:"procid"`
	Msgid     string         `json:"msgid"`
	Sdata     map[string]any `json:"sdata"`
	Message   string         `json:"message"`
}

// Store persists audit events to the messages table. The zero-db store
// is a no-op, so callers never need to branch on whether the audit
// database is configured.
type Store struct {
	db       *sql.DB
	hostname string
	procid   string
}

// NewStore creates a store from AUDIT_DATABASE_URL. Returns (nil, nil)
// when the variable is unset, which disables database persistence.
func NewStore() (*Store, error) {
	dbURL := os.Getenv("AUDIT_DATABASE_URL")
	if dbURL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	return NewStoreWithDB(db), nil
}

// NewStoreWithDB wraps an existing connection. The host identity is
// captured once here rather than per event.
func NewStoreWithDB(db *sql.DB) *Store {
	hostname, _ := os.Hostname()
	return &Store{
		db:       db,
		hostname: hostname,
		procid:   strconv.Itoa(os.Getpid()),
	}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// compose maps an event onto its persisted row shape.
func (s *Store) compose(event Event) Message {
	sdata := make(map[string]any)
	for sdid, params := range event.StructuredData() {
		sdata[sdid] = params
	}

	return Message{
		Facility:  event.Facility(),
		Severity:  int(event.Severity()),
		Timestamp: time.Now().UTC(),
		Hostname:  s.hostname,
		Appname:   appName,
		Procid:    s.procid,
		Msgid:     event.MessageID(),
		Sdata:     sdata,
		Message:   event.Message(),
	}
}

// Save persists an audit event to the database
func (s *Store) Save(event Event) error {
	if s.db == nil {
		return nil
	}

	msg := s.compose(event)

	sdataJSON, err := json.Marshal(msg.Sdata)
	if err != nil {
		return fmt.Errorf("audit sdata encode failed: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		msg.Facility,
		msg.Severity,
		msg.Timestamp,
		msg.Hostname,
		msg.Appname,
		msg.Procid,
		msg.Msgid,
		sdataJSON,
		msg.Message,
	)

	return err
}

// DB returns the underlying database connection (for testing)
func (s *Store) DB() *sql.DB {
	return s.db
}
