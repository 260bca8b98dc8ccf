package audit

import "fmt"

// AuthenticateEvent represents an authentication attempt. Backend
// names which identity backend answered ("sql" or "ldap").
type AuthenticateEvent struct {
	UserID       string
	ClientIP     string
	Backend      string
	Success      bool
	ErrorMessage string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated with %s backend", e.UserID, e.Backend)
	}
	msg := fmt.Sprintf("%s failed to authenticate", e.UserID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
	if e.Backend != "" {
		sd[SDIDAuth]["backend"] = e.Backend
	}
	return sd
}
