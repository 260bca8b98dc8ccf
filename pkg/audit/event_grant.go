package audit

import "fmt"

// GrantEvent records an explicit role grant or revocation
type GrantEvent struct {
	ActorID      string
	UserID       string
	ProjectID    string
	RoleID       string
	ClientIP     string
	Revoke       bool
	Success      bool
	ErrorMessage string
}

func (e GrantEvent) MessageID() string {
	if e.Revoke {
		return "revoke"
	}
	return "grant"
}

func (e GrantEvent) Message() string {
	verb := "granted"
	if e.Revoke {
		verb = "revoked"
	}
	if e.Success {
		return fmt.Sprintf("%s %s role %s on project %s for %s", e.ActorID, verb, e.RoleID, e.ProjectID, e.UserID)
	}
	msg := fmt.Sprintf("%s failed to %s role %s on project %s for %s", e.ActorID, e.MessageID(), e.RoleID, e.ProjectID, e.UserID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e GrantEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e GrantEvent) Facility() int {
	return FacilityAuthPriv
}

func (e GrantEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.ActorID,
		},
		SDIDSubject: {
			"user":    e.UserID,
			"project": e.ProjectID,
			"role":    e.RoleID,
		},
		SDIDAction: {
			"operation": e.MessageID(),
		},
	}
	if e.ClientIP != "" {
		sd[SDIDClient] = map[string]string{"ip": e.ClientIP}
	}
	if e.Success {
		sd[SDIDAction]["result"] = "success"
	} else {
		sd[SDIDAction]["result"] = "failure"
	}
	return sd
}
