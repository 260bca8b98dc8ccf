package audit

import "fmt"

// ProvisionEvent records the creation of the default project/role
// assignment on a directory user's first login.
type ProvisionEvent struct {
	UserID       string
	ProjectID    string
	RoleID       string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e ProvisionEvent) MessageID() string {
	return "provision"
}

func (e ProvisionEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("provisioned default role %s on project %s for %s", e.RoleID, e.ProjectID, e.UserID)
	}
	msg := fmt.Sprintf("failed to provision default assignment for %s", e.UserID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ProvisionEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e ProvisionEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ProvisionEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"project": e.ProjectID,
			"role":    e.RoleID,
		},
		SDIDAction: {
			"operation": "provision",
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
