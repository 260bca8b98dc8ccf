package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity"
	"github.com/doodlesbykumbi/keystone-hybrid/pkg/identity/sqlident"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	userIDs      map[string]string // name -> id for seeded users
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:      tc,
		userIDs: make(map[string]string),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^a hybrid identity server is running$`, s.aServerIsRunning)
	sc.Step(`^a local user "([^"]*)" exists with password "([^"]*)"$`, s.aLocalUserExists)
	sc.Step(`^a directory user "([^"]*)" exists with password "([^"]*)"$`, s.aDirectoryUserExists)
	sc.Step(`^a project "([^"]*)" exists$`, s.aProjectExists)

	// Authentication steps
	sc.Step(`^I authenticate user "([^"]*)" with password "([^"]*)"$`, s.iAuthenticateWithPassword)
	sc.Step(`^I request my identity$`, s.iRequestMyIdentity)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^I should receive a session token$`, s.iShouldReceiveASessionToken)
	sc.Step(`^the identity should be user "([^"]*)"$`, s.theIdentityShouldBeUser)

	// Assignment steps
	sc.Step(`^user "([^"]*)" should have role "([^"]*)" on project "([^"]*)"$`, s.userShouldHaveRoleOnProject)
	sc.Step(`^user "([^"]*)" should have no role assignments$`, s.userShouldHaveNoAssignments)
	sc.Step(`^user "([^"]*)" should have (\d+) role assignments? on project "([^"]*)"$`, s.userShouldHaveNAssignments)
}

// Background steps

func (s *StepsContext) aServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) aLocalUserExists(name, password string) error {
	if _, ok := s.userIDs[name]; ok {
		return nil
	}

	user, err := sqlident.New(s.tc.DB).CreateUser(context.Background(), &identity.User{
		Name:    name,
		Enabled: true,
	}, password)
	if err != nil {
		return fmt.Errorf("failed to create local user %s: %w", name, err)
	}

	s.userIDs[name] = user.ID
	return nil
}

func (s *StepsContext) aDirectoryUserExists(name, password string) error {
	id := "dir-" + name
	s.tc.Instance.Directory.AddUser(id, name, password)

	// The hybrid driver only routes a login to the directory when a
	// password-less SQL record exists under the directory-provided id.
	if _, ok := s.userIDs[name]; !ok {
		_, err := sqlident.New(s.tc.DB).CreateUser(context.Background(), &identity.User{
			ID:      id,
			Name:    name,
			Enabled: true,
		}, "")
		if err != nil {
			return fmt.Errorf("failed to create directory record for %s: %w", name, err)
		}
	}

	s.userIDs[name] = id
	return nil
}

func (s *StepsContext) aProjectExists(name string) error {
	return s.tc.DB.Exec(`
		INSERT INTO projects (id, name) VALUES (?, ?)
		ON CONFLICT (name) DO NOTHING
	`, "proj-"+name, name).Error
}

// Authentication steps

func (s *StepsContext) iAuthenticateWithPassword(name, password string) error {
	userID, ok := s.userIDs[name]
	if !ok {
		// Unknown on purpose: scenarios probe nonexistent users too
		userID = name
	}

	body, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s/v1/users/%s/authenticate", s.tc.ServerURL, url.PathEscape(userID))
	req, err := http.NewRequest("POST", reqURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	if err != nil {
		return err
	}

	// If successful, extract token for follow-up requests
	if s.response.StatusCode == http.StatusOK {
		var result struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(s.responseBody, &result); err == nil {
			s.authToken = result.Token
		}
	}

	return nil
}

func (s *StepsContext) iRequestMyIdentity() error {
	req, err := http.NewRequest("GET", s.tc.ServerURL+"/whoami", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.authToken)

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) iShouldReceiveASessionToken() error {
	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(s.responseBody, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Token == "" {
		return fmt.Errorf("missing 'token' field in response: %s", string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theIdentityShouldBeUser(name string) error {
	var result struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(s.responseBody, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Username != name {
		return fmt.Errorf("expected username %q, got %q", name, result.Username)
	}
	if expected, ok := s.userIDs[name]; ok && result.UserID != expected {
		return fmt.Errorf("expected user id %q, got %q", expected, result.UserID)
	}
	return nil
}

// Assignment steps

func (s *StepsContext) userShouldHaveRoleOnProject(name, roleName, projectName string) error {
	userID, ok := s.userIDs[name]
	if !ok {
		return fmt.Errorf("unknown user %q", name)
	}

	var count int64
	err := s.tc.DB.Raw(`
		SELECT COUNT(*) FROM user_project_metadata m
		JOIN projects p ON p.id = m.project_id
		JOIN roles r ON r.id = m.role_id
		WHERE m.user_id = ? AND p.name = ? AND r.name = ?
	`, userID, projectName, roleName).Scan(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("user %s has no %s role on project %s", name, roleName, projectName)
	}
	return nil
}

func (s *StepsContext) userShouldHaveNoAssignments(name string) error {
	userID, ok := s.userIDs[name]
	if !ok {
		return fmt.Errorf("unknown user %q", name)
	}

	var count int64
	if err := s.tc.DB.Raw(`SELECT COUNT(*) FROM user_project_metadata WHERE user_id = ?`, userID).Scan(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("user %s has %d assignments, expected none", name, count)
	}
	return nil
}

func (s *StepsContext) userShouldHaveNAssignments(name string, expected int, projectName string) error {
	userID, ok := s.userIDs[name]
	if !ok {
		return fmt.Errorf("unknown user %q", name)
	}

	var count int64
	err := s.tc.DB.Raw(`
		SELECT COUNT(*) FROM user_project_metadata m
		JOIN projects p ON p.id = m.project_id
		WHERE m.user_id = ? AND p.name = ?
	`, userID, projectName).Scan(&count).Error
	if err != nil {
		return err
	}
	if int(count) != expected {
		return fmt.Errorf("user %s has %d assignments on project %s, expected %d", name, count, projectName, expected)
	}
	return nil
}
