package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/keystone-hybrid/config"
	ConfigFileName    = "hybrid.yml"
)

// ValidQueryScopes is the list of valid LDAP search scopes
var ValidQueryScopes = []string{"one", "sub"}

// LDAPConfig holds the directory connection and schema mapping settings
type LDAPConfig struct {
	// URL is the directory server URL, e.g. ldap://ldap.example.com:389
	URL string `yaml:"url" json:"url"`

	// UserTreeDN is the subtree user entries live under
	UserTreeDN string `yaml:"user_tree_dn" json:"user_tree_dn"`

	// BindDN and BindPassword are the service account used for searches.
	// User authentication always binds as the user itself.
	BindDN       string `yaml:"bind_dn" json:"bind_dn"`
	BindPassword string `yaml:"bind_password" json:"-"`

	// UserObjectClass filters user entries (default inetOrgPerson)
	UserObjectClass string `yaml:"user_objectclass" json:"user_objectclass"`

	// UserIDAttribute is the attribute holding the opaque user id and
	// the RDN attribute used to derive a user's DN from its name
	UserIDAttribute string `yaml:"user_id_attribute" json:"user_id_attribute"`

	// UserNameAttribute is the attribute holding the login name
	UserNameAttribute string `yaml:"user_name_attribute" json:"user_name_attribute"`

	// UserMailAttribute is the attribute holding the email address
	UserMailAttribute string `yaml:"user_mail_attribute" json:"user_mail_attribute"`

	// QueryScope is the search scope: "one" or "sub"
	QueryScope string `yaml:"query_scope" json:"query_scope"`

	// UseStartTLS upgrades the connection before any bind
	UseStartTLS bool `yaml:"use_start_tls" json:"use_start_tls"`

	// TimeoutSeconds bounds dial and search operations
	TimeoutSeconds int `yaml:"timeout" json:"timeout"`
}

// Timeout returns the LDAP operation timeout as a duration
func (l LDAPConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// HybridConfig holds all hybrid identity backend settings
type HybridConfig struct {
	// DefaultProject is the project name granted on a directory
	// user's first successful login. Empty disables auto-provisioning.
	DefaultProject string `yaml:"default_project" json:"default_project"`

	// DefaultRole is the role name granted with DefaultProject
	DefaultRole string `yaml:"default_role" json:"default_role"`

	// ListLDAPUsers merges directory users into user listings
	ListLDAPUsers bool `yaml:"list_ldap_users" json:"list_ldap_users"`

	// TokenTTL is the admin-session token lifetime in seconds
	TokenTTL int `yaml:"token_ttl" json:"token_ttl"`

	// TrustedProxies is a list of CIDR ranges for trusted proxies
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// LDAP is the directory backend configuration
	LDAP LDAPConfig `yaml:"ldap" json:"ldap"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *HybridConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *HybridConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *HybridConfig {
	return &HybridConfig{
		DefaultProject: "",
		DefaultRole:    "_member_",
		ListLDAPUsers:  false,
		TokenTTL:       3600,
		TrustedProxies: []string{},
		LDAP: LDAPConfig{
			UserObjectClass:   "inetOrgPerson",
			UserIDAttribute:   "cn",
			UserNameAttribute: "cn",
			UserMailAttribute: "mail",
			QueryScope:        "one",
			TimeoutSeconds:    10,
		},
		sources: make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*HybridConfig, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("HYBRID_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig HybridConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"default_project", "default_role", "list_ldap_users",
		"token_ttl", "trusted_proxies",
		"ldap.url", "ldap.user_tree_dn", "ldap.bind_dn",
		"ldap.user_objectclass", "ldap.user_id_attribute",
		"ldap.user_name_attribute", "ldap.user_mail_attribute",
		"ldap.query_scope", "ldap.use_start_tls", "ldap.timeout",
	}
}

func (c *HybridConfig) applyFileConfig(file *HybridConfig) {
	if file.DefaultProject != "" {
		c.DefaultProject = file.DefaultProject
		c.sources["default_project"] = "file"
	}
	if file.DefaultRole != "" {
		c.DefaultRole = file.DefaultRole
		c.sources["default_role"] = "file"
	}
	if file.ListLDAPUsers {
		c.ListLDAPUsers = true
		c.sources["list_ldap_users"] = "file"
	}
	if file.TokenTTL != 0 {
		c.TokenTTL = file.TokenTTL
		c.sources["token_ttl"] = "file"
	}
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}

	if file.LDAP.URL != "" {
		c.LDAP.URL = file.LDAP.URL
		c.sources["ldap.url"] = "file"
	}
	if file.LDAP.UserTreeDN != "" {
		c.LDAP.UserTreeDN = file.LDAP.UserTreeDN
		c.sources["ldap.user_tree_dn"] = "file"
	}
	if file.LDAP.BindDN != "" {
		c.LDAP.BindDN = file.LDAP.BindDN
		c.LDAP.BindPassword = file.LDAP.BindPassword
		c.sources["ldap.bind_dn"] = "file"
	}
	if file.LDAP.UserObjectClass != "" {
		c.LDAP.UserObjectClass = file.LDAP.UserObjectClass
		c.sources["ldap.user_objectclass"] = "file"
	}
	if file.LDAP.UserIDAttribute != "" {
		c.LDAP.UserIDAttribute = file.LDAP.UserIDAttribute
		c.sources["ldap.user_id_attribute"] = "file"
	}
	if file.LDAP.UserNameAttribute != "" {
		c.LDAP.UserNameAttribute = file.LDAP.UserNameAttribute
		c.sources["ldap.user_name_attribute"] = "file"
	}
	if file.LDAP.UserMailAttribute != "" {
		c.LDAP.UserMailAttribute = file.LDAP.UserMailAttribute
		c.sources["ldap.user_mail_attribute"] = "file"
	}
	if file.LDAP.QueryScope != "" {
		c.LDAP.QueryScope = file.LDAP.QueryScope
		c.sources["ldap.query_scope"] = "file"
	}
	if file.LDAP.UseStartTLS {
		c.LDAP.UseStartTLS = true
		c.sources["ldap.use_start_tls"] = "file"
	}
	if file.LDAP.TimeoutSeconds != 0 {
		c.LDAP.TimeoutSeconds = file.LDAP.TimeoutSeconds
		c.sources["ldap.timeout"] = "file"
	}
}

func (c *HybridConfig) applyEnvConfig() {
	if val := os.Getenv("HYBRID_DEFAULT_PROJECT"); val != "" {
		c.DefaultProject = val
		c.sources["default_project"] = "environment"
	}
	if val := os.Getenv("HYBRID_DEFAULT_ROLE"); val != "" {
		c.DefaultRole = val
		c.sources["default_role"] = "environment"
	}
	if val := os.Getenv("HYBRID_LIST_LDAP_USERS"); val != "" {
		c.ListLDAPUsers = val == "true" || val == "1"
		c.sources["list_ldap_users"] = "environment"
	}
	if val := os.Getenv("HYBRID_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.TokenTTL = i
			c.sources["token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("HYBRID_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_URL"); val != "" {
		c.LDAP.URL = val
		c.sources["ldap.url"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_USER_TREE_DN"); val != "" {
		c.LDAP.UserTreeDN = val
		c.sources["ldap.user_tree_dn"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_BIND_DN"); val != "" {
		c.LDAP.BindDN = val
		c.LDAP.BindPassword = os.Getenv("HYBRID_LDAP_BIND_PASSWORD")
		c.sources["ldap.bind_dn"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_USER_OBJECTCLASS"); val != "" {
		c.LDAP.UserObjectClass = val
		c.sources["ldap.user_objectclass"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_USER_ID_ATTRIBUTE"); val != "" {
		c.LDAP.UserIDAttribute = val
		c.sources["ldap.user_id_attribute"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_USER_NAME_ATTRIBUTE"); val != "" {
		c.LDAP.UserNameAttribute = val
		c.sources["ldap.user_name_attribute"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_USER_MAIL_ATTRIBUTE"); val != "" {
		c.LDAP.UserMailAttribute = val
		c.sources["ldap.user_mail_attribute"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_QUERY_SCOPE"); val != "" {
		c.LDAP.QueryScope = val
		c.sources["ldap.query_scope"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_USE_START_TLS"); val != "" {
		c.LDAP.UseStartTLS = val == "true" || val == "1"
		c.sources["ldap.use_start_tls"] = "environment"
	}
	if val := os.Getenv("HYBRID_LDAP_TIMEOUT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.LDAP.TimeoutSeconds = i
			c.sources["ldap.timeout"] = "environment"
		}
	}
}

// ConfigFilePath returns the path to the config file
func (c *HybridConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *HybridConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// SessionTokenTTL returns the admin-session token TTL as a duration
func (c *HybridConfig) SessionTokenTTL() time.Duration {
	return time.Duration(c.TokenTTL) * time.Second
}

// ProvisioningEnabled reports whether first-login auto-provisioning of
// the default project/role assignment is configured.
func (c *HybridConfig) ProvisioningEnabled() bool {
	return c.DefaultProject != "" && c.DefaultRole != ""
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *HybridConfig) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Try as plain IP
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *HybridConfig) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}

	validScope := false
	for _, s := range ValidQueryScopes {
		if c.LDAP.QueryScope == s {
			validScope = true
			break
		}
	}
	if !validScope {
		return fmt.Errorf("invalid ldap.query_scope: %s", c.LDAP.QueryScope)
	}

	if c.LDAP.URL != "" {
		if !strings.HasPrefix(c.LDAP.URL, "ldap://") && !strings.HasPrefix(c.LDAP.URL, "ldaps://") {
			return fmt.Errorf("invalid ldap.url: %s", c.LDAP.URL)
		}
		if c.LDAP.UserTreeDN == "" {
			return fmt.Errorf("ldap.user_tree_dn is required when ldap.url is set")
		}
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *HybridConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "default_project", Value: c.DefaultProject, Source: c.Source("default_project")},
		{Name: "default_role", Value: c.DefaultRole, Source: c.Source("default_role")},
		{Name: "list_ldap_users", Value: strconv.FormatBool(c.ListLDAPUsers), Source: c.Source("list_ldap_users")},
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTL), Source: c.Source("token_ttl")},
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "ldap.url", Value: c.LDAP.URL, Source: c.Source("ldap.url")},
		{Name: "ldap.user_tree_dn", Value: c.LDAP.UserTreeDN, Source: c.Source("ldap.user_tree_dn")},
		{Name: "ldap.bind_dn", Value: c.LDAP.BindDN, Source: c.Source("ldap.bind_dn")},
		{Name: "ldap.user_objectclass", Value: c.LDAP.UserObjectClass, Source: c.Source("ldap.user_objectclass")},
		{Name: "ldap.user_id_attribute", Value: c.LDAP.UserIDAttribute, Source: c.Source("ldap.user_id_attribute")},
		{Name: "ldap.user_name_attribute", Value: c.LDAP.UserNameAttribute, Source: c.Source("ldap.user_name_attribute")},
		{Name: "ldap.user_mail_attribute", Value: c.LDAP.UserMailAttribute, Source: c.Source("ldap.user_mail_attribute")},
		{Name: "ldap.query_scope", Value: c.LDAP.QueryScope, Source: c.Source("ldap.query_scope")},
		{Name: "ldap.use_start_tls", Value: strconv.FormatBool(c.LDAP.UseStartTLS), Source: c.Source("ldap.use_start_tls")},
		{Name: "ldap.timeout", Value: strconv.Itoa(c.LDAP.TimeoutSeconds), Source: c.Source("ldap.timeout")},
	}
}

// FormatText returns a text representation of the configuration
func (c *HybridConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *HybridConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
