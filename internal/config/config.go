package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix          = "USERSVC"
	defaultHTTPAddress = "0.0.0.0:8080"
	defaultLogLevel    = "info"
	defaultMode        = ModeLocal
	defaultDatabase    = "userservice.db"
	defaultTokenTTL    = 30
)

// Backend modes: firebase talks to the managed identity provider and
// document store, local runs the embedded sqlite-backed equivalents.
const (
	ModeFirebase = "firebase"
	ModeLocal    = "local"
)

// AppConfig captures runtime configuration for the user-directory service.
type AppConfig struct {
	HTTPAddress string
	LogLevel    string
	Mode        string

	FirebaseProjectID       string
	FirebaseCredentialsFile string
	FirebaseStorageBucket   string

	Collections CollectionConfig

	LocalDatabasePath  string
	LocalSigningSecret string
	LocalTokenTTL      time.Duration

	IssuesBaseURL string
}

// CollectionConfig names the document collection per user kind.
type CollectionConfig struct {
	Residents   string
	Services    string
	Employees   string
	Departments string
	Moderators  string
	Analysts    string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("backend.mode", defaultMode)

	configViper.SetDefault("firestore.collections.resident", "residents")
	configViper.SetDefault("firestore.collections.service", "services")
	configViper.SetDefault("firestore.collections.employee", "employees")
	configViper.SetDefault("firestore.collections.department", "departments")
	configViper.SetDefault("firestore.collections.moderator", "moderators")
	configViper.SetDefault("firestore.collections.analyst", "analysts")

	configViper.SetDefault("local.database_path", defaultDatabase)
	configViper.SetDefault("local.token_ttl_minutes", defaultTokenTTL)

	configViper.SetDefault("issues.base_url", "")
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress: configViper.GetString("http.address"),
		LogLevel:    configViper.GetString("log.level"),
		Mode:        strings.ToLower(strings.TrimSpace(configViper.GetString("backend.mode"))),

		FirebaseProjectID:       configViper.GetString("firebase.project_id"),
		FirebaseCredentialsFile: configViper.GetString("firebase.credentials_file"),
		FirebaseStorageBucket:   configViper.GetString("firebase.storage_bucket"),

		Collections: CollectionConfig{
			Residents:   configViper.GetString("firestore.collections.resident"),
			Services:    configViper.GetString("firestore.collections.service"),
			Employees:   configViper.GetString("firestore.collections.employee"),
			Departments: configViper.GetString("firestore.collections.department"),
			Moderators:  configViper.GetString("firestore.collections.moderator"),
			Analysts:    configViper.GetString("firestore.collections.analyst"),
		},

		LocalDatabasePath:  configViper.GetString("local.database_path"),
		LocalSigningSecret: configViper.GetString("local.signing_secret"),
		LocalTokenTTL:      time.Duration(configViper.GetInt("local.token_ttl_minutes")) * time.Minute,

		IssuesBaseURL: configViper.GetString("issues.base_url"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	switch c.Mode {
	case ModeFirebase:
		if strings.TrimSpace(c.FirebaseProjectID) == "" {
			return fmt.Errorf("firebase.project_id is required in firebase mode")
		}
	case ModeLocal:
		if strings.TrimSpace(c.LocalDatabasePath) == "" {
			return fmt.Errorf("local.database_path is required in local mode")
		}
		if strings.TrimSpace(c.LocalSigningSecret) == "" {
			return fmt.Errorf("local.signing_secret is required in local mode")
		}
	default:
		return fmt.Errorf("backend.mode must be %q or %q", ModeFirebase, ModeLocal)
	}
	return nil
}
