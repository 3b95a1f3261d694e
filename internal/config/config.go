package config

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/poofware/society-service/internal/constants"
	"github.com/poofware/society-service/pkg/utils"
)

// CommitteeContacts are CC'd on every acknowledgement email.
type CommitteeContacts struct {
	ChairmanEmail  string
	SecretaryEmail string
	TreasurerEmail string
}

// CCList returns the configured committee addresses, skipping blanks.
func (c CommitteeContacts) CCList() []string {
	var out []string
	for _, e := range []string{c.ChairmanEmail, c.SecretaryEmail, c.TreasurerEmail} {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	Env              string
	DBUrl            string
	DBAutoMigrate    bool
	RedisURL         string
	SendgridAPIKey   string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string
	StaffPublicKey   *rsa.PublicKey
	Committee        CommitteeContacts
	BusinessLocation *time.Location

	LDFlag_SendgridFromEmail    string
	LDFlag_SendgridSandboxMode  bool
	LDFlag_SendSMSStatusUpdates bool
	LDFlag_AsyncNotifications   bool
	LDFlag_DailyDigestEnabled   bool
	LDFlag_CORSHighSecurity     bool

	flags flagSource
}

const (
	OrganizationName    = utils.OrganizationName
	LDConnectionTimeout = 5 * time.Second
	defaultAppName      = "society-service"
	defaultFromEmail    = "no-reply@society.local"
)

// build-time overrides, set with -ldflags
var (
	AppName             string
	LDServerContextKey  string
	LDServerContextKind string
)

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Logger.WithError(err).Warn("Failed to parse .env file, continuing with process env")
	}

	if AppName == "" {
		AppName = defaultAppName
	}
	utils.Logger.Info("Loading config for app: ", AppName)

	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		utils.Logger.Fatal("APP_URL env var is missing")
	}
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}
	sendgridAPIKey := os.Getenv("SENDGRID_API_KEY")
	if sendgridAPIKey == "" {
		utils.Logger.Fatal("SENDGRID_API_KEY env var is missing")
	}

	pubB64 := os.Getenv("STAFF_JWT_PUBLIC_KEY_BASE64")
	if pubB64 == "" {
		utils.Logger.Fatal("STAFF_JWT_PUBLIC_KEY_BASE64 env var is missing")
	}
	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("STAFF_JWT_PUBLIC_KEY_BASE64 is not valid base64")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse staff RSA public key")
	}

	loc, err := time.LoadLocation(constants.BusinessTimezone)
	if err != nil {
		utils.Logger.WithError(err).Fatalf("Failed to load business timezone %s", constants.BusinessTimezone)
	}

	orgName := os.Getenv("SOCIETY_NAME")
	if orgName == "" {
		orgName = OrganizationName
	}

	var flags flagSource
	if ldSDKKey := os.Getenv("LD_SDK_KEY"); ldSDKKey != "" {
		flags, err = newLDFlagSource(ldSDKKey, LDServerContextKind, LDServerContextKey)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
		}
	} else {
		utils.Logger.Warn("LD_SDK_KEY not set; reading feature flags from environment")
		flags = envFlagSource{}
	}

	cfg := &Config{
		OrganizationName: orgName,
		AppName:          AppName,
		AppPort:          appPort,
		AppUrl:           appURL,
		Env:              env,
		DBUrl:            dbURL,
		DBAutoMigrate:    os.Getenv("DB_AUTO_MIGRATE") == "true",
		RedisURL:         os.Getenv("REDIS_URL"),
		SendgridAPIKey:   sendgridAPIKey,
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:  os.Getenv("TWILIO_FROM_PHONE"),
		StaffPublicKey:   pubKey,
		Committee: CommitteeContacts{
			ChairmanEmail:  os.Getenv("COMMITTEE_CHAIRMAN_EMAIL"),
			SecretaryEmail: os.Getenv("COMMITTEE_SECRETARY_EMAIL"),
			TreasurerEmail: os.Getenv("COMMITTEE_TREASURER_EMAIL"),
		},
		BusinessLocation: loc,
		flags:            flags,
	}
	cfg.applyFlags(flags)

	if cfg.LDFlag_SendSMSStatusUpdates && (cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromPhone == "") {
		utils.Logger.Warn("send_sms_status_updates is on but Twilio credentials are incomplete; SMS disabled")
		cfg.LDFlag_SendSMSStatusUpdates = false
	}

	return cfg
}

func (c *Config) applyFlags(src flagSource) {
	c.LDFlag_SendgridFromEmail = src.String("sendgrid_from_email", defaultFromEmail)
	if c.LDFlag_SendgridFromEmail == "" {
		c.LDFlag_SendgridFromEmail = defaultFromEmail
	}
	c.LDFlag_SendgridSandboxMode = src.Bool("sendgrid_sandbox_mode", false)
	c.LDFlag_SendSMSStatusUpdates = src.Bool("send_sms_status_updates", false)
	c.LDFlag_AsyncNotifications = src.Bool("async_notifications", true)
	c.LDFlag_DailyDigestEnabled = src.Bool("daily_digest_enabled", true)
	c.LDFlag_CORSHighSecurity = src.Bool("cors_high_security", false)

	utils.Logger.Debugf("flags: sandbox=%t sms=%t async=%t digest=%t cors_high=%t",
		c.LDFlag_SendgridSandboxMode, c.LDFlag_SendSMSStatusUpdates,
		c.LDFlag_AsyncNotifications, c.LDFlag_DailyDigestEnabled, c.LDFlag_CORSHighSecurity)
}

func (c *Config) Close() {
	if c.flags != nil {
		_ = c.flags.Close()
	}
}
