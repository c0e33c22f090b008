package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	GithubApiBaseUrl = "https://api.github.com/"
	ApacheLicenceUrl = "https://www.apache.org/licenses/LICENSE-2.0.txt"

	LicenceFilePath        = "LICENCE"
	LicenseFilePath        = "LICENSE"
	ReleaseWorkflowPath    = ".github/workflows/release.yml"
	ReleaseWorkflowID      = "release.yml"
	WorkflowDispatchRef    = "main"
	CopyrightPlaceholder   = "[yyyy] [name of copyright owner]"
	AddLicenceMessage      = "Add Apache 2.0 licence"
	RenameLicenceMessage   = "Rename LICENSE to LICENCE"
	UpdateLicenceMessage   = "Update licence with current year and copyright owner"
	DefaultRequestTimeout  = 30 * time.Second
	RepositoriesPerPage    = 100
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	environmentFileName    = ".env"
	missingValueTemplate   = "%w: %s"
	invalidTimeoutTemplate = "invalid request timeout %q: %w"
)

const (
	tokenKey               = "token"
	organisationKey        = "organisation"
	copyrightOwnerKey      = "copyright_owner"
	apiURLKey              = "api_url"
	licenceURLKey          = "licence_url"
	requestTimeoutKey      = "request_timeout"
	refreshVersionTokenKey = "refresh_version_token"
	deleteLicenseKey       = "delete_license"
	logLevelKey            = "log_level"
	logFormatKey           = "log_format"
)

// ErrMissingConfiguration is returned when a required environment variable is unset.
var ErrMissingConfiguration = errors.New("missing required configuration")

var environmentBindings = map[string][]string{
	tokenKey:               {"GITHUB_ACCESS_TOKEN", "GITHUB_TOKEN"},
	organisationKey:        {"GITHUB_ORGANISATION", "ORG_NAME"},
	copyrightOwnerKey:      {"COPYRIGHT_OWNER"},
	apiURLKey:              {"GITHUB_API_URL"},
	licenceURLKey:          {"LICENCE_SOURCE_URL"},
	requestTimeoutKey:      {"LICENCE_SYNC_REQUEST_TIMEOUT"},
	refreshVersionTokenKey: {"LICENCE_SYNC_REFRESH_VERSION_TOKEN"},
	deleteLicenseKey:       {"LICENCE_SYNC_DELETE_LICENSE"},
	logLevelKey:            {"LICENCE_SYNC_LOG_LEVEL"},
	logFormatKey:           {"LICENCE_SYNC_LOG_FORMAT"},
}

type Config struct {
	Token          string
	Organisation   string
	CopyrightOwner string
	APIURL         string
	LicenceURL     string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	// RefreshVersionToken makes the update step use the sha returned by the
	// rename write instead of the one captured before it.
	RefreshVersionToken bool
	// DeleteLicense removes LICENSE once its content has been copied to LICENCE.
	DeleteLicense bool
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load(environmentFileName)
	return FromEnvironment()
}

func FromEnvironment() (Config, error) {
	v := viper.New()
	for key, names := range environmentBindings {
		arguments := append([]string{key}, names...)
		if err := v.BindEnv(arguments...); err != nil {
			return Config{}, err
		}
	}

	v.SetDefault(apiURLKey, GithubApiBaseUrl)
	v.SetDefault(licenceURLKey, ApacheLicenceUrl)
	v.SetDefault(requestTimeoutKey, DefaultRequestTimeout.String())
	v.SetDefault(refreshVersionTokenKey, false)
	v.SetDefault(deleteLicenseKey, false)
	v.SetDefault(logLevelKey, DefaultLogLevel)
	v.SetDefault(logFormatKey, DefaultLogFormat)

	for _, key := range []string{tokenKey, organisationKey, copyrightOwnerKey} {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return Config{}, fmt.Errorf(missingValueTemplate, ErrMissingConfiguration, environmentBindings[key][0])
		}
	}

	rawTimeout := v.GetString(requestTimeoutKey)
	timeout, err := time.ParseDuration(rawTimeout)
	if err != nil {
		return Config{}, fmt.Errorf(invalidTimeoutTemplate, rawTimeout, err)
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return Config{
		Token:               strings.TrimSpace(v.GetString(tokenKey)),
		Organisation:        strings.TrimSpace(v.GetString(organisationKey)),
		CopyrightOwner:      strings.TrimSpace(v.GetString(copyrightOwnerKey)),
		APIURL:              v.GetString(apiURLKey),
		LicenceURL:          v.GetString(licenceURLKey),
		RequestTimeout:      timeout,
		RefreshVersionToken: v.GetBool(refreshVersionTokenKey),
		DeleteLicense:       v.GetBool(deleteLicenseKey),
		LogLevel:            strings.ToLower(v.GetString(logLevelKey)),
		LogFormat:           strings.ToLower(v.GetString(logFormatKey)),
	}, nil
}
