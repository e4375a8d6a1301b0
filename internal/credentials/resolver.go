package credentials

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
)

// EnvBlob is the environment variable holding the JSON credential blob when
// no key file is present.
const EnvBlob = "FEEDBOARD_SERVICE_ACCOUNT"

// Origin names the strategy a credential set was resolved from.
type Origin string

const (
	OriginFile      Origin = "file"
	OriginEnv       Origin = "env"
	OriginAnonymous Origin = "anonymous"
)

// Credentials is the connection blob for the document store.
type Credentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

// Anonymous reports whether no identity is present. Anonymous connections are
// attempted anyway and are expected to fail with a permissions error; that is
// an accepted degraded path, surfaced as source-unavailable.
func (c Credentials) Anonymous() bool {
	return c.User == "" && c.Password == ""
}

// DSN renders a pgx connection string. Anonymous credentials render empty,
// which lets the driver fall back to its own defaults.
func (c Credentials) DSN() string {
	if c.Anonymous() && c.Host == "" && c.Database == "" {
		return ""
	}
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Resolve picks the first available strategy: key file at filePath, then the
// EnvBlob environment variable, then anonymous. Unreadable or malformed blobs
// are errors; absence is not.
func Resolve(filePath string) (Credentials, Origin, error) {
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			creds, err := parseBlob(data)
			if err != nil {
				return Credentials{}, OriginFile, fmt.Errorf("credentials file %s: %w", filePath, err)
			}
			return creds, OriginFile, nil
		}
		if !os.IsNotExist(err) {
			return Credentials{}, OriginFile, err
		}
	}

	if blob := os.Getenv(EnvBlob); blob != "" {
		creds, err := parseBlob([]byte(blob))
		if err != nil {
			return Credentials{}, OriginEnv, fmt.Errorf("%s: %w", EnvBlob, err)
		}
		return creds, OriginEnv, nil
	}

	return Credentials{}, OriginAnonymous, nil
}

func parseBlob(data []byte) (Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
