package km

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DeviceType discriminates the two stored credential variants. The values
// are part of the session file wire format and must not change.
type DeviceType int32

const (
	DeviceMobile DeviceType = 1
	DeviceWeb    DeviceType = 2
)

// MobilePlatform selects the constants used for a mobile session.
type MobilePlatform int32

const (
	PlatformApple   MobilePlatform = 1
	PlatformAndroid MobilePlatform = 2
)

// WebKV is a single cookie-backed key/value pair with its expiry. The
// backend stores these as URL-encoded JSON cookie values.
type WebKV struct {
	Value   string `json:"value"`
	Expires int64  `json:"expires"`
}

// newWebKV returns a KV with an expiry one year out, matching what the
// web app writes on first visit.
func newWebKV(value string) WebKV {
	return WebKV{
		Value:   value,
		Expires: time.Now().UTC().Unix() + 365*24*60*60,
	}
}

// parseWebKV decodes a raw cookie value into a WebKV. Numeric-valued
// cookies are serialized by the backend with an unquoted number, so both
// forms have to be accepted.
func parseWebKV(raw string) (WebKV, error) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return WebKV{}, fmt.Errorf("km: unescape cookie: %w", err)
	}

	var kv WebKV
	if err := json.Unmarshal([]byte(decoded), &kv); err == nil {
		return kv, nil
	}

	var kv64 struct {
		Value   int64 `json:"value"`
		Expires int64 `json:"expires"`
	}
	if err := json.Unmarshal([]byte(decoded), &kv64); err != nil {
		return WebKV{}, fmt.Errorf("km: parse cookie %q: %w", raw, err)
	}

	return WebKV{Value: strconv.FormatInt(kv64.Value, 10), Expires: kv64.Expires}, nil
}

// encodeCookie renders the KV back into the cookie form the backend sent
// it in. Values that parse as integers are written unquoted.
func (kv WebKV) encodeCookie() string {
	var payload []byte
	if n, err := strconv.ParseInt(kv.Value, 10, 64); err == nil {
		payload, _ = json.Marshal(struct {
			Value   int64 `json:"value"`
			Expires int64 `json:"expires"`
		}{Value: n, Expires: kv.Expires})
	} else {
		payload, _ = json.Marshal(kv)
	}

	return url.QueryEscape(string(payload))
}

// ConfigWeb holds the cookie-session credentials plus account metadata.
type ConfigWeb struct {
	ID        string
	Username  string
	Email     string
	AccountID uint32
	DeviceID  uint32

	// UWT is the rotating auth token cookie.
	UWT      string
	Birthday WebKV
	TOSAdult WebKV
	Privacy  WebKV
}

// ConfigMobile holds the user-id/secret pair used by the mobile app.
type ConfigMobile struct {
	ID        string
	Username  string
	Email     string
	AccountID uint32
	DeviceID  uint32

	UserID     string
	UserSecret string
	Platform   MobilePlatform
}

// Config is either a *ConfigWeb or a *ConfigMobile.
type Config interface {
	DeviceType() DeviceType
	AccountKey() string
}

func (c *ConfigWeb) DeviceType() DeviceType    { return DeviceWeb }
func (c *ConfigMobile) DeviceType() DeviceType { return DeviceMobile }

func (c *ConfigWeb) AccountKey() string    { return c.ID }
func (c *ConfigMobile) AccountKey() string { return c.ID }

// DefaultWebConfig returns an unauthenticated web config: empty token,
// a fixed placeholder birthday, and both consent toggles set.
func DefaultWebConfig() *ConfigWeb {
	return &ConfigWeb{
		Birthday: newWebKV("1998-01"),
		TOSAdult: newWebKV("1"),
		Privacy:  newWebKV("1"),
	}
}

// cookieHeader renders the config as a Cookie header value for API calls.
func (c *ConfigWeb) cookieHeader() string {
	parts := []string{
		"birthday=" + c.Birthday.encodeCookie(),
		"terms_of_service_adult=" + c.TOSAdult.encodeCookie(),
		"privacy_policy=" + c.Privacy.encodeCookie(),
	}
	if c.UWT != "" {
		parts = append(parts, "uwt="+c.UWT)
	}

	return strings.Join(parts, "; ")
}

// absorbCookies merges Set-Cookie values from a response back into the
// config. Returns true when anything changed, so the caller knows the
// session file needs rewriting.
func (c *ConfigWeb) absorbCookies(cookies []*http.Cookie) bool {
	changed := false
	for _, ck := range cookies {
		switch ck.Name {
		case "uwt":
			if v, err := url.QueryUnescape(ck.Value); err == nil && v != c.UWT {
				c.UWT = v
				changed = true
			}
		case "birthday":
			if kv, err := parseWebKV(ck.Value); err == nil {
				c.Birthday = kv
				changed = true
			}
		case "terms_of_service_adult":
			if kv, err := parseWebKV(ck.Value); err == nil {
				c.TOSAdult = kv
				changed = true
			}
		case "privacy_policy":
			if kv, err := parseWebKV(ck.Value); err == nil {
				c.Privacy = kv
				changed = true
			}
		}
	}

	return changed
}

// ParseNetscapeCookies builds a web config from a Netscape cookies.txt
// export, the format browser extensions dump.
func ParseNetscapeCookies(data string) (*ConfigWeb, error) {
	cfg := DefaultWebConfig()
	found := false

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "#HttpOnly_") {
			continue
		}

		// domain, subdomain flag, path, secure, expiry, name, value
		parts := strings.Split(line, "\t")
		if len(parts) != 7 {
			return nil, fmt.Errorf("km: invalid cookie line %q", line)
		}

		name, value := parts[5], parts[6]
		switch name {
		case "uwt":
			cfg.UWT = value
			found = true
		case "birthday":
			kv, err := parseWebKV(value)
			if err != nil {
				return nil, err
			}
			cfg.Birthday = kv
		case "terms_of_service_adult":
			kv, err := parseWebKV(value)
			if err != nil {
				return nil, err
			}
			cfg.TOSAdult = kv
		case "privacy_policy":
			kv, err := parseWebKV(value)
			if err != nil {
				return nil, err
			}
			cfg.Privacy = kv
		}
	}

	if !found {
		return nil, fmt.Errorf("km: uwt cookie not found in input")
	}

	return cfg, nil
}
