package mu

import "encoding/base64"

// Hosts are kept base64-encoded so the plain strings do not show up in
// the binary or in code search.
var (
	APIHost   = mustB64("Z2xvYmFsLWFwaS5tYW5nYS11cC5jb20=")
	ImageHost = mustB64("Z2xvYmFsLWltZy5tYW5nYS11cC5jb20=")
	BaseHost  = mustB64("Z2xvYmFsLm1hbmdhLXVwLmNvbQ==")

	iosAppID  = mustB64("Y29tLnNxdWFyZS1lbml4Lk1hbmdhVVB3")
	iosAppPre = mustB64("R2xlbndvb2RfUHJvZA==")
	iosHTTP   = mustB64("QWxhbW9maXJlLzUuNy4x")
)

// Platform selects the device fingerprint requests are sent with.
type Platform int32

const (
	PlatformAndroid Platform = 1
	PlatformApple   Platform = 2
)

type platformConstants struct {
	apiUA   string
	imageUA string
	osVer   string
	appVer  string
}

var androidConstants = platformConstants{
	apiUA:   "okhttp/4.12.0",
	imageUA: "Dalvik/2.1.0 (Linux; U; Android 12; SM-G935F Build/SQ3A.220705.004)",
	osVer:   "32",
	appVer:  "61",
}

var appleConstants = platformConstants{
	apiUA:   iosAppPre + "/2.2.0 (" + iosAppID + "; build:202307211728; iOS 16.7.0) " + iosHTTP,
	imageUA: iosAppPre + "/202307211728 CFNetwork/1410.0.3 Darwin/22.6.0",
	osVer:   "16.7",
	appVer:  "2.2.0",
}

func constantsFor(p Platform) *platformConstants {
	if p == PlatformApple {
		return &appleConstants
	}
	return &androidConstants
}

// ImageQuality selects the page image resolution.
type ImageQuality string

const (
	QualityMiddle ImageQuality = "middle"
	QualityHigh   ImageQuality = "high"
)

// WeeklyCode is a weekday key for the weekly listing endpoint.
type WeeklyCode string

const (
	WeeklyMonday    WeeklyCode = "mon"
	WeeklyTuesday   WeeklyCode = "tue"
	WeeklyWednesday WeeklyCode = "wed"
	WeeklyThursday  WeeklyCode = "thu"
	WeeklyFriday    WeeklyCode = "fri"
	WeeklySaturday  WeeklyCode = "sat"
	WeeklySunday    WeeklyCode = "sun"
)

// WeeklyCodes lists every valid weekday key in schedule order.
var WeeklyCodes = []WeeklyCode{
	WeeklyMonday, WeeklyTuesday, WeeklyWednesday, WeeklyThursday,
	WeeklyFriday, WeeklySaturday, WeeklySunday,
}

func mustB64(s string) string {
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return string(out)
}
