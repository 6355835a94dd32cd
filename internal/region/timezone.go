// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package region

import (
	"os"
	"strings"
)

// timezoneCountries maps IANA zones to the country they most likely mean.
// Zones shared by several countries map to the largest streaming market.
var timezoneCountries = map[string]string{
	// Americas
	"America/New_York":               "US",
	"America/Chicago":                "US",
	"America/Denver":                 "US",
	"America/Phoenix":                "US",
	"America/Los_Angeles":            "US",
	"America/Anchorage":              "US",
	"America/Detroit":                "US",
	"America/Indiana/Indianapolis":   "US",
	"America/Boise":                  "US",
	"Pacific/Honolulu":               "US",
	"America/Toronto":                "CA",
	"America/Vancouver":              "CA",
	"America/Edmonton":               "CA",
	"America/Winnipeg":               "CA",
	"America/Halifax":                "CA",
	"America/St_Johns":               "CA",
	"America/Regina":                 "CA",
	"America/Mexico_City":            "MX",
	"America/Monterrey":              "MX",
	"America/Tijuana":                "MX",
	"America/Cancun":                 "MX",
	"America/Sao_Paulo":              "BR",
	"America/Manaus":                 "BR",
	"America/Fortaleza":              "BR",
	"America/Recife":                 "BR",
	"America/Argentina/Buenos_Aires": "AR",
	"America/Buenos_Aires":           "AR",
	"America/Santiago":               "CL",
	"America/Bogota":                 "CO",
	"America/Lima":                   "PE",
	"America/Caracas":                "VE",
	"America/Montevideo":             "UY",
	"America/Guayaquil":              "EC",
	"America/Panama":                 "PA",
	"America/Costa_Rica":             "CR",
	"America/Puerto_Rico":            "PR",
	"America/Santo_Domingo":          "DO",
	"America/Guatemala":              "GT",

	// Europe
	"Europe/London":      "GB",
	"Europe/Belfast":     "GB",
	"Europe/Dublin":      "IE",
	"Europe/Lisbon":      "PT",
	"Europe/Madrid":      "ES",
	"Atlantic/Canary":    "ES",
	"Europe/Paris":       "FR",
	"Europe/Brussels":    "BE",
	"Europe/Amsterdam":   "NL",
	"Europe/Luxembourg":  "LU",
	"Europe/Berlin":      "DE",
	"Europe/Zurich":      "CH",
	"Europe/Vienna":      "AT",
	"Europe/Rome":        "IT",
	"Europe/Copenhagen":  "DK",
	"Europe/Oslo":        "NO",
	"Europe/Stockholm":   "SE",
	"Europe/Helsinki":    "FI",
	"Atlantic/Reykjavik": "IS",
	"Europe/Warsaw":      "PL",
	"Europe/Prague":      "CZ",
	"Europe/Bratislava":  "SK",
	"Europe/Budapest":    "HU",
	"Europe/Ljubljana":   "SI",
	"Europe/Zagreb":      "HR",
	"Europe/Belgrade":    "RS",
	"Europe/Bucharest":   "RO",
	"Europe/Sofia":       "BG",
	"Europe/Athens":      "GR",
	"Europe/Istanbul":    "TR",
	"Europe/Kiev":        "UA",
	"Europe/Kyiv":        "UA",
	"Europe/Vilnius":     "LT",
	"Europe/Riga":        "LV",
	"Europe/Tallinn":     "EE",
	"Europe/Moscow":      "RU",
	"Europe/Malta":       "MT",
	"Asia/Nicosia":       "CY",

	// Africa and Middle East
	"Africa/Johannesburg": "ZA",
	"Africa/Lagos":        "NG",
	"Africa/Nairobi":      "KE",
	"Africa/Cairo":        "EG",
	"Africa/Casablanca":   "MA",
	"Africa/Accra":        "GH",
	"Asia/Jerusalem":      "IL",
	"Asia/Tel_Aviv":       "IL",
	"Asia/Dubai":          "AE",
	"Asia/Riyadh":         "SA",
	"Asia/Qatar":          "QA",
	"Asia/Kuwait":         "KW",
	"Asia/Beirut":         "LB",
	"Asia/Amman":          "JO",

	// Asia and Pacific
	"Asia/Kolkata":        "IN",
	"Asia/Calcutta":       "IN",
	"Asia/Karachi":        "PK",
	"Asia/Dhaka":          "BD",
	"Asia/Colombo":        "LK",
	"Asia/Bangkok":        "TH",
	"Asia/Ho_Chi_Minh":    "VN",
	"Asia/Saigon":         "VN",
	"Asia/Jakarta":        "ID",
	"Asia/Kuala_Lumpur":   "MY",
	"Asia/Singapore":      "SG",
	"Asia/Manila":         "PH",
	"Asia/Hong_Kong":      "HK",
	"Asia/Taipei":         "TW",
	"Asia/Shanghai":       "CN",
	"Asia/Seoul":          "KR",
	"Asia/Tokyo":          "JP",
	"Australia/Sydney":    "AU",
	"Australia/Melbourne": "AU",
	"Australia/Brisbane":  "AU",
	"Australia/Perth":     "AU",
	"Australia/Adelaide":  "AU",
	"Australia/Hobart":    "AU",
	"Australia/Darwin":    "AU",
	"Pacific/Auckland":    "NZ",
}

// CountryForTimezone looks up tz in the static table.
func CountryForTimezone(tz string) (string, bool) {
	code, ok := timezoneCountries[strings.TrimPrefix(tz, ":")]
	return code, ok
}

// LocalTimezone returns the IANA name of the process timezone: $TZ if set,
// otherwise the target of /etc/localtime. Empty when neither is usable.
func LocalTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	target, err := os.Readlink("/etc/localtime")
	if err != nil {
		return ""
	}
	if i := strings.Index(target, "zoneinfo/"); i >= 0 {
		return target[i+len("zoneinfo/"):]
	}
	return ""
}
