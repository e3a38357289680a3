package domain

// PrayerTime sources
const (
	SourceManual      = "manual"
	SourceScan        = "scan"
	SourceAPI         = "api"
	SourceCalculation = "calculation"
)

// ValidSources lists the accepted values for PrayerTime.Source.
var ValidSources = []string{SourceManual, SourceScan, SourceAPI, SourceCalculation}

// IsValidSource reports whether s is a known prayer-time source.
func IsValidSource(s string) bool {
	for _, v := range ValidSources {
		if v == s {
			return true
		}
	}
	return false
}

const (
	// DefaultCalculationMethod selects the prayer calculation convention
	// used when a masjid does not specify one.
	DefaultCalculationMethod = 1
	// DefaultAsrMethod selects the asr juristic method used by default.
	DefaultAsrMethod = 1
	// DefaultTimezone for masjids that do not specify one.
	DefaultTimezone = "UTC"
)

const (
	// DefaultRadiusMiles is the nearby search radius when the client omits one.
	DefaultRadiusMiles = 10.0
	// MilesToKm converts the client-facing radius (miles) to kilometers.
	MilesToKm = 1.60934
	// MaxRadiusMiles caps the nearby search radius.
	MaxRadiusMiles = 100.0
	// MinRadiusMiles floors the nearby search radius.
	MinRadiusMiles = 0.1
)

// DefaultScheduleDays is the window (today through today+N) returned when a
// prayer-time listing has no explicit date filter.
const DefaultScheduleDays = 7

// DateLayout is the wire format for schedule dates.
const DateLayout = "2006-01-02"
