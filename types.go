package phiguard

// Category identifies a HIPAA Safe Harbor identifier class detected by the
// scanner. The set is fixed; matcher declaration order over these categories
// is a compatibility contract (see patterns.go).
type Category string

const (
	CategorySSN        Category = "SSN"
	CategoryMRN        Category = "MRN"
	CategoryDOB        Category = "DOB"
	CategoryPhone      Category = "PHONE"
	CategoryEmail      Category = "EMAIL"
	CategoryName       Category = "NAME"
	CategoryAddress    Category = "ADDRESS"
	CategoryZipCode    Category = "ZIP_CODE"
	CategoryIPAddress  Category = "IP_ADDRESS"
	CategoryURL        Category = "URL"
	CategoryAccount    Category = "ACCOUNT"
	CategoryHealthPlan Category = "HEALTH_PLAN"
	CategoryLicense    Category = "LICENSE"
	CategoryDeviceID   Category = "DEVICE_ID"
	CategoryAgeOver89  Category = "AGE_OVER_89"
)

// Finding is a single PHI match inside a scanned string.
//
// Finding carries the matched value and therefore must never cross a log,
// error, or serialization boundary. It exists only for the duration of a
// scan call; anything that leaves the scanner uses Location instead.
type Finding struct {
	Category   Category
	Value      string
	StartIndex int
	EndIndex   int
	Confidence float64
}

// Location reports where PHI was found without carrying the matched text.
// This is the only shape that may be attached to errors, audit events, or
// HTTP responses once PHI has been detected.
type Location struct {
	Category   Category `json:"category"`
	StartIndex int      `json:"start_index"`
	EndIndex   int      `json:"end_index"`
	Confidence float64  `json:"confidence"`
	// Section is the dotted path to the offending leaf for structured
	// scans, e.g. "patient.notes[2].body". Empty for plain text scans.
	Section string `json:"section,omitempty"`
}

// ScanResult summarizes a scan without exposing matched values.
type ScanResult struct {
	HasPHI    bool             `json:"has_phi"`
	Locations []Location       `json:"locations"`
	Stats     map[Category]int `json:"stats"`
}

// Location converts a finding to its externally observable form.
func (f Finding) Location() Location {
	return Location{
		Category:   f.Category,
		StartIndex: f.StartIndex,
		EndIndex:   f.EndIndex,
		Confidence: f.Confidence,
	}
}
