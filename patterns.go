package phiguard

import "regexp"

// pattern binds a category to its matcher and base confidence. Confidence is
// fixed per category, not learned.
type pattern struct {
	category   Category
	re         *regexp.Regexp
	confidence float64
}

// phiPatterns is the ordered matcher table. The order is load-bearing:
// when two categories match overlapping spans with equal confidence, the
// matcher that appears earlier in this table wins. Reordering entries is a
// breaking change even if every regex is untouched.
var phiPatterns = []pattern{
	{
		// 123-45-6789
		category:   CategorySSN,
		re:         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		confidence: 0.95,
	},
	{
		// MRN: 12345678, MRN#12345678
		category:   CategoryMRN,
		re:         regexp.MustCompile(`(?i)\bMRN[:\s#]*\d{5,12}\b`),
		confidence: 0.90,
	},
	{
		// Health plan / beneficiary / member identifiers, labeled.
		category:   CategoryHealthPlan,
		re:         regexp.MustCompile(`(?i)\b(?:health\s*plan|beneficiary|member\s*id)[:\s#]*[A-Za-z0-9-]{6,15}\b`),
		confidence: 0.85,
	},
	{
		// Account/Acct #0123456789
		category:   CategoryAccount,
		re:         regexp.MustCompile(`(?i)\b(?:account|acct)[:\s#]*\d{4,17}\b`),
		confidence: 0.85,
	},
	{
		// License / certificate / DEA numbers, labeled.
		category:   CategoryLicense,
		re:         regexp.MustCompile(`(?i)\b(?:license|licence|lic|dea)[:\s#]*[A-Za-z0-9-]{5,15}\b`),
		confidence: 0.80,
	},
	{
		// Device/serial identifiers, labeled.
		category:   CategoryDeviceID,
		re:         regexp.MustCompile(`(?i)\b(?:device|serial)(?:\s*(?:id|no|number))?[:\s#]+[A-Za-z0-9-]{6,20}\b`),
		confidence: 0.80,
	},
	{
		category:   CategoryEmail,
		re:         regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		confidence: 0.95,
	},
	{
		category:   CategoryURL,
		re:         regexp.MustCompile(`\bhttps?://[^\s<>"']+`),
		confidence: 0.70,
	},
	{
		category:   CategoryIPAddress,
		re:         regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`),
		confidence: 0.85,
	},
	{
		// (555) 123-4567, 555-123-4567, 555.123.4567
		category:   CategoryPhone,
		re:         regexp.MustCompile(`(?:\(\d{3}\)\s*|\b\d{3}[-.])\d{3}[-.]\d{4}\b`),
		confidence: 0.85,
	},
	{
		// DOB: 01/02/1980, date of birth 1980-01-02
		category:   CategoryDOB,
		re:         regexp.MustCompile(`(?i)\b(?:DOB|date\s+of\s+birth)[:\s]*\d{1,4}[/-]\d{1,2}[/-]\d{1,4}\b`),
		confidence: 0.90,
	},
	{
		// Bare dates that look like birth dates: 01/02/1980.
		category:   CategoryDOB,
		re:         regexp.MustCompile(`\b\d{1,2}/\d{1,2}/(?:19|20)\d{2}\b`),
		confidence: 0.60,
	},
	{
		// ZIP+4 only; bare five-digit runs are too ambiguous to flag.
		category:   CategoryZipCode,
		re:         regexp.MustCompile(`\b\d{5}-\d{4}\b`),
		confidence: 0.70,
	},
	{
		// Titled names: Dr. Jane Doe, Mrs Smith.
		category:   CategoryName,
		re:         regexp.MustCompile(`\b(?:Dr|Mr|Mrs|Ms|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`),
		confidence: 0.70,
	},
	{
		// Patient name labels: "Patient: Jane Doe", "patient name: Jane Doe".
		category:   CategoryName,
		re:         regexp.MustCompile(`\b(?i:patient(?:\s+name)?)\s*[:=]\s*[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+`),
		confidence: 0.75,
	},
	{
		// 123 Main Street, 9 Elm Dr
		category:   CategoryAddress,
		re:         regexp.MustCompile(`\b\d{1,6}\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Street|St|Avenue|Ave|Boulevard|Blvd|Drive|Dr|Road|Rd|Lane|Ln|Court|Ct|Way|Place|Pl|Circle|Cir)\b`),
		confidence: 0.75,
	},
	{
		// Ages over 89 are identifying under Safe Harbor: "92 years old",
		// "age: 101". 9\d covers 90-99, 1[0-8]\d covers 100-189.
		category:   CategoryAgeOver89,
		re:         regexp.MustCompile(`(?i)\b(?:9\d|1[0-8]\d)\s*(?:-?\s*years?[-\s]*old|y\.?o\.?\b)`),
		confidence: 0.80,
	},
	{
		category:   CategoryAgeOver89,
		re:         regexp.MustCompile(`(?i)\bage[:\s]+(?:9\d|1[0-8]\d)\b`),
		confidence: 0.80,
	},
}
