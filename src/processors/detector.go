// backend/src/processors/detector.go
package processors

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	boltDatePattern  = regexp.MustCompile(`\d{2}_\d{2}_\d{4}`)
	uberRangePattern = regexp.MustCompile(`\d{8}-\d{8}`)

	eightDigitRun   = regexp.MustCompile(`(\d{8})`)
	underscoredDate = regexp.MustCompile(`(\d{2}_\d{2}_\d{4})`)
)

// DetectPlatform decides which platform an export file comes from by its
// filename. Bolt exports carry "zarobki" or a DD_MM_YYYY date; Uber payment
// reports carry "payments" or a YYYYMMDD-YYYYMMDD range. Bolt signals are
// tested first. Every filename either yields exactly one platform or an
// error; there is no default.
func DetectPlatform(filename string) (string, error) {
	lower := strings.ToLower(filename)

	if strings.Contains(lower, "zarobki") || boltDatePattern.MatchString(filename) {
		return PlatformBolt, nil
	}
	if strings.Contains(lower, "payments") || uberRangePattern.MatchString(filename) {
		return PlatformUber, nil
	}
	return "", fmt.Errorf(
		"cannot recognize platform for file %q: expected 'zarobki' or a DD_MM_YYYY date (Bolt), or 'payments' or a YYYYMMDD-YYYYMMDD range (Uber)",
		filename,
	)
}

// ExtractReportDate pulls the report date out of a filename. It tries the
// Uber YYYYMMDD run first, then the Bolt DD_MM_YYYY form, and falls back to
// today. A run of digits that does not form a valid calendar date falls
// through to the next pattern; this function never fails.
func ExtractReportDate(filename string) time.Time {
	if m := eightDigitRun.FindStringSubmatch(filename); m != nil {
		if d, err := time.Parse("20060102", m[1]); err == nil {
			return d
		}
	}
	if m := underscoredDate.FindStringSubmatch(filename); m != nil {
		if d, err := time.Parse("02_01_2006", m[1]); err == nil {
			return d
		}
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
