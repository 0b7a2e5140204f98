package outcome

import (
	"path/filepath"
	"regexp"
)

// screenshotRe matches filename-like tokens ending in a recognized
// image extension.
var screenshotRe = regexp.MustCompile(`(?i)[\w./\\-]+\.(?:png|jpe?g|gif|webp)`)

// Screenshot scans the text for image filenames and returns the path of
// the last one found, joined with screenshotsDir. Returns empty when no
// filename is present: screenshot association is optional and never
// fabricated.
//
// The last match wins because later-emitted filenames correspond to the
// more final captured state; earlier matches are typically incidental
// log mentions. Matches are reduced to their base name before joining so
// that tool output quoting a full path does not produce a doubled
// directory prefix.
func Screenshot(text, screenshotsDir string) string {
	matches := screenshotRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	name := filepath.Base(matches[len(matches)-1])
	return filepath.Join(screenshotsDir, name)
}
