package outcome

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertionFailed(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		failed bool
	}{
		{
			name:   "empty text",
			text:   "",
			failed: false,
		},
		{
			name:   "no marker",
			text:   "Clicked element #submit. Current URL: https://example.com/done",
			failed: false,
		},
		{
			name:   "marker true",
			text:   "Verified: page text contains \"Welcome\".\n\n### Result true",
			failed: false,
		},
		{
			name:   "marker false",
			text:   "Verification mismatch.\n\n### Result false",
			failed: true,
		},
		{
			name:   "value on next line",
			text:   "Verification complete.\n### Result\nfalse",
			failed: true,
		},
		{
			name:   "case insensitive value",
			text:   "### Result FALSE",
			failed: true,
		},
		{
			name:   "case insensitive marker",
			text:   "### result false",
			failed: true,
		},
		{
			name:   "unrelated value",
			text:   "### Result inconclusive",
			failed: false,
		},
		{
			name:   "last marker wins over earlier false",
			text:   "### Result false\nretried the check\n### Result true",
			failed: false,
		},
		{
			name:   "last marker wins over earlier true",
			text:   "### Result true\nre-checked after reload\n### Result false",
			failed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.failed, AssertionFailed(tt.text))
		})
	}
}

func TestScreenshot(t *testing.T) {
	dir := filepath.Join("reports", "screenshots")

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "empty text",
			text: "",
			want: "",
		},
		{
			name: "no filename",
			text: "Navigation successful. Title: Home",
			want: "",
		},
		{
			name: "single filename",
			text: "Screenshot captured: step-001.png",
			want: filepath.Join(dir, "step-001.png"),
		},
		{
			name: "last of several wins",
			text: "saved shot1.png earlier, final capture shot2.jpg",
			want: filepath.Join(dir, "shot2.jpg"),
		},
		{
			name: "full path reduced to base name",
			text: "written to /tmp/run/screenshots/final.png",
			want: filepath.Join(dir, "final.png"),
		},
		{
			name: "uppercase extension",
			text: "capture FINAL.PNG done",
			want: filepath.Join(dir, "FINAL.PNG"),
		},
		{
			name: "non-image extension ignored",
			text: "wrote summary.json and trace.txt",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Screenshot(tt.text, dir))
		})
	}
}
