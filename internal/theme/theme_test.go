package theme

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestChooseHonorsExplicitPreference(t *testing.T) {
	if got := Choose("dark"); got.Name != "dark" {
		t.Errorf("Choose(dark).Name = %q", got.Name)
	}
	if got := Choose("light"); got.Name != "light" {
		t.Errorf("Choose(light).Name = %q", got.Name)
	}
}

func TestPalettesPairDistinctChromaStyles(t *testing.T) {
	if Dark().ChromaStyle == Light().ChromaStyle {
		t.Errorf("dark and light share chroma style %q", Dark().ChromaStyle)
	}
	if Dark().ChromaStyle == "" || Light().ChromaStyle == "" {
		t.Errorf("palette missing chroma style")
	}
}

func TestIsLight(t *testing.T) {
	for _, tc := range []struct {
		name  string
		color colorful.Color
		want  bool
	}{
		{"black", colorful.Color{}, false},
		{"white", colorful.Color{R: 1, G: 1, B: 1}, true},
		{"solarized dark", colorful.Color{R: 0, G: 0.169, B: 0.212}, false},
		{"solarized light", colorful.Color{R: 0.992, G: 0.965, B: 0.89}, true},
	} {
		if got := isLight(tc.color); got != tc.want {
			t.Errorf("%s: isLight = %v, want %v", tc.name, got, tc.want)
		}
	}
}
