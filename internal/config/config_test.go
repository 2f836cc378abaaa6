package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/photo-cleaner/internal/media"
)

func TestPhotoURL_EmptyDomain(t *testing.T) {
	cfg := PhotoPrismConfig{
		Domain: "",
	}

	result := cfg.PhotoURL("photo123")

	if result != "" {
		t.Errorf("expected empty string for empty domain, got '%s'", result)
	}
}

func TestPhotoURL_WithDomain(t *testing.T) {
	cfg := PhotoPrismConfig{
		Domain: "https://photos.example.com",
	}

	result := cfg.PhotoURL("photo123")

	// Should contain the UID
	if result == "" {
		t.Error("expected non-empty result")
	}

	// Should contain OSC 8 escape sequences
	if result[0] != 0x1b {
		t.Error("expected result to start with escape sequence")
	}

	// Should contain the URL
	expectedURL := "https://photos.example.com/library/browse?view=cards&order=oldest&q=uid:photo123"
	if len(result) < len(expectedURL) {
		t.Errorf("result too short, expected to contain URL")
	}
}

func TestPhotoURL_ContainsUID(t *testing.T) {
	cfg := PhotoPrismConfig{
		Domain: "https://photos.example.com",
	}

	uid := "pt8abc123xyz"
	result := cfg.PhotoURL(uid)

	// The visible text should be just the UID
	// OSC 8 format: \e]8;;URL\e\\TEXT\e]8;;\e\\
	// So the UID should appear between the two escape sequences
	found := false
	for i := range len(result) - len(uid) {
		if result[i:i+len(uid)] == uid {
			found = true
			break
		}
	}

	if !found {
		t.Errorf("expected result to contain UID '%s'", uid)
	}
}

func TestPhotoURL_CorrectFormat(t *testing.T) {
	cfg := PhotoPrismConfig{
		Domain: "https://photos.example.com",
	}

	result := cfg.PhotoURL("test123")

	// Verify OSC 8 start sequence exists: \x1b]8;;
	startSeq := "\x1b]8;;"
	if len(result) < len(startSeq) || result[:len(startSeq)] != startSeq {
		t.Error("expected result to start with OSC 8 sequence '\\x1b]8;;'")
	}

	// Verify end sequence exists: \x1b]8;;\x1b\\
	endSeq := "\x1b]8;;\x1b\\"
	if len(result) < len(endSeq) || result[len(result)-len(endSeq):] != endSeq {
		t.Error("expected result to end with OSC 8 close sequence")
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"LIBRARY_SOURCE", "LIBRARY_ROOT", "ANALYSIS_CONCURRENCY",
		"ANALYSIS_EXCLUDE_FAILED", "MEDIA_TYPES_FILE", "WEB_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Source != SourceLocal {
		t.Errorf("expected default source %q, got %q", SourceLocal, cfg.Source)
	}
	if cfg.Analysis.Concurrency != 0 {
		t.Errorf("expected concurrency 0 (engine default), got %d", cfg.Analysis.Concurrency)
	}
	if cfg.Analysis.ExcludeFailed {
		t.Error("expected failed fingerprints to be included by default")
	}
	if len(cfg.Web.AllowedOrigins) != 0 {
		t.Errorf("expected no allowed origins, got %v", cfg.Web.AllowedOrigins)
	}
	if len(cfg.MediaTypes.Image) == 0 || len(cfg.MediaTypes.Video) == 0 {
		t.Error("expected embedded media types to be loaded")
	}
}

func TestLoad_AnalysisConfig(t *testing.T) {
	tests := []struct {
		name        string
		concurrency string
		exclude     string
		wantConc    int
		wantExclude bool
	}{
		{"custom", "4", "true", 4, true},
		{"invalid concurrency", "invalid", "1", 0, true},
		{"negative concurrency", "-2", "false", 0, false},
		{"zero concurrency", "0", "nope", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ANALYSIS_CONCURRENCY", tc.concurrency)
			t.Setenv("ANALYSIS_EXCLUDE_FAILED", tc.exclude)

			cfg := Load()

			if cfg.Analysis.Concurrency != tc.wantConc {
				t.Errorf("expected concurrency %d, got %d", tc.wantConc, cfg.Analysis.Concurrency)
			}
			if cfg.Analysis.ExcludeFailed != tc.wantExclude {
				t.Errorf("expected exclude %v, got %v", tc.wantExclude, cfg.Analysis.ExcludeFailed)
			}
		})
	}
}

func TestLoad_LibraryConfig(t *testing.T) {
	t.Setenv("LIBRARY_SOURCE", "PhotoPrism")
	t.Setenv("LIBRARY_ROOT", "/srv/photos")
	t.Setenv("WEB_ALLOWED_ORIGINS", "http://localhost:3000, ,https://photos.example.com")

	cfg := Load()

	if cfg.Source != SourcePhotoPrism {
		t.Errorf("expected source %q, got %q", SourcePhotoPrism, cfg.Source)
	}
	if cfg.Library.Root != "/srv/photos" {
		t.Errorf("expected root '/srv/photos', got '%s'", cfg.Library.Root)
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "https://photos.example.com" {
		t.Errorf("unexpected allowed origins %v", cfg.Web.AllowedOrigins)
	}
}

func TestLoad_PhotoPrismConfig(t *testing.T) {
	t.Setenv("PHOTOPRISM_URL", "https://photos.test.com")
	t.Setenv("PHOTOPRISM_USERNAME", "testuser")
	t.Setenv("PHOTOPRISM_PASSWORD", "testpass")
	t.Setenv("PHOTOPRISM_DOMAIN", "https://public.photos.com")

	cfg := Load()

	if cfg.PhotoPrism.URL != "https://photos.test.com" {
		t.Errorf("expected URL 'https://photos.test.com', got '%s'", cfg.PhotoPrism.URL)
	}

	if cfg.PhotoPrism.Username != "testuser" {
		t.Errorf("expected username 'testuser', got '%s'", cfg.PhotoPrism.Username)
	}

	if cfg.PhotoPrism.Password != "testpass" {
		t.Errorf("expected password 'testpass', got '%s'", cfg.PhotoPrism.Password)
	}

	if cfg.PhotoPrism.Domain != "https://public.photos.com" {
		t.Errorf("expected domain 'https://public.photos.com', got '%s'", cfg.PhotoPrism.Domain)
	}
}

func TestMediaTypes_Kind(t *testing.T) {
	types := Load().MediaTypes

	tests := []struct {
		ext    string
		kind   media.Kind
		wantOK bool
	}{
		{".jpg", media.KindImage, true},
		{".JPEG", media.KindImage, true},
		{".webp", media.KindImage, true},
		{".mov", media.KindVideo, true},
		{".MP4", media.KindVideo, true},
		{".txt", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.ext, func(t *testing.T) {
			kind, ok := types.Kind(tc.ext)
			if kind != tc.kind || ok != tc.wantOK {
				t.Errorf("Kind(%q) = %q, %v; want %q, %v", tc.ext, kind, ok, tc.kind, tc.wantOK)
			}
		})
	}
}

func TestLoadMediaTypes(t *testing.T) {
	types, err := LoadMediaTypes([]byte("image: [JPG, .Png]\nvideo: [mov]\n"))
	if err != nil {
		t.Fatalf("LoadMediaTypes failed: %v", err)
	}
	if types.Image[0] != ".jpg" || types.Image[1] != ".png" || types.Video[0] != ".mov" {
		t.Errorf("extensions not normalized: %+v", types)
	}

	if _, err := LoadMediaTypes([]byte("video: [.mov]\n")); err == nil {
		t.Error("expected error for a table without image extensions")
	}
	if _, err := LoadMediaTypes([]byte("image: {bad")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_MediaTypesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "media.yaml")
	if err := os.WriteFile(path, []byte("image: [.heic]\nvideo: [.mts]\n"), 0o600); err != nil {
		t.Fatalf("failed to write media types file: %v", err)
	}
	t.Setenv("MEDIA_TYPES_FILE", path)

	cfg := Load()

	if kind, ok := cfg.MediaTypes.Kind(".heic"); !ok || kind != media.KindImage {
		t.Error("expected .heic from the override file")
	}
	if _, ok := cfg.MediaTypes.Kind(".jpg"); ok {
		t.Error("override file should replace the built-in table")
	}

	t.Setenv("MEDIA_TYPES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, ok := Load().MediaTypes.Kind(".jpg"); !ok {
		t.Error("missing override file should fall back to the built-in table")
	}
}
