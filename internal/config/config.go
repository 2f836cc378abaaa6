package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/photo-cleaner/internal/media"
)

//go:embed media.yaml
var mediaYAML []byte

// Library sources.
const (
	SourceLocal      = "local"
	SourcePhotoPrism = "photoprism"
)

type Config struct {
	Source     string
	Library    LibraryConfig
	PhotoPrism PhotoPrismConfig
	Analysis   AnalysisConfig
	Web        WebConfig
	MediaTypes MediaTypes
}

type LibraryConfig struct {
	Root string // directory walked by the local library
}

type PhotoPrismConfig struct {
	URL      string
	Username string
	Password string
	Domain   string // public domain for generating photo links (e.g., https://photos.example.com)
}

// PhotoURL returns an OSC 8 hyperlink for terminal emulators (iTerm2, etc.)
// Displays the UID but makes it clickable to open the photo in PhotoPrism
// Returns empty string if Domain is not set
func (c *PhotoPrismConfig) PhotoURL(uid string) string {
	if c.Domain == "" {
		return ""
	}
	url := c.Domain + "/library/browse?view=cards&order=oldest&q=uid:" + uid
	// OSC 8 hyperlink format: \e]8;;URL\e\\TEXT\e]8;;\e\\
	return "\x1b]8;;" + url + "\x1b\\" + uid + "\x1b]8;;\x1b\\"
}

type AnalysisConfig struct {
	Concurrency   int  // defaults to constants.WorkerPoolSize when 0
	ExcludeFailed bool // keep photos without a fingerprint out of clustering
}

type WebConfig struct {
	AllowedOrigins []string
}

// MediaTypes maps file extensions to media kinds.
type MediaTypes struct {
	Image []string `yaml:"image"`
	Video []string `yaml:"video"`
}

// Kind returns the media kind for a file extension such as ".JPG".
// ok is false when the extension is not a known media type.
func (m MediaTypes) Kind(ext string) (kind media.Kind, ok bool) {
	ext = strings.ToLower(ext)
	for _, e := range m.Image {
		if e == ext {
			return media.KindImage, true
		}
	}
	for _, e := range m.Video {
		if e == ext {
			return media.KindVideo, true
		}
	}
	return "", false
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean, false when unset or invalid.
func envBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

// envList splits a comma separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LoadMediaTypes parses a media type table. Extensions are normalized to
// lower case with a leading dot.
func LoadMediaTypes(data []byte) (MediaTypes, error) {
	var types MediaTypes
	if err := yaml.Unmarshal(data, &types); err != nil {
		return MediaTypes{}, fmt.Errorf("parse media types: %w", err)
	}
	normalize := func(exts []string) []string {
		out := make([]string, 0, len(exts))
		for _, e := range exts {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			out = append(out, e)
		}
		return out
	}
	types.Image = normalize(types.Image)
	types.Video = normalize(types.Video)
	if len(types.Image) == 0 {
		return MediaTypes{}, fmt.Errorf("parse media types: no image extensions")
	}
	return types, nil
}

func Load() *Config {
	types, err := LoadMediaTypes(mediaYAML)
	if err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to load embedded media.yaml: " + err.Error())
	}
	if path := os.Getenv("MEDIA_TYPES_FILE"); path != "" {
		if custom, err := loadMediaTypesFile(path); err == nil {
			types = custom
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %v, using built-in media types\n", err)
		}
	}

	source := strings.ToLower(os.Getenv("LIBRARY_SOURCE"))
	if source == "" {
		source = SourceLocal
	}

	return &Config{
		Source: source,
		Library: LibraryConfig{
			Root: os.Getenv("LIBRARY_ROOT"),
		},
		PhotoPrism: PhotoPrismConfig{
			URL:      os.Getenv("PHOTOPRISM_URL"),
			Username: os.Getenv("PHOTOPRISM_USERNAME"),
			Password: os.Getenv("PHOTOPRISM_PASSWORD"),
			Domain:   os.Getenv("PHOTOPRISM_DOMAIN"),
		},
		Analysis: AnalysisConfig{
			Concurrency:   envInt("ANALYSIS_CONCURRENCY", 0),
			ExcludeFailed: envBool("ANALYSIS_EXCLUDE_FAILED"),
		},
		Web: WebConfig{
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		MediaTypes: types,
	}
}

func loadMediaTypesFile(path string) (MediaTypes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MediaTypes{}, fmt.Errorf("read media types file: %w", err)
	}
	return LoadMediaTypes(data)
}
