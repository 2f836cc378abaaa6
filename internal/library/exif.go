package library

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/imagemeta"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// exifFormats lists the containers imagemeta can read EXIF from.
var exifFormats = map[string]imagemeta.ImageFormat{
	".jpg":  imagemeta.JPEG,
	".jpeg": imagemeta.JPEG,
	".png":  imagemeta.PNG,
	".webp": imagemeta.WebP,
	".tif":  imagemeta.TIFF,
	".tiff": imagemeta.TIFF,
}

// captureTime reads DateTimeOriginal (or DateTime) from the file's EXIF data.
// It never fails; ok is false when the file carries no usable timestamp.
func captureTime(path string) (time.Time, bool) {
	format, ok := exifFormats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return time.Time{}, false
	}
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	values := make(map[string]string, 2)
	_, err = imagemeta.Decode(imagemeta.Options{
		R:           f,
		ImageFormat: format,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "DateTimeOriginal" || ti.Tag == "DateTime"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if s, ok := ti.Value.(string); ok {
				values[ti.Tag] = strings.TrimSpace(s)
			}
			return nil
		},
	})
	if err != nil {
		return time.Time{}, false
	}

	for _, tag := range []string{"DateTimeOriginal", "DateTime"} {
		if t, err := time.ParseInLocation(exifTimeLayout, values[tag], time.Local); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
