// Package outname generates distinct file names for conversion outputs.
package outname

import (
	"strings"

	"github.com/google/uuid"
)

// Generate creates a unique output file name.
// Format: <prefix>_<uuid>.<ext>
// Example: converted_image_0b6d1c8e-5f7a-4a53-9d0e-2c1b8f4e7a10.png
func Generate(prefix, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	name := prefix + "_" + uuid.NewString()
	if ext == "" {
		return name
	}
	return name + "." + ext
}
