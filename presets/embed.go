package presets

import (
	"embed"
)

// FS provides the embedded default run presets.
//
//go:embed *.yaml
var FS embed.FS
