package flows

import "embed"

// Locales holds the bundled message files, one TOML file per language (en.toml, pt.toml).
//
//go:embed locales/*.toml
var Locales embed.FS
