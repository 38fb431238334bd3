// Package templates embeds the starter hook files used by agent-hooks init.
package templates

import "embed"

// FS holds hooks/*.yaml.tmpl.
//
//go:embed hooks/*.yaml.tmpl
var FS embed.FS
