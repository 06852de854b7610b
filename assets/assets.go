package assets

import "embed"

// FS holds the email templates shipped with the binaries.
//
//go:embed all:templates
var FS embed.FS
