package web

import "embed"

// Static embeds static assets served under /static and the root crawler files.
//
//go:embed static
var Static embed.FS
