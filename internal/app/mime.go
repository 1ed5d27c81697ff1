package app

import (
	"log"
	"mime"
)

// staticMimeTypes pins types for embedded assets whose extensions are missing
// from minimal container images.
var staticMimeTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".txt": "text/plain; charset=utf-8",
	".ico": "image/x-icon",
}

func init() {
	for ext, typ := range staticMimeTypes {
		ensureMimeType(ext, typ)
	}
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
