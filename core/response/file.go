package response

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
)

// Download serves the file at path as an attachment named filename.
// A missing file or a directory yields 404.
func Download(path string, filename string) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		cleanPath := filepath.Clean(path)

		info, err := os.Stat(cleanPath)
		if err != nil {
			if os.IsNotExist(err) {
				return ErrNotFound.WithMessage("File not found")
			}
			return err
		}
		if info.IsDir() {
			return ErrNotFound.WithMessage("File not found")
		}

		downloadName := sanitizeFilename(filename)
		if downloadName == "" {
			downloadName = filepath.Base(cleanPath)
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, downloadName))
		w.Header().Set("Content-Type", "application/x-pem-file")

		http.ServeFile(w, r, cleanPath)
		return nil
	}
}

// sanitizeFilename strips characters that could break the Content-Disposition header.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\n", "")
	name = strings.ReplaceAll(name, "\r", "")
	return strings.ReplaceAll(name, "\"", "'")
}
