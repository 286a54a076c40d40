package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const indexPage = "settings.html"

// staticFallback serves files from dir for every unmatched route. "/" and
// "/login.html" serve the settings page; unknown API paths get a JSON 404.
func staticFallback(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		urlPath := path.Clean("/" + c.Request.URL.Path)
		if urlPath == "/api" || strings.HasPrefix(urlPath, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		if dir == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.String(http.StatusNotFound, "File not found")
			return
		}

		name := strings.TrimPrefix(urlPath, "/")
		if name == "" || name == "login.html" {
			name = indexPage
		}
		file := filepath.Join(dir, filepath.FromSlash(name))
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			c.String(http.StatusNotFound, "File not found")
			return
		}
		c.File(file)
	}
}
