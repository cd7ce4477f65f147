package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/larpo1/davidlarpent.com/internal/docservice"
)

const maxUploadBytes = 50 << 20 // 50 MB

// ImageHandler accepts and lists per-post feature images, stored under
// <imagesRoot>/posts/<slug>/.
type ImageHandler struct {
	imagesRoot string
}

// NewImageHandler creates a handler rooted at the public images directory.
func NewImageHandler(imagesRoot string) *ImageHandler {
	return &ImageHandler{imagesRoot: imagesRoot}
}

func (h *ImageHandler) postDir(slug string) (string, error) {
	if err := docservice.ValidateSlug(slug); err != nil {
		return "", err
	}
	return filepath.Join(h.imagesRoot, "posts", slug), nil
}

// safeName validates that the filename is a plain name (no path
// separators, no traversal) and returns the absolute path under the
// post's image directory.
func (h *ImageHandler) safeName(slug, name string) (string, error) {
	dir, err := h.postDir(slug)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(dir, cleaned)
	if !strings.HasPrefix(abs, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes image directory")
	}
	return abs, nil
}

type imageInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
}

// List handles GET /posts/{slug}/images, newest first.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	dir, err := h.postDir(slug)
	if err != nil {
		writeErr(w, err)
		return
	}

	images := []imageInfo{}
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, infoErr := e.Info()
			if infoErr != nil {
				continue
			}
			images = append(images, imageInfo{
				Name:     e.Name(),
				Path:     "/images/posts/" + slug + "/" + e.Name(),
				Modified: info.ModTime(),
			})
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Modified.After(images[j].Modified) })

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "images": images})
}

// Upload handles POST /posts/{slug}/images (multipart/form-data, field "file").
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(slug, header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create image dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"path":    "/images/posts/" + slug + "/" + header.Filename,
	})
}
