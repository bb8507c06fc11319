package handler

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"shop-backend/service"
)

const maxImageSize = 10 << 20 // 10 MiB

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".svg":  true,
}

// UploadProductImage handles POST /products/{id}/image with a multipart
// "image" file. The file is stored on disk under a fresh uuid-based name and
// the previous image, if any, is removed.
func (h *Handler) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	file, header, err := r.FormFile("image")
	if err != nil {
		writeFieldErrors(w, http.StatusUnprocessableEntity, map[string]string{"image": "an image file is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		writeFieldErrors(w, http.StatusUnprocessableEntity, map[string]string{"image": "must be jpg, jpeg, png or svg"})
		return
	}

	if err := os.MkdirAll(h.imageDir, 0o755); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	name := uuid.New().String() + ext
	path := filepath.Join(h.imageDir, name)
	dst, err := os.Create(path)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		_ = os.Remove(path)
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	old, err := h.svc.SetProductImage(r.Context(), id, name)
	if err != nil {
		_ = os.Remove(path)
		var nf *service.ProductNotFoundError
		if errors.As(err, &nf) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found."})
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if old != "" {
		// best effort, the row already points at the new file
		_ = os.Remove(filepath.Join(h.imageDir, old))
	}

	writeJSON(w, http.StatusOK, map[string]string{"image": name})
}
