package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/catalog-import/internal/importer"
)

const (
	// uploadField is the multipart field carrying the spreadsheet.
	uploadField = "file"

	// formOverhead is allowed on top of the file limit for multipart framing.
	formOverhead = 1 << 20

	// maxMemory is how much of the form is buffered before spilling to disk.
	maxMemory = 8 << 20
)

// readUpload extracts the spreadsheet from a multipart request. The body is
// capped at maxSize plus framing overhead. cleanup releases the form's
// temporary files and must be called once the upload is consumed.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (importer.Upload, func(), error) {
	noop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+formOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return importer.Upload{}, noop, fmt.Errorf("%w: limit is %d bytes", importer.ErrFileTooLarge, maxSize)
		}
		return importer.Upload{}, noop, fmt.Errorf("%w: %v", importer.ErrNoFile, err)
	}
	cleanup := func() { r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		cleanup()
		return importer.Upload{}, noop, fmt.Errorf("%w: %v", importer.ErrNoFile, err)
	}
	if header.Size > maxSize {
		file.Close()
		cleanup()
		return importer.Upload{}, noop, fmt.Errorf("%w: %d bytes, limit is %d", importer.ErrFileTooLarge, header.Size, maxSize)
	}

	up := importer.Upload{FileName: header.Filename, Body: file}
	return up, func() {
		file.Close()
		cleanup()
	}, nil
}
