package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/image-api/internal/domain/generation"
	"jan-server/services/image-api/internal/utils/platformerrors"
)

// readFormFiles reads every file posted under field. A request that is not multipart has no files.
// The file count is checked before any file body is read.
func readFormFiles(c *gin.Context, field string, maxBytes int64, maxFiles int) ([]generation.UploadFile, error) {
	ctx := c.Request.Context()
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
			"invalid multipart form", err, "6a3d0e8f-2c47-4b91-8e5a-d0f7c3b21a64")
	}

	headers := form.File[field]
	if maxFiles > 0 && len(headers) > maxFiles {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("at most %d files are allowed, got %d", maxFiles, len(headers)), generation.ErrValidation,
			"ae714c23-6081-4f5d-929b-1b3b07f65ea8")
	}
	files := make([]generation.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxBytes {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("file %s exceeds max size of %d bytes", fh.Filename, maxBytes), nil,
				"7b4e1f90-3d58-4ca2-9f6b-e108d4c32b75")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("failed to open file %s", fh.Filename), err, "8c5f2a01-4e69-4db3-a07c-f219e5d43c86")
		}
		data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("failed to read file %s", fh.Filename), err, "9d603b12-5f7a-4ec4-b18d-0a2af6e54d97")
		}
		if int64(len(data)) > maxBytes {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("file %s exceeds max size of %d bytes", fh.Filename, maxBytes), nil,
				"7b4e1f90-3d58-4ca2-9f6b-e108d4c32b75")
		}
		files = append(files, generation.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
