package server

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/labstack/echo/v4"
	apperrors "github.com/tholee-studio/camera-service/internal/errors"
)

const videoFormField = "photos[]"

func (s *Server) handleVideo(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.InvalidParameter("no images uploaded")
	}

	files := form.File[videoFormField]
	stills := make([][]byte, 0, len(files))
	for _, header := range files {
		data, err := readUpload(header)
		if err != nil {
			return apperrors.InternalError("failed to read uploaded image", err)
		}
		stills = append(stills, data)
	}

	orientation := c.FormValue("orientation")
	if orientation == "" {
		orientation = c.QueryParam("orientation")
	}

	result, err := s.assembler.Assemble(c.Request().Context(), stills, orientation)
	if err != nil {
		return err
	}
	defer result.Cleanup()

	return c.Attachment(result.Path, "video.mp4")
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}
	return data, nil
}
