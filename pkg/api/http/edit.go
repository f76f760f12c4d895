package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// editResponse reports where an edited image was written
type editResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

func (s *Server) writeEdited(c *gin.Context, path string, err error) {
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, editResponse{Status: "success", Path: path})
}

func (s *Server) imageName(c *gin.Context) (string, bool) {
	name := c.Query("image_name")
	if name == "" {
		s.badRequest(c, "missing query parameter 'image_name'")
		return "", false
	}
	return name, true
}

func (s *Server) intQuery(c *gin.Context, key, def string) (int, bool) {
	v, err := strconv.Atoi(c.DefaultQuery(key, def))
	if err != nil {
		s.badRequest(c, "parameter '"+key+"' must be an integer")
		return 0, false
	}
	return v, true
}

func (s *Server) floatQuery(c *gin.Context, key, def string) (float64, bool) {
	v, err := strconv.ParseFloat(c.DefaultQuery(key, def), 64)
	if err != nil {
		s.badRequest(c, "parameter '"+key+"' must be a number")
		return 0, false
	}
	return v, true
}

// handleResize scales an image to the given dimensions
func (s *Server) handleResize(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}
	width, ok := s.intQuery(c, "width", "0")
	if !ok {
		return
	}
	height, ok := s.intQuery(c, "height", "0")
	if !ok {
		return
	}

	path, err := s.editor.Resize(c.Request.Context(), name, width, height)
	s.writeEdited(c, path, err)
}

// handleGrayscale converts an image to grayscale
func (s *Server) handleGrayscale(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}

	path, err := s.editor.Grayscale(c.Request.Context(), name)
	s.writeEdited(c, path, err)
}

// handleRotate rotates an image counter-clockwise by the given degrees
func (s *Server) handleRotate(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}
	degrees, ok := s.intQuery(c, "degrees", "90")
	if !ok {
		return
	}
	expand := c.DefaultQuery("expand", "false") == "true"

	path, err := s.editor.Rotate(c.Request.Context(), name, degrees, expand)
	s.writeEdited(c, path, err)
}

// handleCrop cuts a rectangular region out of an image
func (s *Server) handleCrop(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}
	left, ok := s.intQuery(c, "left", "0")
	if !ok {
		return
	}
	upper, ok := s.intQuery(c, "upper", "0")
	if !ok {
		return
	}
	right, ok := s.intQuery(c, "right", "0")
	if !ok {
		return
	}
	lower, ok := s.intQuery(c, "lower", "0")
	if !ok {
		return
	}

	path, err := s.editor.Crop(c.Request.Context(), name, left, upper, right, lower)
	s.writeEdited(c, path, err)
}

// handleBlur applies a Gaussian blur
func (s *Server) handleBlur(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}
	radius, ok := s.floatQuery(c, "radius", "2")
	if !ok {
		return
	}

	path, err := s.editor.Blur(c.Request.Context(), name, radius)
	s.writeEdited(c, path, err)
}

// handleSharpen applies an unsharp mask
func (s *Server) handleSharpen(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}
	factor, ok := s.floatQuery(c, "factor", "2")
	if !ok {
		return
	}
	radius, ok := s.floatQuery(c, "radius", "2")
	if !ok {
		return
	}
	threshold, ok := s.intQuery(c, "threshold", "3")
	if !ok {
		return
	}

	path, err := s.editor.Sharpen(c.Request.Context(), name, factor, radius, threshold)
	s.writeEdited(c, path, err)
}

// handleBrightness adjusts image brightness by a factor, 1.0 keeps the original
func (s *Server) handleBrightness(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}
	factor, ok := s.floatQuery(c, "factor", "1")
	if !ok {
		return
	}

	path, err := s.editor.Brightness(c.Request.Context(), name, factor)
	s.writeEdited(c, path, err)
}

// handleContrast adjusts image contrast by a factor, 1.0 keeps the original
func (s *Server) handleContrast(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}
	factor, ok := s.floatQuery(c, "factor", "1")
	if !ok {
		return
	}

	path, err := s.editor.Contrast(c.Request.Context(), name, factor)
	s.writeEdited(c, path, err)
}

// handleWatermark overlays another stored image on top of the source
func (s *Server) handleWatermark(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}
	mark := c.Query("watermark")
	if mark == "" {
		s.badRequest(c, "missing query parameter 'watermark'")
		return
	}
	x, ok := s.intQuery(c, "x", "0")
	if !ok {
		return
	}
	y, ok := s.intQuery(c, "y", "0")
	if !ok {
		return
	}
	opacity, ok := s.floatQuery(c, "opacity", "1")
	if !ok {
		return
	}
	center := c.DefaultQuery("center", "false") == "true"

	path, err := s.editor.Watermark(c.Request.Context(), name, mark, x, y, opacity, center)
	s.writeEdited(c, path, err)
}
