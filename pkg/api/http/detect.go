package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleBoundingBoxes runs object detection and saves an annotated copy
func (s *Server) handleBoundingBoxes(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}

	result, err := s.detection.BoundingBoxes(c.Request.Context(), name)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("detected %d objects in %s", len(result.Detections), name),
		"image_path": result.ImagePath,
		"detections": result.Detections,
	})
}

// handleDetectedObjects runs object detection and returns the raw results
func (s *Server) handleDetectedObjects(c *gin.Context) {
	name, ok := s.imageName(c)
	if !ok {
		return
	}

	detections, err := s.detection.DetectedObjects(c.Request.Context(), name)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          fmt.Sprintf("detected %d objects in %s", len(detections), name),
		"detected_objects": detections,
	})
}
