package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aescanero/pixo/pkg/domain"
)

// MoveRequest is the request body for moving an image between folders
type MoveRequest struct {
	SourceFolder string `json:"source_folder" binding:"required"`
	TargetFolder string `json:"target_folder" binding:"required"`
}

// handleUpload stores an uploaded image file
func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		s.badRequest(c, "missing form field 'file'")
		return
	}

	if s.maxUpload > 0 && file.Size > s.maxUpload {
		s.badRequest(c, fmt.Sprintf("file exceeds upload limit of %d bytes", s.maxUpload))
		return
	}

	filename := c.Query("filename")
	format := c.DefaultQuery("format", "JPEG")

	src, err := file.Open()
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer src.Close()

	meta, err := s.images.SaveUploaded(c.Request.Context(), src, filename, format)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   "success",
		"path":     meta.Path,
		"metadata": meta,
	})
}

// handleList lists images in a folder with pagination
func (s *Server) handleList(c *gin.Context) {
	folder := c.DefaultQuery("folder", domain.FolderAll)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		s.badRequest(c, "limit must be an integer between 1 and 1000")
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		s.badRequest(c, "offset must be a non-negative integer")
		return
	}

	items, err := s.images.List(c.Request.Context(), folder, limit, offset)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"folder": folder,
		"count":  len(items),
		"images": items,
	})
}

// handleDetail returns full metadata for an image
func (s *Server) handleDetail(c *gin.Context) {
	name := c.Param("name")
	folder := c.DefaultQuery("folder", domain.FolderUploaded)

	meta, err := s.images.Get(c.Request.Context(), name, folder)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, meta)
}

// handleDimensions returns the width and height of an image
func (s *Server) handleDimensions(c *gin.Context) {
	name := c.Param("name")
	folder := c.DefaultQuery("folder", domain.FolderUploaded)

	width, height, err := s.images.GetDimensions(c.Request.Context(), name, folder)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"width":  width,
		"height": height,
	})
}

// handleDelete removes an image from a folder
func (s *Server) handleDelete(c *gin.Context) {
	name := c.Param("name")
	folder := c.DefaultQuery("folder", domain.FolderUploaded)

	meta, err := s.images.Delete(c.Request.Context(), name, folder)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       fmt.Sprintf("image %s deleted from %s", name, folder),
		"deleted_image": meta,
	})
}

// handleMove moves an image between folders
func (s *Server) handleMove(c *gin.Context) {
	name := c.Param("name")

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "request body must include source_folder and target_folder")
		return
	}

	meta, err := s.images.Move(c.Request.Context(), name, req.SourceFolder, req.TargetFolder)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  fmt.Sprintf("image %s moved from %s to %s", name, req.SourceFolder, req.TargetFolder),
		"metadata": meta,
	})
}

// handleClearAll removes every image from a folder
func (s *Server) handleClearAll(c *gin.Context) {
	folder := c.DefaultQuery("folder", domain.FolderAll)

	count, err := s.images.DeleteAll(c.Request.Context(), folder)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("deleted %d images from %s", count, folder),
		"deleted": count,
	})
}
