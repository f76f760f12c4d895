package domain

import (
	"errors"
	"time"
)

// Folder names partitioning images by processing stage.
const (
	FolderUploaded = "uploaded"
	FolderEdited   = "edited"
	FolderDetected = "detected"

	// FolderAll addresses every folder at once where an operation allows it.
	FolderAll = "all"
)

// Folders lists the concrete folders in resolution order.
var Folders = []string{FolderUploaded, FolderEdited, FolderDetected}

// Sentinel errors mapped to HTTP status codes by the API layer.
var (
	ErrNotFound      = errors.New("image not found")
	ErrInvalidFolder = errors.New("invalid folder")
	ErrExists        = errors.New("image already exists")
	ErrBadImage      = errors.New("file is not a valid image")
	ErrBadFormat     = errors.New("unsupported image format")
	ErrBadRequest    = errors.New("invalid request")
)

// Metadata describes a stored image file.
type Metadata struct {
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Mode      string `json:"mode"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
	Path      string `json:"path"`
	Folder    string `json:"folder,omitempty"`
}

// Box is a bounding box normalized to [0,1] in both axes.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Clamp returns the box constrained to the unit square.
func (b Box) Clamp() Box {
	clamp := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

// Detection is a single detected object.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// EventsTopic is the event bus topic carrying image lifecycle events.
const EventsTopic = "image.events"

// EventType identifies an image lifecycle event.
type EventType string

const (
	EventUploaded EventType = "image.uploaded"
	EventEdited   EventType = "image.edited"
	EventDetected EventType = "image.detected"
	EventMoved    EventType = "image.moved"
	EventDeleted  EventType = "image.deleted"
)

// Event is published on the event bus after every mutating operation.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Image     string    `json:"image"`
	Folder    string    `json:"folder"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
