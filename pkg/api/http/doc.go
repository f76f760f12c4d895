// Package http provides the REST API server for the image service.
//
// It exposes image upload and management endpoints, the editing
// operations, and the object detection endpoints, and maps domain
// errors to HTTP status codes with a consistent error envelope.
package http
