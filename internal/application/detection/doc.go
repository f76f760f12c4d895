// Package detection runs object detection on stored images.
//
// The manager:
//   - resolves the image across all folders
//   - caches detection results by content hash (results survive re-requests
//     without re-running the model)
//   - bounds concurrent model calls with a semaphore
//   - renders annotated copies with labeled boxes into the detected folder
package detection
