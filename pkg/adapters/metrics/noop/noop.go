// Package noop provides a metrics collector that discards everything.
// It is used in tests and wherever metrics are not wanted.
package noop

import "time"

// Collector implements ports.Metrics and does nothing.
type Collector struct{}

// NewCollector creates a no-op metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (*Collector) IncUploads(string)                           {}
func (*Collector) IncEdits(string, string)                     {}
func (*Collector) IncDetections(string, string)                {}
func (*Collector) IncDeletes(string)                           {}
func (*Collector) IncMoves()                                   {}
func (*Collector) ObserveEditDuration(string, time.Duration)   {}
func (*Collector) ObserveDetectDuration(string, time.Duration) {}
func (*Collector) SetEventClients(int)                         {}
