package launchlog

import (
	"context"
	"time"
)

// PointWriter is the part of influxdb.Client the time-series sink needs.
type PointWriter interface {
	WriteLaunch(pageID, escapeMode string, forwardedParams int, at time.Time)
}

// InfluxWriter writes launches to the page_launches measurement.
type InfluxWriter struct {
	w PointWriter
}

// NewInfluxWriter creates a time-series sink.
func NewInfluxWriter(w PointWriter) *InfluxWriter {
	return &InfluxWriter{w: w}
}

// Record queues a point. Write failures surface through the client's
// async error callback, not here.
func (i *InfluxWriter) Record(_ context.Context, ev *Event) error {
	if err := ev.prepare(); err != nil {
		return err
	}
	i.w.WriteLaunch(ev.PageID, ev.EscapeMode, ev.ForwardedCount, ev.RenderedAt)
	return nil
}
