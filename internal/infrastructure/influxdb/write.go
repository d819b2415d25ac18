package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// LaunchMeasurement is the measurement page launches are written to.
const LaunchMeasurement = "page_launches"

// WriteLaunch records one page render.
//
// Tags are low cardinality (page and escape mode); the forwarded parameter
// count is the only field.
//
//	client.WriteLaunch("terrain", "hardened", 2, time.Now())
func (c *Client) WriteLaunch(pageID, escapeMode string, forwardedParams int, at time.Time) {
	c.WritePointWithTime(LaunchMeasurement,
		map[string]string{
			"page_id":     pageID,
			"escape_mode": escapeMode,
		},
		map[string]interface{}{
			"forwarded_params": forwardedParams,
		},
		at,
	)
}

// WritePoint writes a point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp.
// Writes on a disconnected client are dropped.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
