// Package influxdb records Terrain Web page launches as time series.
//
// It wraps the official influxdb-client-go v2 library. Each render becomes
// one point in the page_launches measurement, tagged by page_id and
// escape_mode, with the forwarded parameter count as its field.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteLaunch("terrain", "hardened", 2, time.Now())
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Failed batches are reported through SetOnError.
package influxdb
