// Package api implements the Terrain Web HTTP server.
//
// This package provides:
//   - The embed page at / and /index.php, rendered from the query string
//   - Static assets (bootstrap script, fallback image, .p3d package)
//   - A JSON view of the plugin invocation for a query string
//   - Launch history, health and metrics endpoints under /api/v1
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Request Boundary
//
// The page handler never rejects input. Every query parameter is parsed
// with the same rules as the legacy PHP page and handed to the
// embedpage.Assembler, which decides what is forwarded and how it is
// escaped. Recording the launch happens after the response is written and
// cannot change it.
//
// # Graceful Degradation
//
// The database, MQTT and InfluxDB are optional. Without the database the
// launch history endpoint answers 404; the page itself only needs the
// assembler.
package api
