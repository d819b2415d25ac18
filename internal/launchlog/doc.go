// Package launchlog records each rendered embed page as a launch event.
//
// A launch carries the request metadata and the names of the forwarded
// query parameters. Parameter values are never recorded: they are
// untrusted input and may carry anything the visitor put in the URL.
//
// Sinks implement Recorder:
//   - SQLiteRepository stores launches in the launches table and lists them
//   - MQTTPublisher announces them on terrainweb/launch/{page_id}
//   - InfluxWriter writes them to the page_launches measurement
//
// Multi fans one event out to several sinks and Async moves recording off
// the request path onto a bounded worker pool.
package launchlog
