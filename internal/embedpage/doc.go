// Package embedpage assembles the HTML page that embeds the Panda3D browser
// plugin.
//
// The page loads the plugin bootstrap script (RunPanda3D.js), lays out a
// fixed 973x520 container and calls P3D_RunContent with an ordered list of
// key/value arguments: the data file and instance id, then every request
// parameter in the order it was received, then the fixed sizing, callback
// and fallback parameters.
//
// # Escaping
//
// The document is built as an ordered list of segments. Raw segments are
// trusted markup written by this package; value segments carry parameter
// keys and values and pass through a single escaping policy:
//
//   - hardened (default): values are JavaScript-string escaped, so a value
//     cannot terminate its quoted literal, the <script> element or the page.
//   - parity: values are written verbatim, as the legacy page did. This
//     reproduces its cross-site scripting defect and exists only for
//     deployments that depend on the old behaviour.
//
// # Forwarding
//
// Request parameters are forwarded only when Options.ForwardParams is set
// (config: page.forward_unvalidated_params). With forwarding off the page
// carries the fixed parameters only.
//
// Rendering is pure: no I/O, no shared state, identical input yields
// identical bytes. An Assembler is safe for concurrent use.
package embedpage
