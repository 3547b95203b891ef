// Package connectors provides document sources that feed the ingest service.
// The filesystem connector scans a directory and watches it for changes.
package connectors
