// Package internaldefs holds the counter families, label values, help strings
// and bucket labels shared by the Prometheus and OTel exporters, so both
// expose identical names and series.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
