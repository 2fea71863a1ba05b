// Package gps runs the NMEA decoder against a live byte source (a serial
// receiver, a TCP NMEA stream or a recorded capture) and hands every
// finished fix to the configured sinks.
//
// The service is best-effort: open and read failures are kept in the
// snapshot and retried where that makes sense, they never stop the process.
package gps
