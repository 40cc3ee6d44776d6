// Package housekeeping is a built-in module that checks the database engine
// every five minutes and exposes the latest result at GET /housekeeping.
package housekeeping
