// Package helper provides shared test utilities for the circulation packages:
// unique ID generation, a controllable clock, and spies for the logging and
// metrics interfaces.
package helper
