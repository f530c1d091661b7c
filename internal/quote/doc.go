// Package quote defines the JSON payload returned for a gold quote and the
// glue that fills it from extracted prices.
package quote
