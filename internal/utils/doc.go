// Package utils holds small helpers shared by the sdtt packages: lenient
// JSON decoding for scraped JSON-LD, bounded body reads, a wall-clock timer
// and string helpers for log output.
package utils
