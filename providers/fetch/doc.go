// Package fetch loads the HTML documents sdtt tests: over HTTP with a
// [Fetcher], from disk with [ReadFile], or through headless Chrome with a
// [Renderer] for pages that inject their markup from JavaScript.
//
// Every failure is a [*Error] carrying the operation and the source, so
// callers can tell a bad URL from an unreachable server or an oversized
// body with errors.As and errors.Is.
package fetch
