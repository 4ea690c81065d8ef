// Package schema defines the structured-data schema model and its registry.
//
// A [Definition] names the fields a document is expected to carry for one
// serialization [Format] (JSON-LD, microdata, RDFa, Open Graph, Twitter card
// or plain HTML head metadata). Definitions are grouped in an immutable
// [Registry] built once at start-up with [NewRegistry]; [Builtin] returns the
// definitions shipped with sdtt.
//
// The registry is the single place where a schema name, optionally qualified
// with a format ("jsonld:Article"), is turned into concrete definitions. A
// bare name may resolve to several definitions, one per format that defines
// it; see [Registry.Resolve].
package schema
