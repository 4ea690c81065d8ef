package observability

// Attribute keys shared by the tester, the loaders and the transports.

// --- Run attributes ---

const (
	// AttrRunID identifies one test run across log lines (uuid).
	AttrRunID = "sdtt.run.id"

	// AttrInputKind is url, file or html.
	AttrInputKind = "sdtt.input.kind"

	// AttrInputSource is the tested URL or file path.
	AttrInputSource = "sdtt.input.source"

	AttrSelections    = "sdtt.selections"
	AttrSchemasCount  = "sdtt.schemas.count"
	AttrSchemasPassed = "sdtt.schemas.passed"
	AttrSchemasFailed = "sdtt.schemas.failed"
	AttrRunPassed     = "sdtt.run.passed"
	AttrRecordFormats = "sdtt.record.formats"
	AttrStrictTypes   = "sdtt.match.strict"

	// AttrBatchSize is the number of requests in a batch.
	AttrBatchSize = "sdtt.batch.size"
)

// --- Schema attributes ---

const (
	AttrSchemaID      = "sdtt.schema.id"
	AttrSchemaFormat  = "sdtt.schema.format"
	AttrSchemaPassed  = "sdtt.schema.passed"
	AttrFieldsMissing = "sdtt.schema.fields_missing"
)

// --- Loader attributes ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPResponseBodySize = "http.response.body.size"

	// AttrExtractBlocks is the number of JSON-LD blocks found in a document.
	AttrExtractBlocks = "sdtt.extract.jsonld_blocks"

	// AttrExtractRepaired counts JSON-LD blocks that only decoded after repair.
	AttrExtractRepaired = "sdtt.extract.jsonld_repaired"
)

// --- General attributes ---

const (
	AttrError             = "error"
	AttrErrorType         = "error.type"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status.description"
)

// --- Span names ---

const (
	SpanRun     = "sdtt.run"
	SpanFetch   = "sdtt.fetch"
	SpanRender  = "sdtt.render"
	SpanExtract = "sdtt.extract"
	SpanBatch   = "sdtt.batch"
)

// --- Event names ---

const (
	// EventSchemaEvaluated is added to the run span once per schema.
	EventSchemaEvaluated = "sdtt.schema.evaluated"

	// EventExtractionDone marks the end of extraction inside a run.
	EventExtractionDone = "sdtt.extract.done"
)

// --- Metric names ---

const (
	MetricSchemasEvaluated = "sdtt.schemas.evaluated"
	MetricRunsFailed       = "sdtt.runs.failed"
	MetricRunDuration      = "sdtt.run.duration_ms"
	MetricFetchDuration    = "sdtt.fetch.duration_ms"
)
