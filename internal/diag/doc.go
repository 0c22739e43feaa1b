// Package diag defines the diagnostic model used to report resolution
// results and fixture problems.
//
// Diagnostic is the central record: a Severity, a Code with a stable string
// id (RES1xxx for resolution errors, RES2xxx for warnings and hints, FIX3xxx
// for fixture problems), the Subject it is about (usually a query name), a
// Message and an optional fixture position. Notes add secondary context such
// as the candidates that tied.
//
// Producers emit through a Reporter, either directly or with a
// ReportBuilder. BagReporter collects into a Bag, which supports limits,
// sorting and deduplication; DedupReporter drops repeats before they reach
// the bag.
//
// Rendering lives in internal/report. FormatShort is the only formatter kept
// here because golden tests in several packages share it.
package diag
