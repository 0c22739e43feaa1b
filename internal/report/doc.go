// Package report turns scenario results into diagnostics and renders runs
// as text, JSON, msgpack or the short one-line-per-diagnostic form.
package report
