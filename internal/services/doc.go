// Package services holds what the pipeline stages and external integrations
// share: context helpers that stamp run IDs, stage names and store row IDs
// for logging, plus error markers and the Wrap helper that classify failures
// into store statuses (failed vs review).
//
// Integrations live in subpackages: llm (schedule message parsing), youtube
// (channel catalog) and podbean (episode hosting).
package services
