// Package textmatch decides whether two differently formatted titles denote
// the same item.
//
// Titles arrive from four sources that each mangle text differently: the
// subscription list, video platform metadata, audio filenames on disk, and
// free-text schedule messages. The package provides:
//   - Normalize, which reduces a title to lower-cased content words
//   - ExtractPart, which finds multi-part sequence numbers ("Part 2")
//   - Scorer, a weighted blend of partial, token-set and token-sort similarity
//   - Selector and SelectBest, threshold-gated best-match selection
//   - TwoStage, the query -> catalog record -> file matcher used by scheduling
//
// Everything here is pure and safe for concurrent use. Absence of a match is
// reported as a value, never as an error.
package textmatch
