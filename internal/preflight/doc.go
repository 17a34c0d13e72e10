// Package preflight provides readiness checks for the directories, binaries
// and external services podpipe depends on.
//
// Commands call RunAll with the Scope they need before doing any work, so a
// missing yt-dlp or an unwritable podcasts directory fails fast instead of
// after an hour of downloads. "podpipe status" renders the same results.
package preflight
