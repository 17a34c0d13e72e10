// Package youtube reads a channel's uploads through the YouTube Data API v3
// and returns them as catalog rows.
//
// Listing uses search.list (50 per page, newest first) for ids and
// videos.list for details. Titles are cleaned with textutil.CleanTitle so the
// catalog matches what the converter writes to disk. Every request waits on a
// token-bucket limiter to stay inside the API quota.
package youtube
