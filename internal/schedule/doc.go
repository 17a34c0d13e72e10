// Package schedule turns a free-text publishing message into scheduled
// Podbean episodes.
//
// A message is a list of lines such as
//
//	*Sermon Teaching part 1 & 2 December 4th, 2024
//	*Walking in Faith December 5th, 2024
//
// Lines are parsed into dated entries (by the LLM when configured, otherwise
// by ParseMessage), each entry is resolved to a catalog record and then to an
// audio file with the two-stage matcher, publish times are pinned to the
// configured clock and timezone, and every matched entry is uploaded and
// scheduled. Audio that was already scheduled successfully is never uploaded
// twice.
package schedule
