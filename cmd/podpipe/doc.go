// Command podpipe matches subscription titles to a YouTube channel, converts
// the matched videos to podcast audio and schedules episodes on Podbean.
//
// Commands that change files or remote state are recorded as runs in the
// state store (see "podpipe history"). "run" and "schedule" also hold a lock
// in the state directory so two invocations never work on the same files.
package main
