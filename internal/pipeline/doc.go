// Package pipeline runs the end-to-end conversion flow: make sure the channel
// catalog exists, match every subscription title against it, write the
// matches CSV and convert each matched video to an MP3.
//
// Each match is recorded in the store before conversion starts and updated
// with the outcome, so "podpipe history" shows partial progress after a crash.
// One failed conversion never stops the rest.
package pipeline
