// Package llm talks to an OpenAI-compatible chat completion endpoint (Groq by
// default) in JSON mode.
//
// The pipeline uses it for one job: turning a free-text publishing schedule
// ("Sermon part 1 & 2 December 4th, 2024") into structured entries, see
// Client.ParseSchedule. Callers fall back to the regex parser in the schedule
// package when the key is missing or the request fails.
//
// Requests are retried on HTTP 408/429/5xx, network timeouts and empty
// completions with exponential backoff (base 1s, max 10s, 5 attempts by
// default). Context cancellation aborts retries immediately.
package llm
