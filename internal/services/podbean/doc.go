// Package podbean uploads audio and schedules episodes on Podbean.
//
// Authentication uses the client-credentials grant; the access token is
// cached for its lifetime. Uploads are two-step: uploadAuthorize returns a
// presigned URL and file key, the file is PUT to the URL, and the key is then
// referenced when the episode is created with status "future".
package podbean
