// Package audio turns YouTube videos into podcast-ready MP3 files and
// re-encodes directories of existing audio.
//
// All work shells out: yt-dlp for titles and downloads, ffmpeg for
// transcoding. The Executor interface lets tests swap both for stubs.
package audio
