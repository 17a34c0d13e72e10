// Package textutil provides title cleanup and filename sanitization.
//
// CleanTitle produces the display title and the on-disk base name used for
// converted episodes. It is intentionally more conservative than the matching
// normalizer in textmatch: case, stop words and "&"/"-" survive so the result
// still reads like the original title.
package textutil
