// Package createdat resolves the creation year of a media file.
//
// Resolution walks an ordered chain of strategies and the first one that
// produces a timestamp wins: embedded metadata (EXIF for photos, the MP4/QuickTime
// movie header for videos), optionally the filename, and finally the file's
// modification time. Unreadable or corrupt metadata never aborts resolution.
package createdat
