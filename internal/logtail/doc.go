// Package logtail reads the last lines of a log file.
//
// The console writes its logs to <data_dir>/codecks-bot.log so they do not
// tear the alternate screen, and shows the tail of that file in its log pane.
// Read walks the file backwards in fixed-size chunks until it has enough
// newlines, so a long-running bot with a large log still opens the pane
// instantly.
//
//	lines, err := logtail.Read(path, 200)
//
// A missing file is not an error; it yields no lines. A trailing newline and
// CRLF line endings are handled.
package logtail
