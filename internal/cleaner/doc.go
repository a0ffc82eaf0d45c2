// Package cleaner runs the border pipeline against drawing files.
//
// ProcessFile handles one drawing end to end:
//
//  1. open it through the host, retrying with a delay
//  2. count entities and take a snapshot
//  3. find the border and prune everything outside it
//  4. count again, save into the output folder, close
//
// Every failure past the open step that a host can produce is reported in the
// returned outcome rather than as an error. Run applies ProcessFile to a file
// or to every drawing in a folder, isolating files from each other, and hands
// the finished run to its sinks (reports, history).
//
// Cleaned files go to a CLEAN subfolder: next to the input for a single file,
// inside the folder for a batch. Files are processed one at a time because a
// host session is not safe for concurrent use.
package cleaner
