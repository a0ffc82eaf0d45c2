// Package server implements the MCP (Model Context Protocol) server for the
// drawing frame cleaner.
//
// The server exposes the detection and cleaning pipeline as MCP tools over
// stdio, so an assistant can inspect a drawing, look at a preview of what
// would be removed, and then clean one drawing or a whole folder.
//
// # Protocol
//
// Transport and JSON-RPC framing come from the MCP Go SDK. Logs go to stderr
// because stdout carries the protocol.
//
// # Available Tools
//
// Inspection (nothing is modified):
//   - drawing_snapshot: Entity counts by category and layer
//   - drawing_detect_border: Every detector candidate, the chosen frame and
//     the handles that would be deleted
//   - drawing_preview: Base64 PNG of the drawing with the frame highlighted
//
// Cleaning:
//   - drawing_clean: Clean one drawing into the output folder
//   - drawing_clean_folder: Clean every drawing in a folder and write reports
//
// History (when a history store is configured):
//   - history_recent: Recent runs with totals
//   - history_run: One run with per-file outcomes
//
// # Inspection Caching
//
// Dry-run inspections are cached by path and reused while the file's size and
// modification time are unchanged, so a detect followed by a preview reads the
// drawing once.
//
// # Error Handling
//
// Tool failures are returned as tool results with IsError set and the error
// text as content; protocol errors are reserved for malformed requests.
//
// # Usage
//
//	c := cleaner.New(drawing.NewJSONHost(), opts, logger)
//	srv := server.New(c, store, version, logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("server failed", zap.Error(err))
//	}
package server
