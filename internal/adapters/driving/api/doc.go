// Package api exposes the question-answering service over HTTP.
//
// Routes:
//
//	GET  /               service status
//	POST /upload         multipart upload of one or more files
//	POST /ask            question against a session
//	GET  /sessions/{id}  session snapshot
package api
