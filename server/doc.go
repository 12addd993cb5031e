// Package server serves conversations over HTTP.
//
// Routes:
//
//	POST   /api/sessions                 create a session id
//	POST   /api/sessions/{id}/messages   run a turn, {"text": "..."}
//	GET    /api/sessions/{id}/messages   committed conversation
//	DELETE /api/sessions/{id}            reset the session
//	GET    /api/sessions/{id}/ws         stream turns over a WebSocket
//
// On the WebSocket every inbound {"text": "..."} is answered with delta
// frames followed by a frame with "done": true.
package server
