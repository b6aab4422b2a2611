// Package websocket pushes live board updates to puzzle viewers.
//
// A central Hub tracks the connections watching each session. Viewers
// connect with ?session=<id>; the HTTP layer broadcasts the new GameState
// after every state-changing request and the hub fans it out to the
// session's clients only.
//
// Message Protocol:
//
// Outgoing messages are JSON objects:
//
//	{"session_id": "a1f3", "event": "state_update", "game_state": {...}}
//	{"session_id": "a1f3", "event": "victory", "data": {...}}
//
// Incoming messages are read only to keep the connection alive and are
// otherwise ignored. Moves go through the REST API.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Broadcast methods are safe to call from any goroutine. A client whose
// send buffer fills up is disconnected rather than blocking the sender.
package websocket
