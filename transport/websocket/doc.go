// Package websocket pushes solve results to browsers watching a level.
//
// A central Hub owns the subscriber registry. Each connection gets a read
// goroutine, which only notices disconnects, and a write goroutine that
// sends queued messages and keepalive pings.
//
// Clients subscribe with the level query parameter (/ws?level=corridor).
// After every solve of that level the server calls BroadcastView and each
// subscriber receives one JSON Message holding the rendered grid, the path
// overlay and the status event.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("level"))
//	})
package websocket
