// Package signaling implements the WebSocket relay that lets authenticated
// peers in the same meeting room discover each other and exchange WebRTC
// SDP/ICE payloads.
//
// The relay never inspects signaling payloads and keeps no history: room
// membership lives only in the in-memory Registry for the lifetime of the
// member connections. Media flows browser-to-browser once signaling
// completes.
package signaling
