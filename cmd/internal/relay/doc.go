// Package relay pipes WebSocket frames between browser clients and the
// GraphQL backend.
//
// A Dispatcher sits at the front of the handler chain and destroys upgrade
// requests aimed at any path other than the relay endpoint. The Gateway
// accepts relay upgrades and runs one Session per client. Each Session dials
// the backend with the secret API key as a handshake header, then forwards
// frames verbatim in both directions until either side goes away.
//
// Frames are never buffered. A frame that arrives while the opposite side is
// not open is dropped and counted.
package relay
