// Package protocol implements the board wire protocol: flat JSON objects
// tagged by a "type" field, exchanged over the hub's websocket.
//
// Every known type decodes into its own struct so dispatch is an exhaustive
// type switch. Unrecognised types decode into *Unknown and re-encode
// unchanged, which keeps older hubs compatible with newer clients.
package protocol
