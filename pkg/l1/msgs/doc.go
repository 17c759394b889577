// Package msgs provides L1 protocol support and all message schemas.
//
// L1 protocol is communicated between L1 controller and L2 brain,
// and uses hardware-agnostic primitives. Every message is wrapped in a
// Typed envelope carrying the type ID and, for commands and replies,
// the sequence number pairing a reply with its command.
//
// Producer: L1 controller
// Consumer: L2 brain
package msgs
