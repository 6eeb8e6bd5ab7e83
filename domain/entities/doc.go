// Package entities provides the core domain types of a single HTTP exchange:
// the request handed to the dispatcher and the one result delivered back.
package entities
