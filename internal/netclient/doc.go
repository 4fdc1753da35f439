// Package netclient is the observer side of the broadcast channel.
//
// It provides two pieces: the Manager, which holds the WebSocket
// connection to the server and reconnects with exponential backoff, and
// the RegistrationClient, which calls the HTTP registration API.
//
// The Manager is deliberately dumb about content: it decodes frames into
// snapshot messages and hands them to a callback. Deriving topology from
// snapshots is the topology package's job.
package netclient
