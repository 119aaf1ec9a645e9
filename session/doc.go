// Package session provides checkpoint persistence for conversation
// sessions. A session is saved as one atomic snapshot per workflow step so
// an interrupted turn can resume from the last complete checkpoint.
package session
