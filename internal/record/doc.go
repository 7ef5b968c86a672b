// Package record drives microphone recording sessions: a small state
// machine with a hard duration ceiling, and a capture device backed by the
// system audio stack.
package record
