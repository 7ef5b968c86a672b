// Package studio is the orchestration layer of the sound editor: it owns
// the asset store, the transcoder, the recording session and the remote
// fetcher, and exposes the operations the editor surfaces call.
package studio
