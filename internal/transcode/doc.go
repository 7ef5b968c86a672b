// Package transcode compresses PCM buffers into the canonical MP3 payload
// stored on sound assets. Encoding runs in fixed-size blocks under a
// wall-clock slice budget and yields to the scheduler between slices, so a
// long encode never stalls the host for more than one budget window.
package transcode
