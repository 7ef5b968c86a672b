// Package audio provides the normalized PCM buffer model, deterministic
// 16-bit sample quantization, a WAV codec and the format-sniffing decoder
// shared by every input path (file upload, URL fetch, finished recording).
package audio
