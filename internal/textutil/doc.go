// Package textutil normalizes raw recognizer output before it reaches the
// transcript: non-speech markers are dropped and whitespace is collapsed so
// each chunk contributes a single clean line.
package textutil
