// Package asr defines the speech-recognition capability the pipeline depends
// on and the backends that provide it.
//
// An Engine turns one chunk of canonical PCM into text. Engines are created
// once per run by a Loader, after a single hardware probe, and are called
// strictly sequentially. Two backends ship: a local whisper.cpp command-line
// binary and an OpenAI-compatible /audio/transcriptions endpoint.
package asr
