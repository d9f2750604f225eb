// Package testsupport holds fixtures shared by package tests: temp-dir
// configs, recordings with a known duration, and a decoder that needs no
// ffmpeg.
package testsupport
