// Package task implements the video generation lifecycle: the scanner
// that claims pending records, the processor that drives a claimed
// record through submission, polling and download, and the startup
// recovery that picks up work interrupted by a crash or restart.
package task
