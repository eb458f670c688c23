// Package domain defines the core business entities of the video
// generation pipeline: the task record tracked from submission to a
// terminal state, its status vocabulary, and the runtime setting keys
// the orchestration core consults.
package domain
