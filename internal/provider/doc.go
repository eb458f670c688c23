// Package provider normalizes the third-party video generation vendors
// behind a single adapter contract: create a remote job, poll it, and
// optionally fetch the finished artifact directly. Vendors differ in
// request encoding (JSON vs multipart, with or without a pre-upload to
// an image host), in status vocabulary, and in whether direct artifact
// retrieval exists; every variant collapses those differences into the
// same JobSnapshot value so the task processor never special-cases a
// vendor.
//
// Transport failures never surface as errors from CreateJob or
// QueryJob. They fold into a JobSnapshot with status failed and an
// explanatory message, leaving the retry decision to the caller.
package provider
