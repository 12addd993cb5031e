// Package file stores conversations as JSON-lines files, one per session.
//
// Session ids are path-escaped to form the file name, so ids never leave the
// store directory. Files are human readable and can be inspected with
// standard tools:
//
//	$ tail -n 2 conversations/4b9c....jsonl
//	{"role":"user","content":"what is the refund window?"}
//	{"role":"assistant","content":"Refunds are accepted within 30 days."}
package file
