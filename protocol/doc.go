// Package protocol implements the textual tool-call convention spoken between
// the router agent and the workflow engine. A model completion is either
// free-form text (a direct answer) or a single fenced block delimited by
// begin/end tool-call markers wrapping a JSON payload: one {name, arguments}
// object or an array of such objects.
//
// Decode turns raw completions into structured tool calls; Encode turns tool
// execution results back into conversation log entries. Encode never fails:
// tool failures are represented as message content so the log always advances.
package protocol
