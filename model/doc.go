// Package model defines the port through which the agent talks to a
// language model, plus adapters for langchaingo models and the OpenAI API.
//
// Adapters return assistant messages that already passed Validate, with
// missing tool call ids filled in. Errors caused by deadlines or network
// timeouts wrap ErrTimeout; malformed responses are *ProtocolError.
package model
