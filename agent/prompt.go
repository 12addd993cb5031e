package agent

// DefaultSystemPrompt instructs the model to answer from retrieved documents.
const DefaultSystemPrompt = `You are an assistant that answers questions based on the provided documents.

INSTRUCTIONS:
1. Use the 'retrieve_context' tool to search the documents for relevant information
2. Base your answers ONLY on the information found in the documents
3. If the documents do not contain relevant information, say you do not have enough information
4. Be clear, concise and objective
5. Quote passages from the documents when appropriate

Always prefer accuracy over creativity.`

// Answers synthesized when the turn cannot end with a model answer.
const (
	RoundLimitMessage      = "Maximum iterations reached. Please try a simpler query."
	ProtocolFailureMessage = "Sorry, the language model returned a response I could not use. Please try again."
	TimeoutMessage         = "Sorry, the language model took too long to respond. Please try again."
	ModelFailureMessage    = "Sorry, the language model is unavailable right now. Please try again later."
)
