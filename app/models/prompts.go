package models

import "fmt"

const AnswerSystemPrompt = "Generate a clear, concise, and meaningful answer based solely on the provided context."

const AgentSystemPrompt = `You answer questions about a single document.
Call the answer_draft tool with the user's question to get an answer grounded in the document,
then reply to the user with that answer. Do not invent facts that the tool did not return.`

func AnswerUserPrompt(query, context string) string {
	return fmt.Sprintf("User query: %s\n\nContext:\n%s", query, context)
}
