// internal/workers/copilot/answer-kpi/prompts.go
package answerkpi

import (
	"fmt"
	"strings"
)

func buildQueryPrompt(question string) string {
	var parts []string

	parts = append(parts, "You are a senior data analyst writing SQL for a SQLite database.")
	parts = append(parts, "\nDatabase schema:")
	parts = append(parts, "suppliers(id INTEGER, name TEXT, country TEXT, is_strategic INTEGER)")
	parts = append(parts, "purchase_orders(id INTEGER, supplier_id INTEGER, material TEXT, qty INTEGER, due_date TEXT, delivery_date TEXT)")
	parts = append(parts, "\nRules:")
	parts = append(parts, "- Only use the tables and columns above.")
	parts = append(parts, "- On-time delivery rate (OTD) = on_time_orders / total_orders, where on_time_orders = delivery_date <= due_date.")
	parts = append(parts, "- When multiple suppliers are mentioned (e.g., \"Alpha and Beta\"), write a query that compares them side by side.")
	parts = append(parts, "- Always use case-insensitive pattern matching: LOWER(s.name) LIKE LOWER('%name%').")
	parts = append(parts, "- Return exactly one read-only SELECT query.")
	parts = append(parts, "- Do NOT use markdown or backticks.")
	parts = append(parts, "- Return ONLY the SQL query.")
	parts = append(parts, fmt.Sprintf("\nUser question:\n%s", question))

	return strings.Join(parts, "\n")
}

func buildNarrationPrompt(question, sql, rowsJSON string) string {
	var parts []string

	parts = append(parts, "You are a supply chain performance analyst.")
	parts = append(parts, "Interpret KPI query results and explain them to a supply chain manager.")
	parts = append(parts, fmt.Sprintf("\nUser Question:\n%s", question))
	parts = append(parts, fmt.Sprintf("\nExecuted SQL:\n%s", sql))
	parts = append(parts, fmt.Sprintf("\nQuery Result (JSON list):\n%s", rowsJSON))
	parts = append(parts, "\nGuidelines:")
	parts = append(parts, "1. Explain the result in plain business English (e.g., on-time delivery rate, order counts, supplier performance).")
	parts = append(parts, "2. Comment on which suppliers perform well or poorly (if applicable).")
	parts = append(parts, "3. Mention if the dataset is small or results are indicative only.")
	parts = append(parts, "4. Limit the response to 6-8 concise sentences.")

	return strings.Join(parts, "\n")
}
