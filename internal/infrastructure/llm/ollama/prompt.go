package ollama

import (
	"fmt"
	"strings"

	"github.com/healthbot/knowledge-core/internal/core/domain"
)

func buildAnswerPrompt(question string, results []domain.RetrievalResult) string {
	var contextBuilder strings.Builder
	for idx, result := range results {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] source=%s distance=%.3f\n%s\n\n",
			idx+1,
			result.SourceID,
			result.Distance,
			result.PassageText,
		))
	}

	return fmt.Sprintf(`You are a dietary guidance assistant for patients managing diabetes and blood pressure.
Answer the question only from the medical document excerpts below.
If the excerpts are insufficient, say so directly instead of guessing.
Do not invent measurements or diagnoses.

Question:
%s

Excerpts:
%s
`, question, contextBuilder.String())
}
