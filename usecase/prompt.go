package usecase

import (
	"fmt"

	"github.com/satriahrh/dsa-assistant/domain"
)

const genericProblemName = "the problem"

const hintPromptTemplate = `
As a DSA teaching assistant, you're helping a student with the "%s" problem from %s.

Your role is to guide without revealing complete solutions:
- Ask thought-provoking questions to deepen understanding
- Provide conceptual insights and smaller hints
- Explain relevant algorithms and data structures
- Break down the problem into manageable steps
- Connect this problem to similar patterns the student might recognize

IMPORTANT GUIDELINES:
- DO NOT provide complete solutions or working code
- DO give algorithmic insights and approaches
- DO encourage the student to think step-by-step
- DO refer to relevant CS concepts that apply to this problem
- DO adjust your hints based on the student's questions and understanding level

The student's current question is: %s

Begin your response with thoughtful analysis of what the student is asking, then provide guidance that helps them reach their own solution.
`

const analysisPromptTemplate = `Provide a concise educational analysis of the LeetCode problem "%s" at %s.

Include:
1. Problem type and category (e.g., array manipulation, graph traversal)
2. Key data structures and algorithms relevant to this problem
3. Conceptual approaches to solving it (without full solutions)
4. Common challenges students face with this problem type
5. How this problem connects to fundamental CS concepts

Format your response in markdown with clear sections. Remember, your goal is to help the student understand the problem framework, not solve it for them.`

// BuildSystemPrompt frames the assistant as a Socratic tutor for the given
// problem. The problem name is advisory: an unrecognised URL falls back to a
// generic label instead of failing.
func BuildSystemPrompt(problemURL, question string) string {
	name := domain.ProblemName(problemURL, genericProblemName)
	return fmt.Sprintf(hintPromptTemplate, name, problemURL, question)
}

// BuildAnalysisPrompt asks for a category/technique/pitfall overview of the
// problem without a solution.
func BuildAnalysisPrompt(problemURL string) string {
	name := domain.ProblemName(problemURL, genericProblemName)
	return fmt.Sprintf(analysisPromptTemplate, name, problemURL)
}
