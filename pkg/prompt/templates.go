package prompt

// Voter roles. Each maps to a system prompt tuned for a different
// evaluation style; the three voters otherwise share one algorithm.
const (
	RoleAnalytical = "analytical"
	RoleCreative   = "creative"
	RoleCritical   = "critical"

	RoleGrounding      = "grounding"
	RoleExplainability = "explainability"
	RoleSynthesis      = "synthesis"
	RoleGeneration     = "generation"
)

const voterOutputFormat = `Structure your answer exactly as follows:

RESPONSE:
<your direct answer to the question>

REASONING:
<the reasoning that led you to this answer>

EVIDENCE:
<one supporting point per line>

CONFIDENCE:
<high, medium, or low>`

func builtinTemplates() map[string]string {
	return map[string]string{
		"voter_evaluation": `{documents}{context}Question: {query}

Evaluate the question and give your best answer.

` + voterOutputFormat,

		"rag_generation": `Answer the question using only the numbered sources below.
Cite every claim with its source marker, e.g. [Source 1]. If the sources
do not contain the answer, say that you don't have enough information.

{documents}Question: {query}

Answer:`,

		"grounding_check": `Verify whether the answer below is supported by the listed sources.
For each claim, check that at least one source backs it.

Answer:
{response}

Sources:
{sources}

Reply with a grounding score between 0.0 (entirely unsupported) and 1.0
(fully supported) on the first line, then a short justification.`,

		"explanation": `Explain how the answer below was produced.

Answer:
{response}

Sources used:
{sources}

Process:
{process}

Describe, step by step, which sources contributed to the answer and how
confident a reader should be in each part.`,

		"synthesis": `Multiple agents answered the same question. Integrate their
responses into one answer: keep points they agree on, resolve
contradictions by weighing confidence and reasoning quality, and
explicitly flag any unresolved disagreement.

{votes}Integrated answer:`,
	}
}

func builtinSystemPrompts() map[string]string {
	return map[string]string{
		RoleAnalytical: "You are an analytical evaluator. Reason step by step, " +
			"prefer verifiable facts, and keep your answer precise and structured.",
		RoleCreative: "You are a creative evaluator. Explore unconventional angles " +
			"and connections other evaluators might miss, while staying truthful.",
		RoleCritical: "You are a critical evaluator. Actively look for flaws, " +
			"missing assumptions, and counter-evidence before committing to an answer.",
		RoleGrounding: "You verify that generated answers are supported by their " +
			"cited sources. Be strict: unsupported claims lower the score.",
		RoleExplainability: "You explain how an AI system arrived at an answer, " +
			"in plain language a non-expert can follow.",
		RoleSynthesis: "You integrate multiple AI agents' answers into a single, " +
			"coherent response, resolving contradictions and flagging disagreement.",
		RoleGeneration: "You answer questions strictly from the provided sources " +
			"and cite them with [Source N] markers.",
	}
}
