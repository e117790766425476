package domain

// Mode bundles the generation model, retrieval breadth, and prompt template
// for one execution variant. Chosen once at pipeline construction and
// immutable for the pipeline's lifetime; standard trades latency for answer
// quality, fast trades quality for latency.
type Mode struct {
	Name        string
	Model       string
	TopK        int
	Template    string
	Temperature float32
	MaxTokens   int
}

const (
	ModeStandard = "standard"
	ModeFast     = "fast"

	DefaultStandardModel = "gpt-4-turbo-preview"
	DefaultFastModel     = "gpt-3.5-turbo"
)

// standardTemplate asks for explicit three-step reasoning before the answer.
const standardTemplate = `You are a technical expert assistant. Answer the question using the provided context documents.

Use chain-of-thought reasoning:
1. First, identify the key technical concepts in the question
2. Then, analyze the relevant information from the context
3. Finally, provide a clear, accurate answer

Context Documents:
{{context}}

Question: {{question}}

Technical Analysis:
Let me break this down step by step:

1. Key Concepts: [Identify the main technical concepts in the question]

2. Relevant Information: [Extract and analyze relevant details from the context]

3. Answer: [Provide a clear, comprehensive answer]

Please provide your response following this chain-of-thought structure.`

// fastTemplate is a single-shot prompt with no reasoning scaffold.
const fastTemplate = `Answer this technical question using the context.

Context: {{context}}

Question: {{question}}

Answer:`

// StandardMode returns the higher-quality configuration. An empty model
// selects the default standard model.
func StandardMode(model string) Mode {
	if model == "" {
		model = DefaultStandardModel
	}
	return Mode{
		Name:        ModeStandard,
		Model:       model,
		TopK:        4,
		Template:    standardTemplate,
		Temperature: 0,
		MaxTokens:   1000,
	}
}

// FastMode returns the lower-latency configuration: fewer retrieved
// documents, a terse template, and a cheaper model.
func FastMode(model string) Mode {
	if model == "" {
		model = DefaultFastModel
	}
	return Mode{
		Name:        ModeFast,
		Model:       model,
		TopK:        3,
		Template:    fastTemplate,
		Temperature: 0,
		MaxTokens:   1000,
	}
}
