package descriptions

// Tool descriptions shown to MCP clients, with usage examples

const (
	DetectFormatDescription = `Identify the question numbering format of exam PDFs without extracting anything.

**When to use:** Before extracting from an unfamiliar paper, or to find out why a PDF produced no questions.

**What it reports:** The detected format kind (question_colon, q_dot, number_dot, number_paren or unknown), a confidence between 0 and 1, and up to 3 sample matches from the leading pages.

**Examples:**
• Check a single paper: "What format does FMGE_2023_June.pdf use?"
• Survey a folder: "Detect formats for every PDF in /data/raw_pdfs"

**Best practices:** A confidence below 0.3 means no format family matched well; extraction will fall back to the generic strategy and may miss questions.`

	ExtractQuestionsDescription = `Extract multiple-choice questions from a PDF or a directory of PDFs.

**When to use:** Turning exam papers into structured questions with four options, an answer letter, explanation, page number and linked images.

**What happens:** Each PDF goes through format detection, parsing, page tracking, image linking and validation. The batch is then deduplicated and tagged with a subject. Questions that need a human decision are queued for review.

**Examples:**
• Preview a paper: "Extract questions from anatomy_recall.pdf" (save=false)
• Build the bank: "Extract all PDFs in /data/raw_pdfs and save them" (save=true)
• Add a new paper: "Extract june_2024.pdf and append it to the bank" (save=true, append=true)

**Best practices:** Run without save first to check the counts, then save. Use append when adding papers to an existing bank so earlier questions are kept.`

	BankStatsDescription = `Summarise the saved question bank.

**When to use:** Checking bank coverage after an extraction run.

**What it reports:** Total questions, answer coverage, questions with explanations and images, questions still needing review, and the subject distribution.

**Examples:**
• "How many questions in the bank have answers?"
• "Which subjects are under-represented?"`

	ReviewQueueDescription = `Inspect and resolve the manual review queue.

**When to use:** After extraction, to handle questions that referenced a missing image or failed validation.

**Actions:**
• list: pending items with their reason, options and source page
• stats: totals by status and reason
• mark: record a reviewed item, optionally with a corrected answer (A-D or 1-4) and notes

**Examples:**
• "Show the questions waiting for review"
• "Mark 3f2a9c0d1e7b as reviewed with answer C"`

	FindSimilarDescription = `Find near-duplicate questions in the saved bank.

**When to use:** Spotting rephrased repeats that exact deduplication keeps, such as the same question from two recall papers.

**How it works:** Stems are compared by word-set Jaccard similarity; pairs at or above the threshold are reported, most similar first.

**Examples:**
• "Find questions that are at least 90% similar" (threshold=0.9)

**Best practices:** Thresholds below 0.7 mostly report questions that merely share a topic.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"detect_format":     DetectFormatDescription,
	"extract_questions": ExtractQuestionsDescription,
	"bank_stats":        BankStatsDescription,
	"review_queue":      ReviewQueueDescription,
	"find_similar":      FindSimilarDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
