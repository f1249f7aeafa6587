package constant

// ReportPromptV1 asks the model for a complete chapter report as one JSON
// object. The subject (a chapter name or pasted document text) is appended.
const ReportPromptV1 = `You are an expert teacher preparing a structured study report.

Produce ONLY a JSON object with exactly these fields (markdown allowed inside string values):

{
  "title": "chapter title",
  "overview": "2-3 paragraph markdown overview",
  "glossary": [{"term": "...", "definition": "..."}],
  "concepts": [{"name": "...", "explanation": "markdown explanation"}],
  "formulas": [{"expression": "...", "explanation": "when and how it is used"}],
  "applications": "markdown text on real-world applications",
  "summary": "markdown summary of the whole chapter",
  "recap": "4-6 plain sentences suitable for reading aloud",
  "citations": [{"title": "...", "url": "..."}]
}

Glossary terms must be unique and non-empty. Do not wrap the JSON in code fences. Do not add any text outside the JSON object.

STUDY MATERIAL:

`

// NarrationInstructionV1 prefixes the recap text sent to the speech endpoint.
const NarrationInstructionV1 = "Read the following chapter recap in a clear, calm teaching voice: "
