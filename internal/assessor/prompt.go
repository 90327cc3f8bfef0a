package assessor

import (
	"fmt"

	"github.com/huangsam/repoaudit/schema"
)

const promptTemplate = `Analyze the following code and provide a security assessment in JSON format.

File: %[1]s

%[2]s

Response must be valid JSON with exactly this structure:
{
    "file_name": %[3]q,
    "file_score": <number 0-10>,
    "file_analysis": "<detailed analysis of the code's security implications, minimum 50 words>",
    "suggestion": "<specific, actionable security improvements, minimum 30 words>",
    "vulnerable_lines": [
        "line 1 with vulnerability",
        "line 2 with vulnerability"
    ]
}

For file_score:
- 0-3: Critical security issues
- 4-6: Moderate security concerns
- 7-8: Minor security concerns
- 9-10: Generally secure

The file_analysis must include:
- Main purpose of the code
- Security implications
- Potential vulnerabilities
- Current security measures

The suggestion must include:
- Specific code improvements
- Security best practices
- Priority fixes needed

If no vulnerable lines are found, use [%[4]q]

Respond with the JSON object only.`

// BuildPrompt renders the assessment request for one file.
func BuildPrompt(path, content string) string {
	return fmt.Sprintf(promptTemplate, path, content, path, schema.NoVulnerableLines)
}
