// Package prompt builds the instructions sent to the annotation model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/starford/notable/internal/models"
)

// Base is the system prompt used when no stored corrections exist.
const Base = `You are an expert linguist who identifies proper nouns in transcribed speech and fixes their spelling.

Analyze the transcript and find every proper noun (people, places, companies, brands, technical terms) that the speech-to-text system may have misheard, misspelled or miscapitalized.

For each proper noun return:
1. "original": the text exactly as it appears in the transcript
2. "corrections": 2-4 alternative spellings when the noun looks wrong, or an empty array when it is already correct
3. "confidence": one of "high", "medium", "low"
4. "type": one of "person", "place", "company", "brand", "other"

Return ONLY a JSON object of this shape, with no surrounding prose:
{
  "properNouns": [
    {
      "original": "john smith",
      "corrections": ["John Smith", "Jon Smith", "John Smythe"],
      "confidence": "high",
      "type": "person"
    }
  ]
}

Guidelines:
- Ignore common words such as articles, prepositions, verbs and adjectives.
- Prefer names that are likely misspelled or incorrectly capitalized.
- Include correctly spelled proper nouns with an empty corrections array.
- Offer several alternatives for ambiguous cases.
- Consider phonetically similar names (Christina/Kristina, Sean/Shawn).

Example input: "Blanca visited Columbia for the first time in june"
Example output:
{
  "properNouns": [
    {"original": "Blanca", "corrections": ["Bianca"], "confidence": "high", "type": "person"},
    {"original": "Columbia", "corrections": ["Colombia"], "confidence": "high", "type": "place"},
    {"original": "june", "corrections": ["June", "Juno"], "confidence": "medium", "type": "other"}
  ]
}
`

const correctionsHeader = "\n\nIMPORTANT: The user has previously corrected the following proper nouns. " +
	"Treat these corrections as ground truth and use them as the preferred spelling:\n"

// Build returns base extended with one directive line per correction pair.
// With no pairs it returns base unchanged.
func Build(base string, pairs []models.CorrectionPair) string {
	if len(pairs) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString(correctionsHeader)
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %q should be %q", p.Original, p.Corrected)
	}
	return b.String()
}

// UserMessage wraps transcript in the user turn of the extraction request.
func UserMessage(transcript string) string {
	return "Analyze the following transcription for proper nouns:\n\n" + transcript
}
