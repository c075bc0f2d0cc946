package extraction

import "fmt"

// buildExtractionPrompt asks for every card field as a flat JSON object
func buildExtractionPrompt() string {
	return `You are an expert at reading business cards. Analyze the business card in this image.
The card may be printed in Arabic, English, or both. When a field appears in both languages, prefer the English text.

INSTRUCTIONS:
1. Read every piece of text on the card, including small print near logos and borders
2. Extract exactly the following fields:
   - companyName: the company or organization name
   - fullName: the person's full name
   - jobTitle: the complete job title (e.g. "General Manager of Procurement", "Sales Director")
   - sector: the business sector or industry (e.g. Logistics, Real Estate, Healthcare, Technology, Oil & Gas)
   - mobile: mobile / cell number(s); join several numbers with " | "
   - officePhone: office / landline number(s); join several numbers with " | "
   - email: the email address
   - website: the website URL
3. Keep country codes on phone numbers when they are printed
4. Use the string "Null" (not null, not an empty string) for any field that is not on the card
5. Never guess or invent information

OUTPUT FORMAT:
Respond with ONLY a JSON object, no markdown and no explanation:

{
  "companyName": "...",
  "fullName": "...",
  "jobTitle": "...",
  "sector": "...",
  "mobile": "...",
  "officePhone": "...",
  "email": "...",
  "website": "..."
}`
}

// buildVerificationPrompt asks the model to confirm or correct the company
// name using only visual branding on the card
func buildVerificationPrompt(candidate string) string {
	return fmt.Sprintf(`You are checking a single field read from a business card.

The text extraction read the company name as: "%s"

Look at the card image for visual evidence of the company name:
  1. Logos and the text inside or next to them
  2. A brand name set in a distinct colour, font, or style
  3. Watermarks, letterheads, or printed headers

Using ONLY that visual evidence, decide whether the company name is correct.
- If it is correct, or the visual evidence is unclear, answer exactly: %s
- If a logo clearly shows a different name, answer with that name only.

Answer with the company name alone: no punctuation, no explanation.`, candidate, candidate)
}
