package ai

// spamPrompt asks for a bare true/false verdict at temperature zero.
// The model must answer "true" only for messages that are not genuine
// job announcements.
const spamPrompt = `You are a spam filter for a job posting aggregator.
Decide whether the following message is spam, an advertisement, or
anything other than a genuine job vacancy announcement.
Answer with exactly one word: "true" if it should be discarded, "false"
if it is a real job posting.

Message:
`

// extractPrompt asks for a single JSON object with the posting fields.
// Unknown fields must be null or omitted, never guessed.
const extractPrompt = `Extract structured job posting fields from the
message below. Respond with a single JSON object and nothing else:

{
  "title": string or null,
  "description": string or null,
  "company": string or null,
  "tags": array of lowercase technology/role keywords,
  "experienceLevel": one of "intern","junior","middle","senior","lead" or null,
  "salaryMin": integer or null,
  "salaryMax": integer or null,
  "currency": one of "USD","UZS","EUR","RUB" or null,
  "workType": one of "remote","office","hybrid" or null,
  "location": string or null,
  "contactInfo": string or null
}

Leave a field null when the message does not state it. Do not invent
values.

Message:
`
