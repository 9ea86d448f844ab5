package main

import "strings"

// Sample is a document sent to /api/translate.
type Sample struct {
	Name     string
	FileName string
	Text     string
}

// Samples are plain-text documents of increasing length used for latency
// measurement.
var Samples = []Sample{
	{
		Name:     "tiny",
		FileName: "note.txt",
		Text:     "Please review the attached contract before Friday and send your comments to the legal team.",
	},
	{
		Name:     "short",
		FileName: "update.txt",
		Text: `Hi team,

The deployment yesterday went smoothly. All services are running and we have not seen any errors in the logs so far. The only open item is the response time of the search endpoint, which is around 450ms instead of the expected 300ms. I will investigate today and keep you posted.

Thanks,
Manuel`,
	},
	{
		Name:     "medium",
		FileName: "incident.md",
		Text: `# Incident summary

Several users reported losing form data after their session expired. The token refresh endpoint returns a new token, but the request that triggered the refresh is dropped and never retried.

## Proposed fix

Queue pending requests while the token is being refreshed and replay them once the new token arrives. This pattern is common in OAuth client libraries.

## Next steps

1. Draft pull request by Thursday.
2. Add an integration test covering refresh during a long form.
3. Monitor error rates for one week after release.`,
	},
	{
		Name:     "long",
		FileName: "policy.txt",
		Text:     strings.Repeat("Employees may work remotely up to three days per week, subject to approval from their manager. Equipment provided by the company remains company property and must be returned at the end of employment. ", 20),
	},
	{
		Name:     "max",
		FileName: "handbook.txt",
		// Exceeds the default character ceiling to exercise truncation.
		Text: strings.Repeat("Section text describing onboarding procedures, security training and benefits enrolment. ", 600),
	},
}

// QualitySamples check that content the translation must preserve survives.
var QualitySamples = []Sample{
	{
		Name:     "numbers",
		FileName: "invoice.txt",
		// Tests: amounts, dates and invoice ids unchanged
		Text: "Invoice INV-2024-0193 for 1,250.00 EUR is due on 2024-07-15. Late payments incur a 2% monthly fee.",
	},
	{
		Name:     "urls",
		FileName: "links.txt",
		// Tests: URLs and e-mail addresses unchanged
		Text: "Download the installer from https://example.com/download and contact support@example.com if it fails.",
	},
	{
		Name:     "code",
		FileName: "readme.md",
		// Tests: inline code and command names unchanged
		Text: "Run `make build` to compile the project, then start it with `./bin/server --port 8090`.",
	},
	{
		Name:     "structure",
		FileName: "agenda.txt",
		// Tests: list structure and paragraph breaks preserved
		Text: "Agenda:\n- Budget review\n- Hiring plan\n- Office move\n\nPlease bring the Q3 figures.",
	},
}
