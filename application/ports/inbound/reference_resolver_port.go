package inbound

// ReferenceResolverPort normalizes reference image addresses into URLs the
// provider can fetch and rewrites prompts to defer to reference imagery.
// Both operations are pure.
type ReferenceResolverPort interface {
	ResolveURLs(urls []string) []string
	RewritePrompt(prompt string) string
}
