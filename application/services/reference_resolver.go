package services

import (
	"net/url"
	"regexp"
	"strings"

	"prompt-to-video/application/ports/inbound"
	"prompt-to-video/config"
)

// ReferencePhrase stands in for any object mention once reference images
// drive the object's appearance.
const ReferencePhrase = "the same object from the reference image"

var (
	colorMaterialRe = regexp.MustCompile(`(?i)\b(silver|black|red|blue|white|gray|grey|gold|metal|leather|wood|plastic|stainless steel|matte|glossy|shiny|dull)\s+`)
	qualityStyleRe  = regexp.MustCompile(`(?i)\b(modern|sleek|luxury|sports|vintage|classic|premium|high-end|budget|affordable)\s+`)
	vehicleNounRe   = regexp.MustCompile(`(?i)\b(car|vehicle|automobile|sedan|suv|coupe|convertible|sports car|luxury car|modern car|vintage car|classic car)\b`)
	watchNounRe     = regexp.MustCompile(`(?i)\b(watch|timepiece|wristwatch|clock)\b`)
	genericNounRe   = regexp.MustCompile(`(?i)\b(product|item|object|thing)\s+(with|featuring|showing|displaying)\s+[^,]+`)
	subFeatureRe    = regexp.MustCompile(`(?i)\b(with|featuring|showing|displaying|including)\s+[^,]*(headlights|wheels|tires|doors|windows|buttons|dials|straps|bands|bezels)\b`)
	phraseRe        = regexp.MustCompile(`(?i)\bthe same object from the reference image\b`)
	punctuationRe   = regexp.MustCompile(`[.,!?;:]`)
	multiSpaceRe    = regexp.MustCompile(`\s+`)
	multiCommaRe    = regexp.MustCompile(`,\s*,+`)
)

// sceneWords is the vocabulary kept during the rewrite: location, lighting,
// mood and camera-depth terms. The transform is keyword driven, not a
// parser, so it can over- or under-strip.
var sceneWords = []string{
	"at", "in", "on", "with", "during", "sunset", "sunrise", "background", "foreground",
	"lighting", "dramatic", "soft", "bright", "dark", "golden hour", "blue hour",
	"mountain", "beach", "city", "street", "road", "track", "studio", "outdoor", "indoor",
	"positioned", "placed", "situated", "located", "standing", "sitting", "moving", "stationary",
	"vibrant", "muted", "warm", "cool", "natural", "artificial", "ambient", "direct",
	"blurred", "sharp", "focused", "depth of field", "bokeh", "shallow", "wide",
	"atmosphere", "mood", "feeling", "emotion", "energy", "dynamic", "static", "calm", "energetic",
}

type referenceResolver struct {
	serverConfig *config.ServerConfig
}

func NewReferenceResolver(serverConfig *config.ServerConfig) inbound.ReferenceResolverPort {
	return &referenceResolver{
		serverConfig: serverConfig,
	}
}

// ResolveURLs rewrites every address the provider could not fetch directly
// into an absolute URL backed by the local serve endpoint.
func (r *referenceResolver) ResolveURLs(urls []string) []string {
	resolved := make([]string, 0, len(urls))
	for _, u := range urls {
		resolved = append(resolved, r.resolveURL(u))
	}
	return resolved
}

func (r *referenceResolver) resolveURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if strings.HasPrefix(u, "/api/") {
		return r.serverConfig.PublicBaseURL + u
	}
	return r.serverConfig.PublicBaseURL + "/api/serve-image?path=" + url.QueryEscape(u)
}

// RewritePrompt strips object-describing text so the reference image defines
// the object while the prompt keeps only scene composition. Lossy by design.
func (r *referenceResolver) RewritePrompt(prompt string) string {
	adjusted := colorMaterialRe.ReplaceAllString(prompt, "")
	adjusted = qualityStyleRe.ReplaceAllString(adjusted, "")
	adjusted = vehicleNounRe.ReplaceAllString(adjusted, ReferencePhrase)
	adjusted = watchNounRe.ReplaceAllString(adjusted, ReferencePhrase)
	adjusted = genericNounRe.ReplaceAllString(adjusted, ReferencePhrase)
	adjusted = subFeatureRe.ReplaceAllString(adjusted, "")

	kept := make([]string, 0)
	for _, word := range strings.Fields(adjusted) {
		if keepWord(word) {
			kept = append(kept, word)
		}
	}

	adjusted = "The same object from the reference image, " + strings.Join(kept, " ")

	// The noun replacements above can plant extra copies of the phrase;
	// only the leading one survives.
	seen := false
	adjusted = phraseRe.ReplaceAllStringFunc(adjusted, func(m string) string {
		if seen {
			return ""
		}
		seen = true
		return m
	})

	adjusted = multiCommaRe.ReplaceAllString(adjusted, ",")
	adjusted = multiSpaceRe.ReplaceAllString(adjusted, " ")
	adjusted = strings.TrimSpace(adjusted)
	adjusted = strings.TrimSuffix(adjusted, ",")

	return adjusted
}

func keepWord(word string) bool {
	lower := punctuationRe.ReplaceAllString(strings.ToLower(word), "")
	if len(lower) <= 3 {
		return true
	}
	if strings.Contains(ReferencePhrase, lower) {
		return true
	}
	for _, sceneWord := range sceneWords {
		if strings.Contains(lower, sceneWord) {
			return true
		}
	}
	return false
}
