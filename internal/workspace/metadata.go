package workspace

import "strings"

// Metadata is the per-language record used to fill the tutor template:
// the native script name, the romanization scheme label, and free-text
// teaching notes.
type Metadata struct {
	NativeScript string
	Romanization string
	Notes        string
}

// metadataTable maps canonical (lower-cased) language names to their
// metadata. Unlisted languages fall back to defaultMetadata.
var metadataTable = map[string]Metadata{
	"chinese": {
		NativeScript: "汉字",
		Romanization: "pinyin",
		Notes: `## Chinese-Specific Considerations

- **Tones**: Pay attention to tone usage in learner's pinyin (if provided)
- **Characters vs Pinyin**: Track if learner uses characters or pinyin
- **Measure words (量词)**: Track these as grammar constructs
- **Common structures**: 是...的, 把-sentences, 被-passive, 了/过/着 aspects
- **Cold start**: Use "👋 你好 (nǐ hǎo)" - one word with emoji and pinyin`,
	},
	"korean": {
		NativeScript: "한글",
		Romanization: "none",
		Notes: `## Korean-Specific Considerations

- **Politeness levels**: Track which speech levels the learner knows (합쇼체, 해요체, 해체, etc.)
- **Particles**: Track particles (은/는, 이/가, 을/를, etc.) as grammar
- **Verb conjugation**: Track tense and politeness conjugation patterns
- **Honorifics**: Note when learner uses/should use honorific forms
- **Cold start**: Use "👋 안녕 (annyeong)" - one word with emoji and romanization`,
	},
	"japanese": {
		NativeScript: "日本語",
		Romanization: "romaji",
		Notes: `## Japanese-Specific Considerations

- **Politeness levels**: Track です/ます vs casual forms
- **Particles**: Track particles (は, が, を, に, で, etc.) as grammar
- **Verb groups**: Note which verb conjugation patterns learner knows
- **Kanji vs Kana**: Track which kanji the learner knows
- **Cold start**: Use "👋 こんにちは (konnichiwa)" - one word with emoji and romaji`,
	},
	"spanish": {
		NativeScript: "Español",
		Romanization: "none",
		Notes: `## Spanish-Specific Considerations

- **Verb conjugation**: Track which tenses and moods learner knows
- **Ser vs Estar**: Track as separate grammar constructs
- **Subjunctive**: Introduce gradually, it's complex
- **Gender agreement**: Track as grammar construct
- **Cold start**: Use "👋 Hola" - one word with emoji`,
	},
	"french": {
		NativeScript: "Français",
		Romanization: "none",
		Notes: `## French-Specific Considerations

- **Verb conjugation**: Track which tenses and moods learner knows
- **Gender and articles**: Track as grammar constructs
- **Liaisons**: Note pronunciation patterns
- **Formal vs informal (tu/vous)**: Track which the learner uses
- **Cold start**: Use "👋 Bonjour" - one word with emoji`,
	},
	"german": {
		NativeScript: "Deutsch",
		Romanization: "none",
		Notes: `## German-Specific Considerations

- **Cases**: Track nominative, accusative, dative, genitive separately
- **Verb position**: Track V2 rule, subordinate clause order
- **Gender and articles**: Track der/die/das patterns
- **Formal vs informal (Sie/du)**: Track which the learner uses
- **Cold start**: Use "👋 Hallo" - one word with emoji`,
	},
}

var defaultMetadata = Metadata{
	NativeScript: "Native Script",
	Romanization: "none",
	Notes: `## Language-Specific Considerations

- Research and add language-specific grammar patterns as you encounter them
- Pay attention to any unique features of this language
- Adapt greeting and teaching style to cultural norms
- Start with the simplest possible greeting and self-introduction`,
}

// MetadataFor looks up the metadata record for a language, falling back
// to the generic default for unrecognized languages. "mandarin" is an
// alias of "chinese".
func MetadataFor(language string) Metadata {
	key := strings.ToLower(language)
	if key == "mandarin" {
		key = "chinese"
	}
	if m, ok := metadataTable[key]; ok {
		return m
	}
	return defaultMetadata
}
