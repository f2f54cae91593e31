package filter

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	textcatalog "golang.org/x/text/message/catalog"
)

const keyUnavailableInRegion = "Unavailable in %s"

var (
	supportedLanguages = []language.Tag{
		language.English,
		language.Japanese,
		language.TraditionalChinese,
	}
	languageMatcher = language.NewMatcher(supportedLanguages)
	labelCatalog    = newLabelCatalog()
)

func newLabelCatalog() *textcatalog.Builder {
	b := textcatalog.NewBuilder(textcatalog.Fallback(language.English))
	must(b.SetString(language.English, keyUnavailableInRegion, "Unavailable in %s"))
	must(b.SetString(language.Japanese, keyUnavailableInRegion, "%s版未収録"))
	must(b.SetString(language.TraditionalChinese, keyUnavailableInRegion, "%s版未收錄"))
	return b
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// MatchLanguage picks the supported display language closest to an Accept-Language value.
// An empty or unparsable value yields English.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := languageMatcher.Match(tags...)
	return supportedLanguages[idx]
}

func printer(lang language.Tag) *message.Printer {
	return message.NewPrinter(lang, message.Catalog(labelCatalog))
}
