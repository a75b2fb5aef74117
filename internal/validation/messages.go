package validation

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const summaryKey = "validation.summary"

func init() {
	lang := language.English

	message.Set(lang, summaryKey, plural.Selectf(1, "%d",
		"=1", "%[1]d error prohibited this %[2]s from being saved",
		"other", "%[1]d errors prohibited this %[2]s from being saved",
	))
}
