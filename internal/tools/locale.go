package tools

import (
	"os"
	"strings"
	"sync"

	"github.com/jeandeaual/go-locale"
	"github.com/rs/zerolog/log"
)

// DefaultLocale is the locale IDTFConverter needs to parse "1.5" as a number.
const DefaultLocale = "en_US.UTF-8"

var localeOnce sync.Once

// LocaleEnv returns the LC_ALL/LANG entries for converter processes. An
// explicit value replaces whatever the process inherited. An empty value
// fills in DefaultLocale only where a variable is unset or names a
// decimal-comma locale.
func LocaleEnv(value string) []string {
	localeOnce.Do(logHostLocale)
	value = strings.TrimSpace(value)

	var env []string
	for _, key := range []string{"LC_ALL", "LANG"} {
		inherited := strings.TrimSpace(os.Getenv(key))
		switch {
		case value != "":
			env = append(env, key+"="+value)
		case inherited == "" || usesDecimalComma(inherited):
			env = append(env, key+"="+DefaultLocale)
		}
	}
	if len(env) > 0 {
		log.Debug().Strs("env", env).Msg("tools.locale pinned for converters")
	}
	return env
}

func logHostLocale() {
	host, err := locale.GetLocale()
	if err != nil {
		log.Debug().Err(err).Msg("tools.locale host locale unavailable")
		return
	}
	if usesDecimalComma(host) {
		log.Warn().Str("locale", host).Msg("tools.locale host uses decimal comma; set locale if converters misread numbers")
		return
	}
	log.Debug().Str("locale", host).Msg("tools.locale host locale")
}

// Languages whose default number format writes 1,5 instead of 1.5.
var decimalCommaLangs = map[string]struct{}{
	"de": {}, "fr": {}, "es": {}, "it": {}, "pt": {}, "nl": {}, "ru": {},
	"pl": {}, "cs": {}, "sv": {}, "da": {}, "fi": {}, "nb": {}, "tr": {},
}

func usesDecimalComma(tag string) bool {
	lang := strings.ToLower(tag)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	_, ok := decimalCommaLangs[lang]
	return ok
}
