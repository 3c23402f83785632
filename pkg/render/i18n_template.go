package render

import (
	"fmt"
	"reflect"
	"strings"
)

// TemplateI18nConfig tunes the helpers returned by TemplateI18nFuncs.
type TemplateI18nConfig struct {
	// LocaleKey names the map key or struct field consulted when a helper
	// receives template data instead of a plain locale string. Defaults to
	// "locale".
	LocaleKey string
	// FuncName renames the translate helper. Defaults to "translate".
	FuncName string
	// OnMissing handles untranslatable keys. The default echoes the key.
	OnMissing MissingTranslationHandler
}

// TemplateI18nFuncs builds the translation helpers the HTML renderer feeds
// into its template engine. Theme partials call them as
//
//	{{ translate(locale, "card.export") }}
//	{{ current_locale(locale) }}
//
// where locale is either a locale string or any map/struct carrying one
// under cfg.LocaleKey. A nil Translator is allowed; every lookup then goes
// through the missing-translation handler, which keeps partials working
// before localization is set up.
func TemplateI18nFuncs(t Translator, cfg TemplateI18nConfig) map[string]any {
	localeKey := strings.TrimSpace(cfg.LocaleKey)
	if localeKey == "" {
		localeKey = "locale"
	}
	helperName := strings.TrimSpace(cfg.FuncName)
	if helperName == "" {
		helperName = "translate"
	}
	onMissing := cfg.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	translate := func(localeSrc any, key string, params ...any) string {
		key = strings.TrimSpace(key)
		if key == "" {
			return ""
		}
		locale := localeFrom(localeSrc, localeKey)
		if t == nil {
			return onMissing(locale, key, params, ErrMissingTranslator)
		}
		msg, err := t.Translate(locale, key, params...)
		if err != nil || strings.TrimSpace(msg) == "" {
			return onMissing(locale, key, params, err)
		}
		return msg
	}

	return map[string]any{
		helperName: translate,
		"current_locale": func(localeSrc any) string {
			return localeFrom(localeSrc, localeKey)
		},
	}
}

// localeFrom digs a locale string out of whatever the template handed over.
func localeFrom(src any, key string) string {
	switch v := src.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]string:
		return v[key]
	case map[string]any:
		entry, ok := v[key]
		if !ok {
			return ""
		}
		if s, ok := entry.(string); ok {
			return s
		}
		return strings.TrimSpace(fmt.Sprint(entry))
	}
	if key == "" {
		return ""
	}
	return localeFieldOf(reflect.ValueOf(src), key)
}

func localeFieldOf(value reflect.Value, key string) string {
	for value.IsValid() && value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return ""
		}
		value = value.Elem()
	}
	if !value.IsValid() {
		return ""
	}

	switch value.Kind() {
	case reflect.Struct:
		field := value.FieldByNameFunc(func(name string) bool { return name == key })
		if field.IsValid() && field.Kind() == reflect.String {
			return field.String()
		}
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return ""
		}
		entry := value.MapIndex(reflect.ValueOf(key))
		if entry.IsValid() && entry.Kind() == reflect.String {
			return entry.String()
		}
	}
	return ""
}
