package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/model"
)

// Translator resolves a key into a localized message. Implementations may
// support positional params (printf style or ICU, their choice).
type Translator interface {
	Translate(locale, key string, params ...any) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(locale, key string, params ...any) (string, error)

// Translate implements Translator.
func (f TranslatorFunc) Translate(locale, key string, params ...any) (string, error) {
	return f(locale, key, params...)
}

// MissingTranslationHandler decides what string to render when a key cannot
// be translated. Params carry whatever the call site had, including a
// {"default": fallback} map for metadata-driven hints.
type MissingTranslationHandler func(locale, key string, params []any, err error) string

// ErrMissingTranslator reports that localization was requested without a
// Translator configured.
var ErrMissingTranslator = errors.New("render: translator is not configured")

const (
	cardTitleKeyHint    = "titleKey"
	cardSubtitleKeyHint = "subtitleKey"
	sectionTitleKeyHint = "titleKey"

	actionKeyPrefix = "action."
	actionKeySuffix = ".labelKey"
)

// LocalizeCardModel mutates the supplied card model in place, translating
// any configured `*Key` hints into their localized string values:
//
//   - Meta["titleKey"] and Meta["subtitleKey"] localize the card header.
//   - section Metadata["titleKey"] localizes that section's title.
//   - Meta["action.<id>.labelKey"] localizes the label of the action with
//     the matching ID.
//
// This is best-effort: missing keys are routed through opts.OnMissing and
// the existing strings serve as fallbacks.
func LocalizeCardModel(card *model.CardModel, opts RenderOptions) {
	if card == nil {
		return
	}

	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	if key := strings.TrimSpace(card.Meta[cardTitleKeyHint]); key != "" {
		card.Title = translate(opts.Locale, key, strings.TrimSpace(card.Title), opts.Translator, onMissing)
	}
	if key := strings.TrimSpace(card.Meta[cardSubtitleKeyHint]); key != "" {
		card.Subtitle = translate(opts.Locale, key, strings.TrimSpace(card.Subtitle), opts.Translator, onMissing)
	}

	for i := range card.Sections {
		section := &card.Sections[i]
		if key := strings.TrimSpace(section.Metadata[sectionTitleKeyHint]); key != "" {
			section.Title = translate(opts.Locale, key, strings.TrimSpace(section.Title), opts.Translator, onMissing)
		}
	}

	for i := range card.Actions {
		action := &card.Actions[i]
		if action.ID == "" {
			continue
		}
		hint := actionKeyPrefix + action.ID + actionKeySuffix
		if key := strings.TrimSpace(card.Meta[hint]); key != "" {
			action.Label = translate(opts.Locale, key, strings.TrimSpace(action.Label), opts.Translator, onMissing)
		}
	}
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	if t == nil {
		if onMissing != nil {
			return onMissing(locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
		}
		if strings.TrimSpace(fallback) != "" {
			return fallback
		}
		return key
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}

	if onMissing != nil {
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

// missingTranslationDefault prefers the supplied fallback, then the key
// itself, so untranslated cards stay readable.
func missingTranslationDefault(_ string, key string, params []any, _ error) string {
	for _, param := range params {
		if values, ok := param.(map[string]any); ok {
			if fallback, ok := values["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}
