package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embedded embed.FS

// Message ids of the embedded locales.
const (
	MsgImpactChildGroups = "ImpactChildGroups"
	MsgImpactValues      = "ImpactValues"
	MsgImpactAssignments = "ImpactAssignments"
)

type localeKey struct{}

var (
	mu     sync.RWMutex
	bundle *goi18n.Bundle
)

// Init builds the message bundle from the embedded locales. It is safe to
// call more than once; Localize calls it lazily.
func Init() {
	b := goi18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, name := range []string{"locales/active.en.json", "locales/active.ru.json"} {
		if _, err := b.LoadMessageFileFS(embedded, name); err != nil {
			panic("i18n: embedded locale " + name + ": " + err.Error())
		}
	}
	mu.Lock()
	bundle = b
	mu.Unlock()
}

// Load adds messages from a file on disk, overriding embedded ones.
func Load(path string) error {
	b := current()
	mu.Lock()
	defer mu.Unlock()
	_, err := b.LoadMessageFile(path)
	return err
}

func current() *goi18n.Bundle {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b == nil {
		Init()
		mu.RLock()
		b = bundle
		mu.RUnlock()
	}
	return b
}

// WithLocale stores an Accept-Language style value in ctx.
func WithLocale(ctx context.Context, acceptLanguage string) context.Context {
	if acceptLanguage == "" {
		return ctx
	}
	return context.WithValue(ctx, localeKey{}, acceptLanguage)
}

func LocaleFrom(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey{}).(string); ok {
		return v
	}
	return ""
}

// Localize renders messageID for the locale in ctx, pluralised by count.
// Missing translations fall back to English, then to the message id.
func Localize(ctx context.Context, messageID string, count int, data map[string]any) string {
	b := current()
	td := map[string]any{"Count": count}
	for k, v := range data {
		td[k] = v
	}

	mu.RLock()
	defer mu.RUnlock()
	loc := goi18n.NewLocalizer(b, LocaleFrom(ctx), language.English.String())
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: td,
		PluralCount:  count,
	})
	if err != nil {
		return messageID
	}
	return msg
}
