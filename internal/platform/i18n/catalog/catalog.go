// Package catalog loads and serves embedded localization catalogs.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

const (
	// BaseLocale is the canonical source locale for catalogs.
	BaseLocale = "en-US"
)

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// LocaleCatalog stores all messages for one locale, grouped by namespace.
type LocaleCatalog struct {
	Locale     string
	Namespaces map[string]map[string]string
	Messages   map[string]string
}

// Bundle contains all locale catalogs loaded from disk.
type Bundle struct {
	locales map[string]*LocaleCatalog
}

//go:embed locales/*/*.yaml
var embeddedCatalogFS embed.FS

var defaultBundle = mustLoadAndRegisterEmbedded()

// Default returns the process-wide embedded catalog bundle.
func Default() *Bundle {
	return defaultBundle
}

// LoadEmbedded loads catalog files embedded in this package.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedCatalogFS)
}

// LoadFromFS loads catalog files from the provided filesystem.
func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{locales: map[string]*LocaleCatalog{}}

	for _, path := range paths {
		data, err := fs.ReadFile(catalogFS, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var parsed catalogFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if err := bundle.addFile(path, parsed); err != nil {
			return nil, err
		}
	}

	if !bundle.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	return bundle, nil
}

func (b *Bundle) addFile(path string, file catalogFile) error {
	localeFromPath := filepath.Base(filepath.Dir(path))
	namespaceFromPath := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", path)
	}
	if locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", path, locale, localeFromPath)
	}

	namespace := strings.TrimSpace(file.Namespace)
	if namespace == "" {
		return fmt.Errorf("catalog %s: namespace is required", path)
	}
	if namespace != namespaceFromPath {
		return fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", path, namespace, namespaceFromPath)
	}

	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages map is required", path)
	}

	localeCatalog, ok := b.locales[locale]
	if !ok {
		localeCatalog = &LocaleCatalog{
			Locale:     locale,
			Namespaces: map[string]map[string]string{},
			Messages:   map[string]string{},
		}
		b.locales[locale] = localeCatalog
	}
	if _, exists := localeCatalog.Namespaces[namespace]; exists {
		return fmt.Errorf("catalog %s: namespace %q already defined for locale %q", path, namespace, locale)
	}

	namespaceMessages := make(map[string]string, len(file.Messages))
	for key, value := range file.Messages {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", path)
		}
		if _, exists := localeCatalog.Messages[trimmedKey]; exists {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", path, trimmedKey, locale)
		}

		localeCatalog.Messages[trimmedKey] = value
		namespaceMessages[trimmedKey] = value
	}

	localeCatalog.Namespaces[namespace] = namespaceMessages
	return nil
}

// Register registers all catalog messages with x/text/message.
func (b *Bundle) Register() error {
	if b == nil {
		return nil
	}
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		tags := []language.Tag{tag}
		if base, _ := tag.Base(); base.String() != "" && base.String() != "und" {
			baseTag, err := language.Parse(base.String())
			if err == nil && baseTag.String() != tag.String() {
				tags = append(tags, baseTag)
			}
		}
		messages := b.LocaleMessages(locale)
		keys := make([]string, 0, len(messages))
		for key := range messages {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			for _, registerTag := range tags {
				message.SetString(registerTag, key, messages[key])
			}
		}
	}
	return nil
}

// HasLocale reports whether the locale exists in this bundle.
func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales returns all available locale identifiers.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.locales))
	for locale := range b.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// LocaleMessages returns an exact locale message map copy.
func (b *Bundle) LocaleMessages(locale string) map[string]string {
	if b == nil {
		return map[string]string{}
	}
	localeCatalog, ok := b.locales[strings.TrimSpace(locale)]
	if !ok || localeCatalog == nil {
		return map[string]string{}
	}
	return copyMap(localeCatalog.Messages)
}

// Message returns one message value with base-locale fallback.
func (b *Bundle) Message(locale string, key string) (string, bool) {
	if b == nil {
		return "", false
	}
	trimmedLocale := strings.TrimSpace(locale)
	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", false
	}
	if localeCatalog, ok := b.locales[trimmedLocale]; ok && localeCatalog != nil {
		if value, exists := localeCatalog.Messages[trimmedKey]; exists {
			return value, true
		}
	}
	if trimmedLocale != BaseLocale {
		if localeCatalog, ok := b.locales[BaseLocale]; ok && localeCatalog != nil {
			value, exists := localeCatalog.Messages[trimmedKey]
			return value, exists
		}
	}
	return "", false
}

// NamespaceMessages returns an exact namespace message map copy for a locale.
func (b *Bundle) NamespaceMessages(locale string, namespace string) map[string]string {
	if b == nil {
		return map[string]string{}
	}
	localeCatalog, ok := b.locales[strings.TrimSpace(locale)]
	if !ok || localeCatalog == nil {
		return map[string]string{}
	}
	messages, ok := localeCatalog.Namespaces[strings.TrimSpace(namespace)]
	if !ok {
		return map[string]string{}
	}
	return copyMap(messages)
}

// NamespaceMessagesWithFallback returns namespace messages and the locale that satisfied the lookup.
func (b *Bundle) NamespaceMessagesWithFallback(locale string, namespace string) (string, map[string]string) {
	trimmedLocale := strings.TrimSpace(locale)
	trimmedNamespace := strings.TrimSpace(namespace)
	if messages := b.NamespaceMessages(trimmedLocale, trimmedNamespace); len(messages) > 0 {
		return trimmedLocale, messages
	}
	return BaseLocale, b.NamespaceMessages(BaseLocale, trimmedNamespace)
}

func copyMap(source map[string]string) map[string]string {
	out := make(map[string]string, len(source))
	for key, value := range source {
		out[key] = value
	}
	return out
}

func mustLoadAndRegisterEmbedded() *Bundle {
	bundle, err := LoadEmbedded()
	if err != nil {
		panic(err)
	}
	if err := bundle.Register(); err != nil {
		panic(err)
	}
	return bundle
}
