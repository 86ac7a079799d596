// Package i18n renders localized error messages from the errors namespace
// of the embedded message catalogs.
package i18n

import (
	"bytes"
	"sync"
	"text/template"

	i18ncatalog "github.com/louisbranch/diceroller/internal/platform/i18n/catalog"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

const namespace = "errors"

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale    string
	templates map[Code]*template.Template
	raw       map[Code]string
}

var (
	catalogsMu sync.RWMutex
	// catalogs caches built catalogs by resolved locale.
	catalogs = map[string]*Catalog{}
)

// GetCatalog returns the catalog best matching an Accept-Language style
// preference. Unknown or empty preferences resolve to en-US.
func GetCatalog(preference string) *Catalog {
	locale, messages := i18ncatalog.Default().NamespaceMessagesWithFallback(preference, namespace)

	catalogsMu.RLock()
	cached, ok := catalogs[locale]
	catalogsMu.RUnlock()
	if ok {
		return cached
	}

	built := NewCatalog(locale, messages)
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if existing, ok := catalogs[locale]; ok {
		return existing
	}
	catalogs[locale] = built
	return built
}

// NewCatalog creates a catalog for locale. Templates that fail to parse are
// kept as literal text.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	c := &Catalog{
		locale:    locale,
		templates: make(map[Code]*template.Template, len(messages)),
		raw:       make(map[Code]string, len(messages)),
	}
	for code, text := range messages {
		c.raw[code] = text
		if tmpl, err := template.New(code).Option("missingkey=zero").Parse(text); err == nil {
			c.templates[code] = tmpl
		}
	}
	return c
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template for code with metadata. It falls
// back to the raw template text when rendering fails, and to the code
// itself when no message exists.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	text, ok := c.raw[code]
	if !ok {
		return code
	}
	tmpl, ok := c.templates[code]
	if !ok {
		return text
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, metadata); err != nil {
		return text
	}
	return buf.String()
}
