package steam

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched HTML page, kept both raw and parsed.
type Page struct {
	Raw string
	Doc *goquery.Document
}

// NewPage parses an HTML body.
func NewPage(body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &Page{Raw: string(body), Doc: doc}, nil
}

// Parser is one extraction strategy. Parse reports false when it finds nothing.
type Parser[T any] struct {
	Name  string
	Parse func(page *Page) (T, bool)
}

// ParserChain tries its strategies in order and keeps the first result.
type ParserChain[T any] []Parser[T]

// Run returns the first successful result and the name of the strategy that produced it.
func (c ParserChain[T]) Run(page *Page) (T, string, bool) {
	for _, p := range c {
		if v, ok := p.Parse(page); ok {
			return v, p.Name, true
		}
	}
	var zero T
	return zero, "", false
}
