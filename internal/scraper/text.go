package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gen2brain/go-fitz"
)

var (
	// \w is ASCII only in RE2, curricula are mostly Cyrillic.
	hyphenBreakRegex = regexp.MustCompile(`([\p{L}\p{N}_])-\n([\p{L}\p{N}_])`)
	blankLinesRegex  = regexp.MustCompile(`\n{3,}`)
)

// Elements whose contents never reach the extracted page text.
var strippedTags = "script, style, header, footer"

// CollapseBlankLines replaces runs of three or more newlines with a single
// empty line.
func CollapseBlankLines(text string) string {
	return blankLinesRegex.ReplaceAllString(text, "\n\n")
}

// JoinHyphenation glues words split across lines with a trailing hyphen.
func JoinHyphenation(text string) string {
	return hyphenBreakRegex.ReplaceAllString(text, "$1$2")
}

// CleanPlanText normalizes text extracted from a curriculum PDF.
func CleanPlanText(text string) string {
	return strings.TrimSpace(CollapseBlankLines(JoinHyphenation(text)))
}

// ExtractPageText returns the visible text of an HTML page, one text node per
// line, with navigation chrome and scripts removed.
func ExtractPageText(page io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", fmt.Errorf("error parsing html: %w", err)
	}

	doc.Find(strippedTags).Remove()

	var lines []string
	collectText(doc.Selection, &lines)

	return CollapseBlankLines(strings.Join(lines, "\n")), nil
}

func collectText(sel *goquery.Selection, lines *[]string) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "#text":
			if text := strings.TrimSpace(node.Text()); text != "" {
				*lines = append(*lines, text)
			}
		case "#comment":
		default:
			collectText(node, lines)
		}
	})
}

// ExtractPDFText concatenates the text of every page of a PDF document.
func ExtractPDFText(contents []byte) (string, error) {
	doc, err := fitz.NewFromMemory(contents)
	if err != nil {
		return "", fmt.Errorf("error opening pdf: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("error extracting text from page %d: %w", i, err)
		}
		b.WriteString(pageText)
	}

	return b.String(), nil
}
