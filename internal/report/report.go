// Package report extracts budget entries from the HTML export of the
// budgeting tool.
//
// The export renders one table per category group. Each category ends with
// a "Total For <category>" row whose label cell has class total-label-cell
// and whose amount cell has class total-number-cell. The row just above the
// total carries the category code in its sixth cell, prefixed to a free-form
// description ("101 - Groceries"). The reporting period is announced in an
// h3 heading ("... From 04/01/2024 To 04/30/2024").
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"budgetsync/internal/core"
)

const (
	totalPrefix    = "Total For "
	grandTotal     = "Grand Total"
	codeCellIndex  = 5
	labelSelector  = ".total-label-cell"
	amountSelector = ".total-number-cell"
)

var (
	ErrNoMonth = errors.New("report period month not found")

	monthPattern = regexp.MustCompile(`From\s+(\d{2})`)
	codePattern  = regexp.MustCompile(`^\d*`)
)

// ParseFile opens path and parses it as a budget export.
func ParseFile(path string) (core.Report, error) {
	if strings.TrimSpace(path) == "" {
		return core.Report{}, core.ErrEmptyReportPath
	}
	f, err := os.Open(path)
	if err != nil {
		return core.Report{}, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a budget export and returns its month and per-category totals
// in document order. The grand total row is skipped.
func Parse(r io.Reader) (core.Report, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return core.Report{}, fmt.Errorf("parse html: %w", err)
	}

	month, err := parseMonth(doc)
	if err != nil {
		return core.Report{}, err
	}

	rep := core.Report{Month: month}
	var rowErr error
	doc.Find(labelSelector).Parent().EachWithBreak(func(_ int, row *goquery.Selection) bool {
		category := strings.TrimPrefix(strings.TrimSpace(row.Find(labelSelector).Text()), totalPrefix)
		if category == grandTotal {
			return true
		}
		spent, err := core.ParseAmount(row.Find(amountSelector).Text())
		if err != nil {
			rowErr = fmt.Errorf("category %q: %w", category, err)
			return false
		}
		rep.Entries = append(rep.Entries, core.BudgetEntry{
			Category: category,
			Code:     codeFromRow(row.Prev()),
			Spent:    spent,
		})
		return true
	})
	if rowErr != nil {
		return core.Report{}, rowErr
	}
	return rep, nil
}

func parseMonth(doc *goquery.Document) (int, error) {
	m := monthPattern.FindStringSubmatch(doc.Find("h3").Text())
	if m == nil {
		return 0, ErrNoMonth
	}
	month, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, ErrNoMonth
	}
	if err := core.ValidateMonth(month); err != nil {
		return 0, fmt.Errorf("report period: %w", err)
	}
	return month, nil
}

// codeFromRow returns the leading digits of the code cell, or "" when the
// row has no such cell or the cell does not start with a digit.
func codeFromRow(row *goquery.Selection) string {
	cell := strings.TrimSpace(row.Find("td").Eq(codeCellIndex).Text())
	return codePattern.FindString(cell)
}
