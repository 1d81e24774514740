package eflyt

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"eflyt-phone-lookup/internal/models"
)

// gridRow is a 1-based position among all <tr> elements of a grid, in
// document order. It lines up with the XPath (//*[@id=grid]//tr)[n].
type gridRow int

func parseGrid(gridHTML string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(gridHTML))
	if err != nil {
		return nil, fmt.Errorf("parse grid html: %w", err)
	}
	return doc.Find("tr"), nil
}

// findPersonRow returns the row of the moving-persons grid whose ID link
// (second link in the second cell) matches nationalID after normalization.
// The header row is skipped.
func findPersonRow(gridHTML, nationalID string) (gridRow, bool, error) {
	rows, err := parseGrid(gridHTML)
	if err != nil {
		return 0, false, err
	}

	want := models.NormalizeNationalID(nationalID)
	var found gridRow
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true
		}
		link := row.ChildrenFiltered("td").Eq(1).ChildrenFiltered("a").Eq(1)
		if link.Length() == 0 {
			return true
		}
		if models.NormalizeNationalID(link.Text()) == want {
			found = gridRow(i + 1)
			return false
		}
		return true
	})
	return found, found > 0, nil
}

// findCaseRow returns the first search-result row with a cell equal to
// caseID and at least one link to follow.
func findCaseRow(gridHTML, caseID string) (gridRow, bool, error) {
	rows, err := parseGrid(gridHTML)
	if err != nil {
		return 0, false, err
	}

	want := strings.TrimSpace(caseID)
	var found gridRow
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 || row.Find("a").Length() == 0 {
			return true
		}
		row.ChildrenFiltered("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			if strings.TrimSpace(cell.Text()) == want {
				found = gridRow(i + 1)
				return false
			}
			return true
		})
		return found == 0
	})
	return found, found > 0, nil
}

func personLinkXPath(gridID string, row gridRow) string {
	return fmt.Sprintf("(//*[@id='%s']//tr)[%d]/td[2]/a[2]", gridID, row)
}

func caseLinkXPath(gridID string, row gridRow) string {
	return fmt.Sprintf("((//*[@id='%s']//tr)[%d]//a)[1]", gridID, row)
}
