package render

import "github.com/PuerkitoBio/goquery"

const (
	darkClass   = "dark"
	toggleInput = "#themeToggle"
)

// ApplyTheme marks the page root dark (or not) and syncs the toggle input.
func ApplyTheme(doc *goquery.Document, dark bool) {
	root := doc.Find("html")
	toggle := doc.Find(toggleInput)
	if dark {
		root.AddClass(darkClass)
		toggle.SetAttr("checked", "checked")
		return
	}
	root.RemoveClass(darkClass)
	toggle.RemoveAttr("checked")
}
