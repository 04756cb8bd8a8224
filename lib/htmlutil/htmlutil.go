package htmlutil

import (
	"github.com/PuerkitoBio/goquery"
)

// InputValue returns the value attribute of the first <input> matching
// the given name attribute, or "" when absent.
func InputValue(doc *goquery.Document, name string) string {
	return doc.Find("input[name='" + name + "']").First().AttrOr("value", "")
}
