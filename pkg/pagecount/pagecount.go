// Package pagecount determines how many pages a PDF has.
//
// The fast path scans the raw file for page objects ("/Type /Page", but not
// the "/Type /Pages" tree nodes). Every revision of an incrementally updated
// file is scanned too. Only when the scan finds nothing, for example because
// the page dictionaries live in compressed object streams, is the document
// fully parsed and the page tree count used instead.
package pagecount

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	rpdf "rsc.io/pdf"
)

var pageObject = regexp.MustCompile(`(?m)/Type\s*/Page([^s]|$)`)

// Count returns the number of pages in the PDF at path.
func Count(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "read %s", path)
	}

	if n := Scan(data); n > 0 {
		return n, nil
	}
	return parseCount(path)
}

// Scan counts page object markers in raw PDF bytes.
func Scan(data []byte) int {
	return len(pageObject.FindAllIndex(data, -1))
}

// parseCount opens the document with a full parser and reads the page tree.
func parseCount(path string) (n int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, eris.Wrapf(err, "stat %s", path)
	}

	// The parser reports some malformed input by panicking.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, eris.Errorf("parse %s: %v", path, r)
		}
	}()

	doc, err := rpdf.NewReader(f, info.Size())
	if err != nil {
		return 0, eris.Wrapf(err, "parse %s", path)
	}
	return doc.NumPage(), nil
}
