// Package hocr reads, writes and flattens hOCR, the HTML based format OCR
// engines use to report recognized text together with its position on the
// page.
//
// The package provides:
//
// - ExtractText: turns an hOCR byte stream into the plain text layer of a page
// - ParseHOCR: builds the typed model from hOCR HTML
// - GenerateHOCRDocument: renders the typed model back to hOCR HTML
//
// The model follows the hOCR hierarchy:
// Document → Pages → Areas → Paragraphs → Lines → Words. Elements whose parent
// is missing in the source (a line directly under a page, for example) are
// attached to an implicit parent so the hierarchy is always complete.
package hocr
