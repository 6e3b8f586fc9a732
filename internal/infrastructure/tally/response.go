package tally

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/tallybridge/backend/internal/domain/master"
)

// newLenientDecoder builds a decoder that survives the liberties Tally
// takes with XML: undeclared entities, stray control characters, missing
// prolog. Strict parsing would reject many real gateway responses.
func newLenientDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	return dec
}

// parseCollectionNames walks an Export/Collection response and returns the
// name and parent of every element matching the kind's element name. Names
// arrive either as a NAME attribute or a direct NAME child depending on the
// master class; both are honored, attribute first.
func parseCollectionNames(data []byte, element string) ([]master.NameRecord, error) {
	dec := newLenientDecoder(data)
	var records []master.NameRecord
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("parse collection response: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, element) {
			continue
		}
		rec, err := readNameRecord(dec, start)
		if err != nil {
			return records, err
		}
		if rec.Name != "" {
			records = append(records, rec)
		}
	}
}

// readNameRecord consumes one master element and pulls its name and parent.
// Only direct children count: LANGUAGENAME.LIST nests NAME elements that
// must not shadow the master's own.
func readNameRecord(dec *xml.Decoder, start xml.StartElement) (master.NameRecord, error) {
	var rec master.NameRecord
	for _, attr := range start.Attr {
		if strings.EqualFold(attr.Name.Local, "NAME") {
			rec.Name = strings.TrimSpace(attr.Value)
		}
	}

	depth := 1
	var field string
	var text strings.Builder
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return rec, fmt.Errorf("parse %s element: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 {
				field = strings.ToUpper(t.Name.Local)
				text.Reset()
			}
		case xml.EndElement:
			depth--
			if depth == 1 {
				value := strings.TrimSpace(text.String())
				switch {
				case field == "NAME" && rec.Name == "" && value != "":
					rec.Name = value
				case field == "PARENT" && rec.Parent == "" && value != "":
					rec.Parent = value
				}
				field = ""
			}
		case xml.CharData:
			if depth == 2 && field != "" {
				text.Write(t)
			}
		}
	}
	return rec, nil
}

// findElementText returns the trimmed text of the first element with the
// given name, searched case-insensitively at any depth.
func findElementText(data []byte, name string) (string, bool) {
	dec := newLenientDecoder(data)
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, name) {
			continue
		}
		var text strings.Builder
		depth := 1
		for depth > 0 {
			tok, err := dec.Token()
			if err != nil {
				return "", false
			}
			switch t := tok.(type) {
			case xml.StartElement:
				depth++
			case xml.EndElement:
				depth--
			case xml.CharData:
				if depth == 1 {
					text.Write(t)
				}
			}
		}
		return strings.TrimSpace(text.String()), true
	}
}

// findCompanyName pulls the active company out of a Company collection
// export: the NAME inside a COMPANY element when present, otherwise the
// first NAME anywhere.
func findCompanyName(data []byte) (string, bool) {
	dec := newLenientDecoder(data)
	inCompany := 0
	firstName := ""
	var capture *strings.Builder
	captureDepth := 0
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if strings.EqualFold(t.Name.Local, "COMPANY") {
				inCompany++
			}
			if strings.EqualFold(t.Name.Local, "NAME") && capture == nil {
				capture = &strings.Builder{}
				captureDepth = depth
			}
		case xml.EndElement:
			if capture != nil && depth == captureDepth {
				name := strings.TrimSpace(capture.String())
				capture = nil
				if name != "" {
					if inCompany > 0 {
						return name, true
					}
					if firstName == "" {
						firstName = name
					}
				}
			}
			if strings.EqualFold(t.Name.Local, "COMPANY") {
				inCompany--
			}
			depth--
		case xml.CharData:
			if capture != nil && depth == captureDepth {
				capture.Write(t)
			}
		}
	}
	return firstName, firstName != ""
}

// extractVoucherNumber pulls the VOUCHERNUMBER Tally echoes back after a
// voucher import. Substring extraction on purpose: import replies are often
// not well-formed enough for a parser.
func extractVoucherNumber(body string) string {
	const open, close = "<VOUCHERNUMBER>", "</VOUCHERNUMBER>"
	start := strings.Index(body, open)
	if start < 0 {
		return ""
	}
	rest := body[start+len(open):]
	end := strings.Index(rest, close)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
