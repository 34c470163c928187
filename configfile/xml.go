package configfile

import (
	"encoding/xml"
	"fmt"

	"github.com/clbanning/mxj/v2"
)

// decodeXML keeps the root element as the single top-level key. Attributes
// appear as "-name" keys and mixed text as "#text", numbers and booleans
// are cast from their text.
func decodeXML(data []byte) (any, error) {
	m, err := mxj.NewMapXml(data, true)
	if err != nil {
		return nil, err
	}
	return integralFloats(normalize(map[string]any(m))), nil
}

// encodeXML requires a tree with exactly one top-level key, the root
// element.
func encodeXML(t map[string]any) ([]byte, error) {
	if len(t) != 1 {
		return nil, fmt.Errorf("%w: an XML document needs exactly one root element, got %d top-level keys", ErrUnsupportedValue, len(t))
	}
	out, err := mxj.Map(t).XmlIndent("", "    ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
