package xmltv

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

var ErrNoRootElement = errors.New("document has no root element")

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Run decodes a complete XMLTV document. Channels and programmes are returned
// in document order; any other top-level element is ignored. A document that
// is not well-formed fails as a whole.
func (p *Parser) Run(data []byte) (*TV, error) {
	return Parse(bytes.NewReader(data))
}

func Parse(r io.Reader) (*TV, error) {
	decoder := xml.NewDecoder(r)
	tv := &TV{}

	depth := 0
	seenRoot := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read XML token: %w", err)
		}

		switch el := token.(type) {
		case xml.StartElement:
			if depth == 0 {
				if seenRoot {
					return nil, fmt.Errorf("unexpected second root element <%s>", el.Name.Local)
				}
				seenRoot = true
				depth++
				continue
			}

			if depth == 1 {
				switch el.Name.Local {
				case "channel":
					var ch Channel
					if err := decoder.DecodeElement(&ch, &el); err != nil {
						return nil, fmt.Errorf("failed to decode channel: %w", err)
					}
					tv.Channels = append(tv.Channels, ch)
					continue
				case "programme":
					var prog Programme
					if err := decoder.DecodeElement(&prog, &el); err != nil {
						return nil, fmt.Errorf("failed to decode programme: %w", err)
					}
					tv.Programmes = append(tv.Programmes, prog)
					continue
				}
			}

			if err := decoder.Skip(); err != nil {
				return nil, fmt.Errorf("failed to skip <%s>: %w", el.Name.Local, err)
			}

		case xml.EndElement:
			depth--
		}
	}

	if !seenRoot {
		return nil, ErrNoRootElement
	}

	return tv, nil
}
