// Package xmltv reads and writes XMLTV guide documents.
//
// Only the parts of the schema the merge needs are typed: channel ids,
// programme channel/start/stop and the title, sub-title and desc text
// elements. Everything else is carried through verbatim.
package xmltv

import (
	"encoding/xml"
)

// TimeLayout is the XMLTV timestamp layout: YYYYMMDDhhmmss ±hhmm
const TimeLayout = "20060102150405 -0700"

type TV struct {
	XMLName       xml.Name    `xml:"tv"`
	GeneratorName string      `xml:"generator-info-name,attr,omitempty"`
	GeneratorURL  string      `xml:"generator-info-url,attr,omitempty"`
	Channels      []Channel   `xml:"channel"`
	Programmes    []Programme `xml:"programme"`
}

// Channel keeps its descriptive children (display-name, icon, url...) as raw
// XML so they are written back exactly as the source provided them.
type Channel struct {
	ID    string     `xml:"id,attr"`
	Attrs []xml.Attr `xml:",any,attr"`
	Inner string     `xml:",innerxml"`
}

type Programme struct {
	Channel  string     `xml:"channel,attr"`
	Start    string     `xml:"start,attr"`
	Stop     string     `xml:"stop,attr"`
	Attrs    []xml.Attr `xml:",any,attr"`
	Title    []Text     `xml:"title"`
	SubTitle []Text     `xml:"sub-title"`
	Desc     []Text     `xml:"desc"`
	Extra    []Element  `xml:",any"`
}

// Text is a language-tagged text element such as <title lang="en">.
type Text struct {
	Lang  string `xml:"lang,attr,omitempty"`
	Value string `xml:",chardata"`
}

// Element is any programme child that is not one of the typed text fields.
type Element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// TextKind names one of the reconciled programme text fields.
type TextKind string

const (
	KindTitle    TextKind = "title"
	KindSubTitle TextKind = "sub-title"
	KindDesc     TextKind = "desc"
)

// TextKinds lists the reconciled fields in output order.
var TextKinds = []TextKind{KindTitle, KindSubTitle, KindDesc}

// Texts returns the programme's variants for kind.
func (p *Programme) Texts(kind TextKind) []Text {
	switch kind {
	case KindTitle:
		return p.Title
	case KindSubTitle:
		return p.SubTitle
	case KindDesc:
		return p.Desc
	default:
		return nil
	}
}

// SetTexts replaces the programme's variants for kind.
func (p *Programme) SetTexts(kind TextKind, texts []Text) {
	switch kind {
	case KindTitle:
		p.Title = texts
	case KindSubTitle:
		p.SubTitle = texts
	case KindDesc:
		p.Desc = texts
	}
}
