package xmltv

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleGuide = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE tv SYSTEM "xmltv.dtd">
<tv generator-info-name="upstream">
  <channel id="lrt.lt">
    <display-name lang="lt">LRT Televizija</display-name>
    <icon src="https://example.com/lrt.png"/>
  </channel>
  <channel id="tv3.lt">
    <display-name>TV3</display-name>
  </channel>
  <programme start="20251114060000 +0200" stop="20251114070000 +0200" channel="lrt.lt" catchup-id="42">
    <title lang="lt">Labas rytas</title>
    <title lang="en">Good Morning</title>
    <desc lang="lt">Rytinė laida</desc>
    <category lang="en">News</category>
    <episode-num system="xmltv_ns">1.2.</episode-num>
  </programme>
  <programme start="20251114070000 +0200" stop="20251114080000 +0200" channel="tv3.lt">
    <title>Žinios</title>
  </programme>
</tv>`

func TestParseGuide(t *testing.T) {
	tv, err := NewParser().Run([]byte(sampleGuide))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(tv.Channels) != 2 {
		t.Fatalf("Expected 2 channels, got: %d", len(tv.Channels))
	}
	if tv.Channels[0].ID != "lrt.lt" {
		t.Errorf("Expected first channel 'lrt.lt', got: %s", tv.Channels[0].ID)
	}
	if !strings.Contains(tv.Channels[0].Inner, `<icon src="https://example.com/lrt.png"/>`) {
		t.Errorf("Expected channel inner XML to be kept verbatim, got: %s", tv.Channels[0].Inner)
	}

	if len(tv.Programmes) != 2 {
		t.Fatalf("Expected 2 programmes, got: %d", len(tv.Programmes))
	}

	p := tv.Programmes[0]
	if p.Channel != "lrt.lt" || p.Start != "20251114060000 +0200" || p.Stop != "20251114070000 +0200" {
		t.Errorf("Unexpected programme identity: %s %s %s", p.Channel, p.Start, p.Stop)
	}
	if len(p.Title) != 2 || p.Title[0].Lang != "lt" || p.Title[1].Value != "Good Morning" {
		t.Errorf("Unexpected titles: %+v", p.Title)
	}
	if len(p.SubTitle) != 0 {
		t.Errorf("Expected no sub-titles, got: %+v", p.SubTitle)
	}
	if len(p.Desc) != 1 || p.Desc[0].Value != "Rytinė laida" {
		t.Errorf("Unexpected desc: %+v", p.Desc)
	}
	if len(p.Extra) != 2 || p.Extra[0].XMLName.Local != "category" || p.Extra[1].XMLName.Local != "episode-num" {
		t.Errorf("Expected category and episode-num to be kept, got: %+v", p.Extra)
	}
	if len(p.Attrs) != 1 || p.Attrs[0].Name.Local != "catchup-id" || p.Attrs[0].Value != "42" {
		t.Errorf("Expected extra attribute catchup-id to be kept, got: %+v", p.Attrs)
	}
}

func TestParseInvalidGuide(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "unclosed element", input: "<tv><channel id=\"a\">", wantErr: true},
		{name: "empty input", input: "", wantErr: true},
		{name: "not xml", input: "plain text", wantErr: true},
		{name: "empty guide", input: `<?xml version="1.0"?><tv></tv>`, wantErr: false},
		{name: "self-closing root", input: `<tv/>`, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriterRoundTripKeepsPassthroughContent(t *testing.T) {
	tv, err := Parse(strings.NewReader(sampleGuide))
	if err != nil {
		t.Fatal(err)
	}

	out, err := NewWriter("EPG Comb/test").Run(tv)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	doc := string(out)

	if !strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("Output should start with XML declaration")
	}
	if strings.Contains(doc, "upstream") {
		t.Error("Source root attributes should not be carried over")
	}
	if !strings.Contains(doc, `<tv generator-info-name="EPG Comb/test">`) {
		t.Error("Output root should carry the configured generator name")
	}
	for _, want := range []string{
		`<channel id="lrt.lt">`,
		`<icon src="https://example.com/lrt.png"/>`,
		`catchup-id="42"`,
		`<title lang="lt">Labas rytas</title>`,
		`<episode-num system="xmltv_ns">1.2.</episode-num>`,
		`<title>Žinios</title>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Output should contain %q\n%s", want, doc)
		}
	}

	again, err := Parse(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Output should parse again, got: %v", err)
	}
	if len(again.Channels) != 2 || len(again.Programmes) != 2 {
		t.Errorf("Expected 2 channels and 2 programmes after re-parse, got %d and %d", len(again.Channels), len(again.Programmes))
	}
}

func TestWriterSetsGeneratorName(t *testing.T) {
	out, err := NewWriter("EPG Comb/test").Run(&TV{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `<tv generator-info-name="EPG Comb/test">`) {
		t.Errorf("Expected generator name on root, got: %s", out)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte("<tv></tv>\n")

	plain := filepath.Join(dir, "epg.xml")
	if err := WriteFile(plain, data); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	got, err := os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Expected %q, got %q", data, got)
	}

	compressed := filepath.Join(dir, "nested", "epg.xml.gz")
	if err := WriteFile(compressed, data); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	f, err := os.Open(compressed)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("Expected gzip output, got: %v", err)
	}
	unpacked, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(unpacked, data) {
		t.Errorf("Expected %q after gunzip, got %q", data, unpacked)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected temp files to be cleaned up, found %d entries", len(entries))
	}
}
