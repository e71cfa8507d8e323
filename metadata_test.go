package signalzip

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seiflotfy/signalzip/entropy"
	"github.com/seiflotfy/signalzip/fingerprint"
)

const sampleText = "the quick brown fox jumps over the lazy dog the quick brown fox jumps again"

func TestMetadataRoundTrip(t *testing.T) {
	cases := map[string][]Option{
		"default":     nil,
		"distinct":    {WithDisambiguation(Distinct)},
		"phrases":     {WithDisambiguation(Distinct), WithPhraseDictionary(true)},
		"static":      {WithEntropyMode(entropy.Static), WithPhraseDictionary(true)},
		"char-class":  {WithFingerprintMode(fingerprint.CharClass), WithDisambiguation(Distinct)},
		"empty input": {WithPhraseDictionary(true)},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			text := sampleText
			if name == "empty input" {
				text = ""
			}
			a, err := Compress(text, opts...)
			if err != nil {
				t.Fatal(err)
			}
			doc, err := MarshalMetadata(a.Metadata)
			if err != nil {
				t.Fatal(err)
			}
			got, err := UnmarshalMetadata(doc)
			if err != nil {
				t.Fatalf("UnmarshalMetadata: %v\n%s", err, doc)
			}
			if diff := cmp.Diff(a.Metadata, got); diff != "" {
				t.Errorf("metadata mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMetadataDocumentKeys(t *testing.T) {
	a, err := Compress("go go go", WithDisambiguation(Distinct))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := MarshalMetadata(a.Metadata)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(doc, &raw); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"version": 1.0,
		"mode": map[string]any{
			"fingerprint":    "word-shape",
			"phrases":        false,
			"entropy":        "dynamic",
			"disambiguation": "distinct",
			"max_window":     8.0,
			"max_phrases":    256.0,
		},
		"reverse_map": map[string]any{"CVE#0": "go"},
		"code_table":  map[string]any{"CVE#0*3": "0"},
		"padding":     7.0,
		"token_count": 3.0,
		"checksum":    a.Metadata.Checksum,
	}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestMetadataMissingKeys(t *testing.T) {
	a, err := Compress(sampleText, WithDisambiguation(Distinct), WithPhraseDictionary(true))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := MarshalMetadata(a.Metadata)
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"version", "mode", "reverse_map", "code_table", "padding", "token_count", "phrases"} {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(doc, &raw); err != nil {
			t.Fatal(err)
		}
		delete(raw, key)
		stripped, err := json.Marshal(raw)
		if err != nil {
			t.Fatal(err)
		}
		_, err = UnmarshalMetadata(stripped)
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("without %q: expected ErrInvalidFormat, got %v", key, err)
		}
		if err != nil && !strings.Contains(err.Error(), key) {
			t.Errorf("without %q: error does not name the key: %v", key, err)
		}
	}
}

const validDoc = `{
  "version": 1,
  "mode": {"fingerprint": "word-shape", "phrases": false, "entropy": "dynamic", "disambiguation": "occurrence"},
  "reverse_map": {"CVO#0": "the"},
  "code_table": {"CVO#0": "0"},
  "padding": 7,
  "token_count": 1
}`

func TestMetadataRejectsMalformedDocuments(t *testing.T) {
	if _, err := UnmarshalMetadata([]byte(validDoc)); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}

	cases := map[string]struct{ old, new string }{
		"bad version":       {`"version": 1`, `"version": 2`},
		"null version":      {`"version": 1`, `"version": null`},
		"bad fingerprint":   {`"word-shape"`, `"letters"`},
		"bad entropy":       {`"dynamic"`, `"zip"`},
		"bad policy":        {`"occurrence"`, `"every"`},
		"bad element":       {`"code_table": {"CVO#0"`, `"code_table": {"BOGUS"`},
		"run of one":        {`"code_table": {"CVO#0"`, `"code_table": {"CVO#0*1"`},
		"bad codon":         {`"reverse_map": {"CVO#0"`, `"reverse_map": {"CVO#x"`},
		"non-string token":  {`"the"`, `3`},
		"reverse map array": {`{"CVO#0": "the"}`, `["the"]`},
		"negative count":    {`"token_count": 1`, `"token_count": -1`},
		"stray phrases":     {`"padding": 7`, `"padding": 7, "phrases": {}`},
		"not json":          {`"version": 1,`, `"version": 1`},
	}
	for name, tc := range cases {
		doc := strings.Replace(validDoc, tc.old, tc.new, 1)
		if doc == validDoc {
			t.Fatalf("%s: replacement did not apply", name)
		}
		if _, err := UnmarshalMetadata([]byte(doc)); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("%s: expected ErrInvalidFormat, got %v", name, err)
		}
	}
}

func TestMetadataPhraseKeys(t *testing.T) {
	base := strings.Replace(validDoc, `"phrases": false`, `"phrases": true`, 1)

	good := strings.Replace(base, `"padding": 7`, `"padding": 7, "phrases": {"I0": ["CVO#0", "CVO#0"]}`, 1)
	md, err := UnmarshalMetadata([]byte(good))
	if err != nil {
		t.Fatalf("valid phrases rejected: %v", err)
	}
	want := [][]Codon{{{Symbol: "CVO", N: 0}, {Symbol: "CVO", N: 0}}}
	if diff := cmp.Diff(want, md.Phrases); diff != "" {
		t.Errorf("phrases mismatch (-want +got):\n%s", diff)
	}

	for _, phrases := range []string{
		`{"I1": ["CVO#0", "CVO#0"]}`,
		`{"I0": null}`,
		`{"P0": ["CVO#0", "CVO#0"]}`,
		`{"I0": ["CVO"]}`,
	} {
		doc := strings.Replace(base, `"padding": 7`, `"padding": 7, "phrases": `+phrases, 1)
		if _, err := UnmarshalMetadata([]byte(doc)); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("phrases %s: expected ErrInvalidFormat, got %v", phrases, err)
		}
	}
}

func TestMetadataDuplicateReverseMapKey(t *testing.T) {
	doc := strings.Replace(validDoc, `{"CVO#0": "the"}`, `{"CVO#0": "the", "CVO#0": "tho"}`, 1)
	_, err := UnmarshalMetadata([]byte(doc))
	if !errors.Is(err, ErrCollision) {
		t.Errorf("expected ErrCollision, got %v", err)
	}
}

func TestMarshalNilMetadata(t *testing.T) {
	if _, err := MarshalMetadata(nil); err == nil {
		t.Error("expected an error for nil metadata")
	}
}

func TestMetadataRejectsInvalidUTF8(t *testing.T) {
	doc := strings.Replace(validDoc, `"the"`, "\"th\xe9\"", 1)
	if _, err := UnmarshalMetadata([]byte(doc)); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestMetadataDuplicateKeys(t *testing.T) {
	cases := map[string]struct{ old, new string }{
		"top-level reverse_map": {`"padding": 7`, `"padding": 7, "reverse_map": {"CVO#0": "tho"}`},
		"top-level padding":     {`"padding": 7`, `"padding": 7, "padding": 3`},
		"mode key":              {`"entropy": "dynamic"`, `"entropy": "dynamic", "entropy": "static"`},
		"code table key":        {`"code_table": {"CVO#0": "0"}`, `"code_table": {"CVO#0": "0", "CVO#0": "1"}`},
	}
	for name, tc := range cases {
		doc := strings.Replace(validDoc, tc.old, tc.new, 1)
		if doc == validDoc {
			t.Fatalf("%s: replacement did not apply", name)
		}
		_, err := UnmarshalMetadata([]byte(doc))
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("%s: expected ErrInvalidFormat, got %v", name, err)
		}
	}
}
