package products

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Images and specs live in JSONB columns. Rows written by older deployments hold a
// JSON string that itself contains the encoded value (double encoding), so the
// decoders accept both shapes.

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode images: %w", err)
	}
	return string(b), nil
}

func encodeSpecs(specs map[string]interface{}) (string, error) {
	if specs == nil {
		specs = map[string]interface{}{}
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("encode specs: %w", err)
	}
	return string(b), nil
}

// unwrapEncoded returns the inner document when raw is a JSON string.
func unwrapEncoded(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed, nil
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return nil, err
	}
	return bytes.TrimSpace([]byte(inner)), nil
}

func decodeImages(raw []byte) ([]string, error) {
	doc, err := unwrapEncoded(raw)
	if err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	images := []string{}
	if len(doc) == 0 || bytes.Equal(doc, []byte("null")) {
		return images, nil
	}
	if err := json.Unmarshal(doc, &images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return images, nil
}

func decodeSpecs(raw []byte) (map[string]interface{}, error) {
	doc, err := unwrapEncoded(raw)
	if err != nil {
		return nil, fmt.Errorf("decode specs: %w", err)
	}
	specs := map[string]interface{}{}
	if len(doc) == 0 || bytes.Equal(doc, []byte("null")) {
		return specs, nil
	}
	if err := json.Unmarshal(doc, &specs); err != nil {
		return nil, fmt.Errorf("decode specs: %w", err)
	}
	return specs, nil
}
