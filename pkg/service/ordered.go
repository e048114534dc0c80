package service

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeOrderedObject walks a JSON object and hands each member to fn in
// the order it appears in the document. encoding/json maps lose that order,
// and both coercion and filtering are defined in request order.
func decodeOrderedObject(data []byte, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}

	seen := map[string]struct{}{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", tok)
		}

		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate key %q", key)
		}

		seen[key] = struct{}{}

		var value json.RawMessage

		err = dec.Decode(&value)
		if err != nil {
			return fmt.Errorf("decoding value of %q: %w", key, err)
		}

		err = fn(key, value)
		if err != nil {
			return err
		}
	}

	_, err = dec.Token()

	return err
}
