package storage

import (
	"bytes"
	"errors"
	"fmt"

	"memoria_chatbot/pkg"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when a persisted memory document cannot be used.
var ErrMalformed = errors.New("malformed memory document")

const documentIndent = "    "

// decodeEntries parses a memory document keeping the key order of the
// document. Keys are normalized; when two keys collapse into one, the later
// answer wins and the entry stays where the first one was.
func decodeEntries(data []byte) ([]pkg.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: top level value is not an object", ErrMalformed)
	}

	entries := []pkg.Entry{}
	index := make(map[string]int)
	var decodeErr error

	doc.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			decodeErr = fmt.Errorf("%w: answer for %q is not a string", ErrMalformed, key.String())
			return false
		}

		k := pkg.Normalize(key.String())
		if i, ok := index[k]; ok {
			entries[i].Answer = value.String()
			return true
		}
		index[k] = len(entries)
		entries = append(entries, pkg.Entry{Key: k, Answer: value.String()})
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	return entries, nil
}

// encodeEntries writes entries as an indented JSON object in insertion
// order. Non-ASCII and HTML characters are written as they are.
func encodeEntries(entries []pkg.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, e := range entries {
		key, err := sonic.ConfigDefault.Marshal(e.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", e.Key, err)
		}
		answer, err := sonic.ConfigDefault.Marshal(e.Answer)
		if err != nil {
			return nil, fmt.Errorf("failed to encode answer for %q: %w", e.Key, err)
		}

		buf.WriteString(documentIndent)
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(answer)
		if i < len(entries)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
