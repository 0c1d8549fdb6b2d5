// Package anki reads and writes CrowdAnki deck archives.
package anki

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
)

const deckFile = "deck.json"

// WriteDeck writes deck as a zip archive holding <dir>/deck.json.
func WriteDeck(w io.Writer, dir string, deck *Export) error {
	zw := zip.NewWriter(w)

	f, err := zw.Create(path.Join(dir, deckFile))
	if err != nil {
		return fmt.Errorf("failed to create deck.json: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(deck); err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}

	return nil
}

// ReadDeck parses deck.json from an archive, either at its root or one
// directory down as CrowdAnki writes it.
// Exports never read decks back; tests use it to inspect WriteDeck output.
func ReadDeck(data []byte) (*Export, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip file: %w", err)
	}

	var deck *zip.File
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "__MACOSX") || path.Base(file.Name) != deckFile {
			continue
		}
		if deck == nil || strings.Count(file.Name, "/") < strings.Count(deck.Name, "/") {
			deck = file
		}
	}

	if deck == nil {
		return nil, fmt.Errorf("deck.json not found in archive")
	}

	rc, err := deck.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open deck.json: %w", err)
	}
	defer rc.Close()

	var export Export
	if err := json.NewDecoder(rc).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to parse deck.json: %w", err)
	}

	return &export, nil
}
