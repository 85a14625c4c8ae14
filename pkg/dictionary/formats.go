// Package dictionary detects and validates on-disk dictionary file formats
// (the binary trie files cmd/dictcompile writes and JSON word-frequency
// maps) for the engine loaders in cmd/keyserve.
package dictionary

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat shows file format types for dictionaries
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatBinary
	FormatJSON
)

// maxWordCountValidation bounds the word count a binary header may claim,
// guarding against a corrupt or truncated file.
const maxWordCountValidation = 5_000_000

// FormatInfo has the metadata for each file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatBinary: {
		Format:      FormatBinary,
		Description: "Binary Trie Dictionary",
		Extensions:  []string{".bin"},
		MinSize:     4, // At least the magic; the 12-byte header read is checked separately
	},
	FormatJSON: {
		Format:      FormatJSON,
		Description: "JSON Word-Frequency Dictionary",
		Extensions:  []string{".json"},
		MinSize:     2, // At least "{}"
	},
}

// ValidateFileFormat checks if a file matches our expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		log.Errorf("failed to stat file %s: %v", filename, err)
		return err
	}
	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		log.Errorf("unknown format: %v", expectedFormat)
		return errors.New("unknown format")
	}
	// size
	if fileInfo.Size() < formatInfo.MinSize {
		log.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
		return errors.New("file too small")
	}
	// extension
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(formatInfo.Extensions, ext) {
		log.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
		return errors.New("invalid file extension")
	}
	switch expectedFormat {
	case FormatBinary:
		return validateBinaryFormat(filename)
	case FormatJSON:
		return validateJSONFormat(filename)
	}
	return nil
}

// binMagic is the bintrie header's magic prefix (see pkg/bintrie.Magic).
const binMagic = "FBTD"

// validateBinaryFormat checks that a file opens with the bintrie magic
// and carries a plausible word count in its header.
func validateBinaryFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		log.Errorf("failed to open file %s: %v", filename, err)
		return err
	}
	defer file.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(file, header); err != nil {
		log.Errorf("failed to read header from %s: %v", filename, err)
		return err
	}
	if string(header[0:4]) != binMagic {
		log.Errorf("file %s has bad magic %q, want %q", filename, header[0:4], binMagic)
		return errors.New("bad magic")
	}
	wordCount := binary.LittleEndian.Uint32(header[8:12])
	if wordCount > maxWordCountValidation {
		log.Errorf("questionable word count in %s: %d (too large, max: %d)", filename, wordCount, maxWordCountValidation)
		return errors.New("word count too large")
	}
	log.Debugf("Binary file %s validated: %d words", filename, wordCount)
	return nil
}

// validateJSONFormat confirms the file parses as a JSON object.
func validateJSONFormat(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		log.Errorf("failed to read file %s: %v", filename, err)
		return err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		log.Errorf("file %s is not a JSON object: %v", filename, err)
		return err
	}
	log.Debugf("JSON file %s validated: %d entries", filename, len(probe))
	return nil
}

// DetectFileFormat attempts to detect the format of a file
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	if ext == ".bin" {
		if err := ValidateFileFormat(filename, FormatBinary); err == nil {
			return FormatBinary, nil
		}
	}
	if ext == ".json" {
		if err := ValidateFileFormat(filename, FormatJSON); err == nil {
			return FormatJSON, nil
		}
	}
	return FormatUnknown, func() error {
		log.Errorf("unable to detect format for file %s", filename)
		return errors.New("unable to detect format")
	}()
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}

// ListSupportedFormats returns all supported formats
func ListSupportedFormats() []FormatInfo {
	var formats []FormatInfo
	for _, info := range supportedFormats {
		formats = append(formats, info)
	}
	return formats
}
