package config

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// nil means strings are stored as raw utf8. Legacy scene files produced by
// old tooling use single-byte charmaps and must be loaded with SetEncoding.
var currentCharMap *charmap.Charmap

func SetEncoding(name string) error {
	if name == "" || name == "utf8" {
		currentCharMap = nil
		return nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if cm.String() == name {
				currentCharMap = cm
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := make([]string, 0)
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	return currentCharMap
}

func DecodeString(bs []byte) string {
	if currentCharMap == nil {
		return string(bs)
	}
	s, err := currentCharMap.NewDecoder().Bytes(bs)
	if err != nil {
		return string(bs)
	}
	return string(s)
}

func EncodeString(s string) []byte {
	if currentCharMap == nil {
		return []byte(s)
	}
	bs, err := currentCharMap.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return bs
}
