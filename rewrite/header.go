package rewrite

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/naming"
)

const (
	generatedPrefix = "// Code generated by cachedprop from "
	generatedSuffix = ". DO NOT EDIT."
	namingPrefix    = "// cachedprop:naming "
	digestPrefix    = "// cachedprop:digest "
)

// ErrNoHeader is returned by ParseHeader for files cachedprop did not write
var ErrNoHeader = errors.New("no cachedprop header")

// Header is the provenance block at the top of every generated file
type Header struct {
	// Source is the base name of the input file
	Source string

	// Naming is the naming convention version the file was generated under
	Naming string

	// Digest is the xxhash64 of the input file contents, in hex
	Digest string
}

// NewHeader describes output generated now from src
func NewHeader(filename string, src []byte) Header {
	return Header{
		Source: filepath.Base(filename),
		Naming: naming.Version,
		Digest: Digest(src),
	}
}

// Digest returns the hex xxhash64 of src
func Digest(src []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(src))
}

func (h Header) String() string {
	var b strings.Builder
	b.WriteString(generatedPrefix + h.Source + generatedSuffix + "\n")
	b.WriteString(namingPrefix + h.Naming + "\n")
	b.WriteString(digestPrefix + h.Digest + "\n")
	return b.String()
}

// Matches reports whether the header was produced from src
func (h Header) Matches(src []byte) bool {
	return h.Digest == Digest(src)
}

// Compatible reports whether the file was generated under a naming
// convention compatible with the running one
func (h Header) Compatible() (bool, error) {
	return naming.Compatible(h.Naming)
}

// ParseHeader reads the header from the leading comment lines of a
// generated file
func ParseHeader(src []byte) (*Header, error) {
	var h Header
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if !strings.HasPrefix(line, "//") {
			break
		}
		switch {
		case strings.HasPrefix(line, generatedPrefix) && strings.HasSuffix(line, generatedSuffix):
			h.Source = strings.TrimSuffix(strings.TrimPrefix(line, generatedPrefix), generatedSuffix)
		case strings.HasPrefix(line, namingPrefix):
			h.Naming = strings.TrimSpace(strings.TrimPrefix(line, namingPrefix))
		case strings.HasPrefix(line, digestPrefix):
			h.Digest = strings.TrimSpace(strings.TrimPrefix(line, digestPrefix))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	if h.Source == "" {
		return nil, ErrNoHeader
	}
	if h.Naming == "" || h.Digest == "" {
		return nil, errors.Wrapf(ErrNoHeader, "header of output generated from %s is incomplete", h.Source)
	}
	return &h, nil
}
