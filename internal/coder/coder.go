// Package coder derives opaque identifiers from strings.
package coder

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrUnsupported      = errors.New("unsupported operation")
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// Coder turns a string into another string. Decode is optional.
type Coder interface {
	Encode(s string) string
	Decode(s string) (string, error)
}

const (
	MD5    = "MD5"
	SHA1   = "SHA-1"
	SHA256 = "SHA-256"
)

var algorithms = map[string]func() hash.Hash{
	MD5:    md5.New,
	SHA1:   sha1.New,
	SHA256: sha256.New,
}

var aliases = map[string]string{
	"MD5":     MD5,
	"SHA1":    SHA1,
	"SHA-1":   SHA1,
	"SHA256":  SHA256,
	"SHA-256": SHA256,
}

// SumCoder is a one-way digest rendered as lowercase hex.
type SumCoder struct {
	algorithm string
	newHash   func() hash.Hash
}

// NewSumCoder accepts MD5, SHA-1 or SHA-256, case-insensitive, dash optional.
func NewSumCoder(algorithm string) (*SumCoder, error) {
	name, ok := aliases[strings.ToUpper(strings.TrimSpace(algorithm))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	return &SumCoder{algorithm: name, newHash: algorithms[name]}, nil
}

// MustSumCoder panics on an unknown algorithm. Only for package-level constants.
func MustSumCoder(algorithm string) *SumCoder {
	c, err := NewSumCoder(algorithm)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *SumCoder) Algorithm() string { return c.algorithm }

func (c *SumCoder) Encode(s string) string {
	h := c.newHash()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *SumCoder) Decode(string) (string, error) {
	return "", fmt.Errorf("%s decode unsupported: %w", c.algorithm, ErrUnsupported)
}

// Algorithms lists the canonical names accepted by NewSumCoder.
func Algorithms() []string {
	out := make([]string, 0, len(algorithms))
	for name := range algorithms {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// URLCoder applies query escaping in both directions.
type URLCoder struct{}

func (URLCoder) Encode(s string) string { return url.QueryEscape(s) }

func (URLCoder) Decode(s string) (string, error) {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return "", fmt.Errorf("url decode: %w", err)
	}
	return out, nil
}
