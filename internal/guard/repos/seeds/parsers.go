// Package seeds loads bundled block-list files into the policy. Two line
// formats are understood: plain newline-delimited domains, and hosts-file
// lines mapping a sinkhole address to a domain. Parsing is forgiving;
// anything that is not a usable domain is skipped, never fatal.
package seeds

import (
	"bufio"
	"io"
	"net"
	"strings"

	"github.com/haukened/phishguard/internal/guard/common/urlx"
)

// ParsePlain reads newline-delimited domains. Comments start with '#'
// (whole-line or inline); duplicates are dropped preserving first-seen
// order; leading "*." and "." markers are tolerated and stripped.
func ParsePlain(r io.Reader) ([]string, error) {
	return parseLines(r, func(line string) (string, bool) {
		line = strings.TrimPrefix(line, "*.")
		line = strings.TrimPrefix(line, ".")
		return line, true
	})
}

// ParseHosts reads hosts-file formatted lines ("0.0.0.0 evil.com"). Only
// the first hostname after the address is taken; lines whose first field is
// not an IP address are skipped.
func ParseHosts(r io.Reader) ([]string, error) {
	return parseLines(r, func(line string) (string, bool) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return "", false
		}
		if net.ParseIP(fields[0]) == nil {
			return "", false
		}
		return fields[1], true
	})
}

// ParseAuto sniffs the format from the first usable line: a line whose
// first field parses as an IP selects hosts format, anything else plain.
func ParseAuto(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content := string(data)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(stripComment(line))
		if line == "" {
			continue
		}
		if fields := strings.Fields(line); net.ParseIP(fields[0]) != nil {
			return ParseHosts(strings.NewReader(content))
		}
		break
	}
	return ParsePlain(strings.NewReader(content))
}

// parseLines applies the shared comment/whitespace handling, delegates the
// format-specific extraction, and validates + de-duplicates the result.
func parseLines(r io.Reader, extract func(line string) (string, bool)) ([]string, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	out := make([]string, 0, 256)

	for scanner.Scan() {
		line := strings.TrimPrefix(scanner.Text(), "﻿")
		line = strings.TrimSpace(stripComment(line))
		if line == "" {
			continue
		}

		raw, ok := extract(line)
		if !ok {
			continue
		}
		name := urlx.CanonicalHost(raw)
		if !isUsableDomain(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// isUsableDomain filters out tokens that cannot be a blockable domain:
// empty labels, missing dots, port suffixes, address literals, and the
// stray punctuation that shows up in crowd-sourced lists.
func isUsableDomain(name string) bool {
	if name == "" || !strings.Contains(name, ".") {
		return false
	}
	if urlx.IsIPv4Literal(name) {
		return false
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return false
		}
		for _, c := range label {
			switch {
			case c >= 'a' && c <= 'z':
			case c >= '0' && c <= '9':
			case c == '-' || c == '_':
			default:
				return false
			}
		}
	}
	return true
}
