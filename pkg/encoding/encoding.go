// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.


// Package encoding converts between Hack machine words and their textual
// forms.
package encoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const WordWidth = 16

var (
	ErrInvalidHex     = errors.New("Invalid hex string")
	ErrInvalidDecimal = errors.New("Invalid decimal string")
	ErrInvalidWord    = errors.New("Invalid binary word")
)

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 || s[0] != '0' {
		return 0, ErrInvalidHex
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, ErrInvalidHex
	}

	return uint16(result), nil
}

// Decodes an unsigned base-10 string no wider than bits. Signs and digit
// separators are rejected.
func DecodeInt(s string, bits int) (uint16, error) {
	if !IsDecimal(s) {
		return 0, ErrInvalidDecimal
	}

	result, err := strconv.ParseUint(s, 10, bits)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes either a hex string (see DecodeHex) or a plain decimal.
func DecodeAddress(s string) (uint16, error) {
	if strings.ContainsAny(s, "xX") {
		return DecodeHex(s)
	}

	return DecodeInt(s, WordWidth)
}

func IsDecimal(s string) bool {
	if len(s) == 0 {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// Renders a word as sixteen '0'/'1' characters.
func FormatWord(word uint16) string {
	return fmt.Sprintf("%0*b", WordWidth, word)
}

// Decodes a word rendered by FormatWord.
func DecodeWord(s string) (uint16, error) {
	if len(s) != WordWidth {
		return 0, ErrInvalidWord
	}

	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return 0, ErrInvalidWord
		}
	}

	result, err := strconv.ParseUint(s, 2, WordWidth)

	if err != nil {
		return 0, ErrInvalidWord
	}

	return uint16(result), nil
}
