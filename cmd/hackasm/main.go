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


package main

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/lassandro/gohack/pkg/assembler"
)

var helpvar bool
var debugvar bool
var outvar string

const usage = "hackasm [-debug] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.hackdb'",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

// style wraps s in an ANSI sequence when stderr is a terminal.
func style(code, s string) string {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return s
	}

	return "\033[" + code + "m" + s + "\033[0m"
}

func reportErrors(errs []error, source []byte) {
	for _, err := range errs {
		var tokenErr assembler.TokenError

		if source == nil || !errors.As(err, &tokenErr) {
			log.Println(err)
			continue
		}

		cursor := tokenErr.GetPosition()

		line, _ := bufio.NewReader(
			bytes.NewReader(source[cursor.LineByte:]),
		).ReadString('\n')

		line = strings.TrimRight(line, "\r\n")

		size := int(cursor.Size)
		if size < 1 {
			size = 1
		}

		underline := strings.Repeat(" ", int(cursor.Byte-cursor.LineByte)) +
			"^" + strings.Repeat("~", size-1)

		log.Printf("%s\n%s\n%s", err, line, style("31", underline))
	}
}

func hackasm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var input io.Reader

	if stat, err := os.Stdin.Stat(); len(args) == 0 && err == nil &&
		stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix(style("1", "<stdin>:"))

		if outvar == "" {
			outvar = "out.hack"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Printf("%s is not a valid Hack assembly file", filename)
			return 1
		}

		input = file
		infile = file.Name()
		log.SetPrefix(style("1", filename+":"))

		if outvar == "" {
			outvar = strings.TrimSuffix(
				infile, filepath.Ext(infile),
			) + ".hack"
		}
	}

	// The source is kept so failing lines can be reprinted
	source, err := io.ReadAll(input)

	if err != nil {
		log.Println(&assembler.IOError{Err: err})
		return 1
	}

	var symtable *assembler.SymTable

	if debugvar {
		symtable = assembler.NewSymTable("")

		if infile != "" {
			if symtable.Source, err = filepath.Abs(infile); err != nil {
				log.Println(err)
				symtable.Source = ""
			}
		}
	}

	result, errs := assembler.AssembleHackSource(bytes.NewReader(source), symtable)

	if len(errs) > 0 {
		reportErrors(errs, source)
		return 1
	}

	{
		buffer := new(bytes.Buffer)

		if err := assembler.WriteHack(buffer, result); err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			return 1
		}

		if err := os.WriteFile(outvar, buffer.Bytes(), 0666); err != nil {
			log.Println("Error writing output file")
			log.Println(&assembler.IOError{Err: err})
			return 1
		}
	}

	if debugvar {
		filename := strings.TrimSuffix(outvar, filepath.Ext(outvar)) + ".hackdb"

		if file, err := os.Create(filename); err == nil {
			if err := gob.NewEncoder(file).Encode(symtable); err != nil {
				log.Println("Error writing symbol table")
				log.Println(err)
				file.Close()
				return 1
			}

			file.Close()
		} else {
			log.Println("Error creating symbol table")
			log.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(hackasm())
}
