package synth

import "strings"

// harnessPrefix wraps a stored artifact into a standalone unit. The tester
// injects the table and extract capability symbols into the interpreter, so
// artifacts call them without declaring imports; the blank assignments keep
// the fixed import block valid when an artifact uses only a subset.
const harnessPrefix = `package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"parsesmith/internal/extract"
	"parsesmith/internal/table"
)

var (
	_ = fmt.Sprintf
	_ = regexp.MustCompile
	_ = strconv.ParseFloat
	_ = strings.TrimSpace
	_ = time.Now
	_ = extract.Open
	_ = table.New
)

`

// harnessLines is the offset subtracted when mapping wrapped-unit positions
// back to artifact source lines.
var harnessLines = strings.Count(harnessPrefix, "\n")

func wrapArtifact(src string) string {
	return harnessPrefix + src + "\n"
}
