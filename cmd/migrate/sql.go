package main

import (
	"bufio"
	"os"
	"strings"
)

const downMarker = "-- +migrate Down"

// readFile splits a migration into its up and down statements.
func readFile(path string) (up, down []string, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	upText, downText, _ := strings.Cut(string(content), downMarker)
	return splitSQL(upText), splitSQL(downText), nil
}

// splitSQL breaks a script into statements on lines containing ';'. Full
// line comments are dropped.
func splitSQL(sqlText string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.Contains(line, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
