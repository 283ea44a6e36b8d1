package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var linkWholeFile bool

var linkCmd = &cobra.Command{
	Use:   "link [file...]",
	Short: "Link entity mentions in documents",
	Long: `Link reads documents from the given files, or from standard input when no
file is given, and prints the linked entities as JSON. Each non-empty line is a
document unless --whole-file is set.`,
	RunE: runLink,
}

func init() {
	linkCmd.Flags().BoolVar(&linkWholeFile, "whole-file", false, "treat each file as a single document")
}

func runLink(cmd *cobra.Command, args []string) error {
	docs, err := readInputs(args, cmd.InOrStdin(), linkWholeFile)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	searcher, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer searcher.Close()

	response, err := searcher.Link(cmd.Context(), docs)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

func readInputs(paths []string, stdin io.Reader, wholeFile bool) ([]string, error) {
	if len(paths) == 0 {
		return readDocs(stdin, wholeFile)
	}
	docs := []string{}
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		fileDocs, err := readDocs(file, wholeFile)
		file.Close()
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

func readDocs(reader io.Reader, wholeFile bool) ([]string, error) {
	if wholeFile {
		content, err := io.ReadAll(reader)
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(string(content))
		if text == "" {
			return []string{}, nil
		}
		return []string{text}, nil
	}

	docs := []string{}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			docs = append(docs, line)
		}
	}
	return docs, scanner.Err()
}
