package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ajharbinger/churn-insight-api/internal/churn"
)

// Scores customer records read as JSON, either one object or an array of objects,
// from a file or stdin. No database is needed.
func main() {
	file := flag.String("file", "-", "JSON file with one record or an array of records (- for stdin)")
	pretty := flag.Bool("pretty", true, "indent the JSON output")
	flag.Parse()

	var in io.Reader = os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", *file, err)
		}
		defer f.Close()
		in = f
	}

	records, err := readRecords(in)
	if err != nil {
		log.Fatalf("Failed to read records: %v", err)
	}

	scorer := churn.NewScorer()
	results := make([]churn.ScoreResult, 0, len(records))
	for i, raw := range records {
		rec, err := churn.RecordFromMap(raw)
		if err != nil {
			log.Fatalf("Record %d: %v", i+1, err)
		}
		results = append(results, scorer.Score(rec))
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	var out interface{} = results
	if len(results) == 1 {
		out = results[0]
	}
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readRecords(r io.Reader) ([]map[string]interface{}, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var many []map[string]interface{}
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var one map[string]interface{}
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []map[string]interface{}{one}, nil
}
