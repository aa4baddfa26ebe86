package eval

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one question with previously collected answers per model.
type Row struct {
	Question string
	Answers  map[string]string
}

// LoadCSV reads a response dataset. The first column is the question;
// every other column header names a model and holds its answer.
func LoadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("dataset needs a question column and at least one model column")
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		question := strings.TrimSpace(record[0])
		if question == "" {
			continue
		}
		row := Row{Question: question, Answers: make(map[string]string, len(header)-1)}
		for i := 1; i < len(header) && i < len(record); i++ {
			if answer := strings.TrimSpace(record[i]); answer != "" {
				row.Answers[strings.TrimSpace(header[i])] = answer
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Candidates converts a dataset row for judging.
func (r Row) Candidates() []Candidate {
	out := make([]Candidate, 0, len(r.Answers))
	for model, text := range r.Answers {
		out = append(out, Candidate{Model: model, Text: text})
	}
	return out
}

// WriteVerdicts writes one JSON object per line.
func WriteVerdicts(path string, verdicts []Verdict) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	for _, v := range verdicts {
		if err := enc.Encode(v); err != nil {
			f.Close()
			return fmt.Errorf("encode verdict: %w", err)
		}
	}
	return f.Close()
}
