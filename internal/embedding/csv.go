package embedding

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrMissingColumn = errors.New("csv missing required column")

// Row is one input line. Only title is required; id falls back to the row
// index when the file has no id column or the cell is blank.
type Row struct {
	ID          string
	Title       string
	Description string
	Link        string
	GUID        string
	PubDate     string
}

// ReadCSV parses a header-addressed CSV. limit <= 0 reads every row.
func ReadCSV(r io.Reader, limit int) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := col["title"]; !ok {
		return nil, fmt.Errorf("%w: title", ErrMissingColumn)
	}

	cell := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []Row
	for idx := 0; limit <= 0 || idx < limit; idx++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", idx, err)
		}

		id := strings.TrimSpace(cell(rec, "id"))
		if id == "" {
			id = strconv.Itoa(idx)
		}
		rows = append(rows, Row{
			ID:          id,
			Title:       cell(rec, "title"),
			Description: cell(rec, "description"),
			Link:        cell(rec, "link"),
			GUID:        cell(rec, "guid"),
			PubDate:     cell(rec, "pubDate"),
		})
	}
	return rows, nil
}

func (r Row) metadata() Metadata {
	return Metadata{
		Text:          r.Title,
		Description:   r.Description,
		Source:        r.Link,
		GUID:          r.GUID,
		PublishedDate: r.PubDate,
	}
}
