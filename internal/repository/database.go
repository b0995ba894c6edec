package repository

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Record is a single row. Values are kept in their JSON-decoded form
// (string, float64, bool, nil, map[string]any, []any) so that records read
// back from a snapshot compare equal to freshly written ones.
type Record map[string]any

// Filter selects records where any of its fields matches. String values
// match by case-insensitive substring, everything else by equality.
type Filter map[string]any

// Snapshotter persists the whole table set. Save must not retain the map
// it is given.
type Snapshotter interface {
	Load() (map[string][]Record, error)
	Save(tables map[string][]Record) error
	Close() error
}

// Database keeps every table in memory and rewrites the full snapshot on
// each mutation. This is O(total records) per write, which is fine for the
// small data sets the service is meant for.
type Database struct {
	mu       sync.Mutex
	tables   map[string][]Record
	snapshot Snapshotter
}

func Open(snapshot Snapshotter) (*Database, error) {
	tables, err := snapshot.Load()
	if err != nil {
		return nil, fmt.Errorf("Error trying to load snapshot: %w", err)
	}
	if tables == nil {
		tables = make(map[string][]Record)
	}

	return &Database{
		tables:   tables,
		snapshot: snapshot,
	}, nil
}

func (d *Database) Close() error {
	return d.snapshot.Close()
}

// Select fails only when a filter value cannot be encoded as JSON.
func (d *Database) Select(table string, filter Filter) ([]Record, error) {
	var normalized Record
	if len(filter) > 0 {
		var err error
		if normalized, err = normalize(filter); err != nil {
			return nil, fmt.Errorf("Error trying to select from %s: %w", table, err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rows := d.tables[table]
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if normalized == nil || matches(row, normalized) {
			out = append(out, cloneRecord(row))
		}
	}
	return out, nil
}

func (d *Database) Get(table, id string) (Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := indexOf(d.tables[table], id)
	if idx < 0 {
		return nil, fmt.Errorf("%s/%s: %w", table, id, ErrNotFound)
	}
	return cloneRecord(d.tables[table][idx]), nil
}

func (d *Database) Insert(table string, record Record) error {
	row, err := normalize(record)
	if err != nil {
		return fmt.Errorf("Error trying to insert into %s: %w", table, err)
	}
	id, _ := row["id"].(string)
	if id == "" {
		return fmt.Errorf("Error trying to insert into %s: %w", table, ErrMissingID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rows, existed := d.tables[table]
	if indexOf(rows, id) >= 0 {
		return fmt.Errorf("%s/%s: %w", table, id, ErrDuplicateID)
	}

	d.tables[table] = append(rows, row)
	if err := d.persist(); err != nil {
		if existed {
			d.tables[table] = rows
		} else {
			delete(d.tables, table)
		}
		return err
	}
	return nil
}

// Update replaces every field of the record with the given id. Fields not
// present in the argument are dropped.
func (d *Database) Update(table, id string, fields Record) (Record, error) {
	row, err := normalize(fields)
	if err != nil {
		return nil, fmt.Errorf("Error trying to update %s/%s: %w", table, id, err)
	}
	row["id"] = id

	d.mu.Lock()
	defer d.mu.Unlock()

	rows := d.tables[table]
	idx := indexOf(rows, id)
	if idx < 0 {
		return nil, fmt.Errorf("%s/%s: %w", table, id, ErrNotFound)
	}

	previous := rows[idx]
	rows[idx] = row
	if err := d.persist(); err != nil {
		rows[idx] = previous
		return nil, err
	}
	return cloneRecord(row), nil
}

// Modify looks up the record, passes a copy to fn and stores what fn
// returns, all under one lock. An error from fn leaves the record untouched.
func (d *Database) Modify(table, id string, fn func(Record) (Record, error)) (Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows := d.tables[table]
	idx := indexOf(rows, id)
	if idx < 0 {
		return nil, fmt.Errorf("%s/%s: %w", table, id, ErrNotFound)
	}

	changed, err := fn(cloneRecord(rows[idx]))
	if err != nil {
		return nil, err
	}
	row, err := normalize(changed)
	if err != nil {
		return nil, fmt.Errorf("Error trying to update %s/%s: %w", table, id, err)
	}
	row["id"] = id

	previous := rows[idx]
	rows[idx] = row
	if err := d.persist(); err != nil {
		rows[idx] = previous
		return nil, err
	}
	return cloneRecord(row), nil
}

func (d *Database) Delete(table, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows := d.tables[table]
	idx := indexOf(rows, id)
	if idx < 0 {
		return fmt.Errorf("%s/%s: %w", table, id, ErrNotFound)
	}

	remaining := make([]Record, 0, len(rows)-1)
	remaining = append(remaining, rows[:idx]...)
	remaining = append(remaining, rows[idx+1:]...)

	d.tables[table] = remaining
	if err := d.persist(); err != nil {
		d.tables[table] = rows
		return err
	}
	return nil
}

func (d *Database) persist() error {
	if err := d.snapshot.Save(d.tables); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func indexOf(rows []Record, id string) int {
	for i, row := range rows {
		if rowID, _ := row["id"].(string); rowID == id {
			return i
		}
	}
	return -1
}

func matches(row Record, filter Record) bool {
	for key, want := range filter {
		got, ok := row[key]
		if !ok {
			continue
		}
		if ws, isString := want.(string); isString {
			gs, ok := got.(string)
			if ok && strings.Contains(strings.ToLower(gs), strings.ToLower(ws)) {
				return true
			}
			continue
		}
		if reflect.DeepEqual(got, want) {
			return true
		}
	}
	return false
}

func normalize(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var row Record
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	if row == nil {
		row = Record{}
	}
	return row, nil
}

func cloneRecord(row Record) Record {
	out := make(Record, len(row))
	for k, v := range row {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case Record:
		return cloneRecord(val)
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return val
	}
}
