package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrLogUnavailable wraps transport failures loading the queue log.
	ErrLogUnavailable = errors.New("queue log unavailable")
	// ErrLogChanged means the log was modified between load and rewrite.
	ErrLogChanged = errors.New("queue log changed since load")
)

// logColumns is the fixed column order of the queue log sheet.
var logColumns = []string{
	"ID", "TargetDate", "Notes", "Status", "ModifiedAt",
	"PreviousDate", "SubmitterId", "SubmitterName", "SubmitterDisplayName",
}

// LogVersion is an optimistic-concurrency token: a fingerprint of the log
// contents captured at load time.
type LogVersion struct {
	Rows        int
	Fingerprint string
}

// LogStore is the queue log at its transport interface: full read, append,
// or full clear-and-rewrite. No partial row updates.
type LogStore interface {
	Load() ([]QueueRecord, LogVersion, error)
	Append(records ...QueueRecord) error
	Overwrite(records []QueueRecord, expect LogVersion) error
}

// SheetsClient is a minimal Google Sheets values API client.
type SheetsClient struct {
	BaseURL       string
	AccessToken   string
	SpreadsheetID string
	HTTP          *http.Client
}

func NewSheetsClient(spreadsheetID, accessToken string) *SheetsClient {
	return &SheetsClient{
		BaseURL:       "https://sheets.googleapis.com/v4/spreadsheets",
		AccessToken:   accessToken,
		SpreadsheetID: spreadsheetID,
		HTTP:          externalHTTPClient,
	}
}

type valueRange struct {
	Range  string          `json:"range,omitempty"`
	Values [][]interface{} `json:"values"`
}

func (c *SheetsClient) do(method, path string, query url.Values, body interface{}) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/%s", c.BaseURL, url.PathEscape(c.SpreadsheetID), path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets API %s %s: status %d: %s", method, path, resp.StatusCode, truncateBody(data))
	}
	return data, nil
}

func truncateBody(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}

// GetValues reads a range and stringifies every cell.
func (c *SheetsClient) GetValues(rng string) ([][]string, error) {
	data, err := c.do(http.MethodGet, "values/"+url.PathEscape(rng), nil, nil)
	if err != nil {
		return nil, err
	}
	var vr valueRange
	if err := json.Unmarshal(data, &vr); err != nil {
		return nil, fmt.Errorf("decoding sheets response: %w", err)
	}
	rows := make([][]string, len(vr.Values))
	for i, raw := range vr.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = fmt.Sprintf("%v", cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// AppendValues appends rows after the last row of the range.
func (c *SheetsClient) AppendValues(rng string, rows [][]string) error {
	q := url.Values{}
	q.Set("valueInputOption", "USER_ENTERED")
	q.Set("insertDataOption", "INSERT_ROWS")
	_, err := c.do(http.MethodPost, "values/"+url.PathEscape(rng)+":append", q, toValueRange(rows))
	return err
}

// ClearValues clears every cell in the range.
func (c *SheetsClient) ClearValues(rng string) error {
	_, err := c.do(http.MethodPost, "values/"+url.PathEscape(rng)+":clear", nil, struct{}{})
	return err
}

// UpdateValues writes rows starting at the top-left of the range.
func (c *SheetsClient) UpdateValues(rng string, rows [][]string) error {
	q := url.Values{}
	q.Set("valueInputOption", "USER_ENTERED")
	_, err := c.do(http.MethodPut, "values/"+url.PathEscape(rng), q, toValueRange(rows))
	return err
}

func toValueRange(rows [][]string) valueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return valueRange{Values: values}
}

// SheetLog implements LogStore on one worksheet of the queue spreadsheet.
type SheetLog struct {
	client *SheetsClient
	sheet  string
}

func NewSheetLog(client *SheetsClient, sheet string) *SheetLog {
	return &SheetLog{client: client, sheet: sheet}
}

func (l *SheetLog) fullRange() string {
	return fmt.Sprintf("%s!A:%c", l.sheet, 'A'+len(logColumns)-1)
}

func (l *SheetLog) Load() ([]QueueRecord, LogVersion, error) {
	rows, err := l.client.GetValues(l.fullRange())
	if err != nil {
		return nil, LogVersion{}, fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}
	records := decodeRecordRows(rows)
	return records, fingerprintRecords(records), nil
}

func (l *SheetLog) Append(records ...QueueRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = encodeRecordRow(r)
	}
	return l.client.AppendValues(l.sheet, rows)
}

// Overwrite clears the sheet and rewrites the header plus all records.
// The log is re-read first and compared against the expected version; a
// mismatch aborts with ErrLogChanged before anything is cleared.
func (l *SheetLog) Overwrite(records []QueueRecord, expect LogVersion) error {
	_, version, err := l.Load()
	if err != nil {
		return err
	}
	if version != expect {
		return ErrLogChanged
	}

	if err := l.client.ClearValues(l.sheet + "!A:Z"); err != nil {
		return fmt.Errorf("clearing queue sheet: %w", err)
	}
	rows := [][]string{logColumns}
	for _, r := range records {
		rows = append(rows, encodeRecordRow(r))
	}
	if err := l.client.UpdateValues(l.sheet+"!A1", rows); err != nil {
		return fmt.Errorf("rewriting queue sheet: %w", err)
	}
	return nil
}

// decodeRecordRows converts sheet rows into records, skipping the header row
// and padding or truncating rows to the expected width (short rows happen
// when trailing cells are empty).
func decodeRecordRows(rows [][]string) []QueueRecord {
	var records []QueueRecord
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "id") {
			continue
		}
		cells := make([]string, len(logColumns))
		copy(cells, row)
		rec := QueueRecord{
			ID:                   strings.TrimSpace(cells[0]),
			TargetDate:           strings.TrimSpace(cells[1]),
			Notes:                cells[2],
			Status:               ParseStatus(cells[3]),
			ModifiedAt:           strings.TrimSpace(cells[4]),
			PreviousDate:         strings.TrimSpace(cells[5]),
			SubmitterID:          strings.TrimSpace(cells[6]),
			SubmitterName:        strings.TrimSpace(cells[7]),
			SubmitterDisplayName: strings.TrimSpace(cells[8]),
		}
		if rec.ID == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func encodeRecordRow(r QueueRecord) []string {
	return []string{
		r.ID, r.TargetDate, r.Notes, string(r.Status), r.ModifiedAt,
		r.PreviousDate, r.SubmitterID, r.SubmitterName, r.SubmitterDisplayName,
	}
}

func fingerprintRecords(records []QueueRecord) LogVersion {
	h := sha256.New()
	for _, r := range records {
		for _, cell := range encodeRecordRow(r) {
			h.Write([]byte(cell))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return LogVersion{
		Rows:        len(records),
		Fingerprint: hex.EncodeToString(h.Sum(nil)),
	}
}

// SheetStats fetches the historical throughput table from the stats
// spreadsheet. Column positions are resolved from the header row by name.
type SheetStats struct {
	client *SheetsClient
	sheet  string
}

func NewSheetStats(client *SheetsClient, sheet string) *SheetStats {
	return &SheetStats{client: client, sheet: sheet}
}

const (
	statsDateColumn  = "AdmissionDate"
	statsLastColumn  = "LastAdmitted"
	statsFirstColumn = "FirstAdmitted"
)

func (s *SheetStats) FetchStats() (*StatsSnapshot, error) {
	rows, err := s.client.GetValues(s.sheet + "!A1:Z")
	if err != nil {
		return nil, fmt.Errorf("loading stats sheet: %w", err)
	}
	if len(rows) == 0 {
		log.Printf("stats sheet is empty")
		return &StatsSnapshot{FetchedAt: time.Now()}, nil
	}

	cols := make(map[string]int)
	for i, name := range rows[0] {
		cols[strings.TrimSpace(name)] = i
	}
	dateCol, ok := cols[statsDateColumn]
	if !ok {
		return nil, fmt.Errorf("stats sheet missing %q column", statsDateColumn)
	}
	lastCol, haveLast := cols[statsLastColumn]
	firstCol, haveFirst := cols[statsFirstColumn]

	var days []ThroughputDay
	for _, row := range rows[1:] {
		if dateCol >= len(row) {
			continue
		}
		date, err := time.Parse(dateLayout, strings.TrimSpace(row[dateCol]))
		if err != nil {
			continue // numeric-coerced: unusable dates drop the row
		}
		day := ThroughputDay{Date: date}
		if haveLast {
			day.LastAdmitted = cellInt(row, lastCol)
		}
		if haveFirst {
			day.FirstAdmitted = cellInt(row, firstCol)
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return &StatsSnapshot{Rows: days, FetchedAt: time.Now()}, nil
}

func cellInt(row []string, col int) int {
	if col >= len(row) {
		return 0
	}
	s := strings.TrimSpace(row[col])
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return int(f)
	}
	return 0
}
