package marketdata

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"intraday-validator/services/engine"
)

// LoadCSVFile parses flat timestamp,open,high,low,close,volume rows and
// buckets them into UTC calendar days. A header row is optional, UTF-16
// exports carrying a byte order mark are tolerated, and rows that do not
// parse are skipped rather than fatal.
func LoadCSVFile(path string) (map[string][]engine.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var reader io.Reader = br
	if head, _ := br.Peek(2); len(head) == 2 {
		le := head[0] == 0xFF && head[1] == 0xFE
		be := head[0] == 0xFE && head[1] == 0xFF
		if le || be {
			endian := unicode.LittleEndian
			if be {
				endian = unicode.BigEndian
			}
			reader = transform.NewReader(br, unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder())
		}
	}

	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	days := make(map[string][]engine.Candle)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
		if len(rec) < 6 {
			continue
		}
		tsField := strings.TrimPrefix(strings.TrimSpace(rec[0]), "\uFEFF")
		ts, err := strconv.ParseInt(tsField, 10, 64)
		if err != nil {
			// header row or junk line
			continue
		}
		ts = normalizeMillis(ts)

		var vals [5]float64
		ok := true
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		key := time.UnixMilli(ts).UTC().Format("2006-01-02")
		days[key] = append(days[key], engine.Candle{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	sortDays(days)
	return days, nil
}

// LoadCSVDir reads every per-symbol CSV file in dir, keyed by base name.
func LoadCSVDir(dir string) (map[string]map[string][]engine.Candle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	out := make(map[string]map[string][]engine.Candle)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}
		days, err := LoadCSVFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		if len(days) > 0 {
			out[strings.TrimSuffix(name, filepath.Ext(name))] = days
		}
	}
	return out, nil
}
