// Package tradedata loads and generates the trade samples a simulation draws from.
package tradedata

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"prop-simulator/internal/domain"
)

// DateTimeLayout is the trade timestamp format: YYYYMMDD HH:MM:SS, UTC.
const DateTimeLayout = "20060102 15:04:05"

// Trade data errors
var (
	ErrMalformedRecord = errors.New("malformed trade record")
	ErrNoTrades        = errors.New("no trades in input")
)

// ReadCSVFile reads a trade file from disk. See ReadCSV.
func ReadCSVFile(path string, multiplier, roundTripCost float64) ([]domain.TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trade file: %w", err)
	}
	defer f.Close()

	return ReadCSV(bufio.NewReaderSize(f, 1<<20), multiplier, roundTripCost)
}

// ReadCSV parses a header row followed by datetime,return,max_opposite_excursion
// records. Both values are scaled as v*multiplier - roundTripCost.
func ReadCSV(r io.Reader, multiplier, roundTripCost float64) ([]domain.TradeRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	// Skip header
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoTrades
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []domain.TradeRecord
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trades: %w", err)
		}
		line, _ := cr.FieldPos(0)

		tr, err := parseRecord(rec, multiplier, roundTripCost)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, tr)
	}

	if len(records) == 0 {
		return nil, ErrNoTrades
	}
	return records, nil
}

func parseRecord(rec []string, multiplier, roundTripCost float64) (domain.TradeRecord, error) {
	if len(rec) < 3 {
		return domain.TradeRecord{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedRecord, len(rec))
	}

	ts, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(rec[0]), time.UTC)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("%w: datetime %q: %v", ErrMalformedRecord, rec[0], err)
	}
	ret, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("%w: return %q: %v", ErrMalformedRecord, rec[1], err)
	}
	moe, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("%w: excursion %q: %v", ErrMalformedRecord, rec[2], err)
	}

	return domain.TradeRecord{
		Time: ts,
		Trade: domain.Trade{
			ReturnValue:          ret*multiplier - roundTripCost,
			MaxOppositeExcursion: moe*multiplier - roundTripCost,
		},
	}, nil
}
