package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Stored match lists come in two shapes. The current format is a JSON list
// of MatchRecord. The first release stored positional tuples:
//
//	[["2023-04-02T19:12:44.120Z", 45, 61, "Ri", 32],
//	 ["2023-04-05T20:01:10.003Z", 3, 5]]
//
// i.e. [date, j1Score, j2Score, bestBreakOwner?, bestBreakValue?] with the
// players implied. A list is in the legacy format when its first element is
// itself a list.

// DefaultLegacyPlayers are the seat names implied by legacy tuples.
var DefaultLegacyPlayers = [2]string{"Sa", "Ri"}

// DecodeHistory parses a stored match list. Empty input yields an empty
// list. Legacy tuples are upconverted using legacyIDs as the player names
// in seat order; the best break is kept on the side whose name matches the
// tuple's owner tag, and only for snooker.
func DecodeHistory(data []byte, game Game, legacyIDs [2]string) ([]MatchRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []MatchRecord{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding match list: %w", err)
	}
	if len(raw) == 0 {
		return []MatchRecord{}, nil
	}

	if !isLegacy(raw[0]) {
		records := make([]MatchRecord, 0, len(raw))
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding match records: %w", err)
		}
		return records, nil
	}

	records := make([]MatchRecord, 0, len(raw))
	for i, item := range raw {
		rec, err := convertLegacy(item, game, legacyIDs)
		if err != nil {
			return nil, fmt.Errorf("legacy match %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// EncodeHistory serializes a match list in the current format.
func EncodeHistory(records []MatchRecord) ([]byte, error) {
	if records == nil {
		records = []MatchRecord{}
	}
	return json.Marshal(records)
}

func isLegacy(first json.RawMessage) bool {
	first = bytes.TrimSpace(first)
	return len(first) > 0 && first[0] == '['
}

func convertLegacy(item json.RawMessage, game Game, ids [2]string) (MatchRecord, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(item, &tuple); err != nil {
		return MatchRecord{}, err
	}
	if len(tuple) < 3 {
		return MatchRecord{}, fmt.Errorf("tuple has %d fields, want at least 3", len(tuple))
	}

	date, err := parseLegacyDate(tuple[0])
	if err != nil {
		return MatchRecord{}, err
	}
	rec := MatchRecord{
		Date: date,
		J1:   PlayerResult{ID: ids[J1]},
		J2:   PlayerResult{ID: ids[J2]},
	}
	if err := json.Unmarshal(tuple[1], &rec.J1.Score); err != nil {
		return MatchRecord{}, fmt.Errorf("j1 score: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &rec.J2.Score); err != nil {
		return MatchRecord{}, fmt.Errorf("j2 score: %w", err)
	}

	if !game.IsSnooker() || len(tuple) < 5 {
		return rec, nil
	}
	var owner string
	var best int
	if err := json.Unmarshal(tuple[3], &owner); err != nil {
		return MatchRecord{}, fmt.Errorf("best break owner: %w", err)
	}
	if err := json.Unmarshal(tuple[4], &best); err != nil {
		return MatchRecord{}, fmt.Errorf("best break: %w", err)
	}
	switch owner {
	case ids[J1]:
		rec.J1.BestBreak = intPtr(best)
	case ids[J2]:
		rec.J2.BestBreak = intPtr(best)
	}
	return rec, nil
}

// parseLegacyDate accepts an ISO-8601 string or epoch milliseconds.
func parseLegacyDate(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("date %q: %w", s, err)
		}
		return t, nil
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("date: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
