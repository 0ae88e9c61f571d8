package l3rules

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/mvscript/internal/motion/l1lookup"
	"github.com/banshee-data/mvscript/internal/motion/l2frames"
)

// ruleSetBlob is the gob wire form of a RuleSet.
type ruleSetBlob struct {
	Width, Height, Columns, Rows int
	ActivityFloor, QualityFloor  float64
	Rules                        []Rule
}

// MarshalBlob compresses the ruleset using gob encoding and gzip compression.
func (rs *RuleSet) MarshalBlob() ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	blob := ruleSetBlob{
		Width:         rs.layout.Width,
		Height:        rs.layout.Height,
		Columns:       rs.layout.Columns,
		Rows:          rs.layout.Rows,
		ActivityFloor: rs.activityFloor,
		QualityFloor:  rs.qualityFloor,
		Rules:         rs.rules,
	}
	if err := enc.Encode(blob); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBlob decompresses and decodes a ruleset produced by MarshalBlob.
func UnmarshalBlob(data []byte) (*RuleSet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty ruleset blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var blob ruleSetBlob
	if err := gob.NewDecoder(gz).Decode(&blob); err != nil {
		return nil, fmt.Errorf("failed to decode ruleset: %w", err)
	}
	layout, err := l2frames.NewLayout(blob.Width, blob.Height, blob.Columns, blob.Rows)
	if err != nil {
		return nil, fmt.Errorf("ruleset blob layout: %w", err)
	}
	return NewRuleSet(layout, blob.Rules, blob.ActivityFloor, blob.QualityFloor)
}

// Summary is the JSON digest of a ruleset stored next to its blob.
type Summary struct {
	Layout        string                   `json:"layout"`
	Rules         int                      `json:"rules"`
	Cells         int                      `json:"cells"`
	ActivityFloor float64                  `json:"activity_floor"`
	QualityFloor  float64                  `json:"quality_floor"`
	MeanActivity  float64                  `json:"mean_activity"`
	MeanQuality   float64                  `json:"mean_quality"`
	Directions    [l1lookup.Directions]int `json:"directions"`
}

// Summarize computes the digest of rs.
func (rs *RuleSet) Summarize() Summary {
	s := Summary{
		Layout:        rs.layout.String(),
		Rules:         len(rs.rules),
		Cells:         rs.layout.Cells(),
		ActivityFloor: rs.activityFloor,
		QualityFloor:  rs.qualityFloor,
	}
	for _, r := range rs.rules {
		s.MeanActivity += r.Activity
		s.MeanQuality += r.Quality
		s.Directions[r.Direction]++
	}
	if len(rs.rules) > 0 {
		s.MeanActivity /= float64(len(rs.rules))
		s.MeanQuality /= float64(len(rs.rules))
	}
	return s
}

// SummaryJSON marshals Summarize for storage.
func (rs *RuleSet) SummaryJSON() (string, error) {
	b, err := json.Marshal(rs.Summarize())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
