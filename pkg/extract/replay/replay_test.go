package replay_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/extract/replay"
	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndReplay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "replay")
	s, err := replay.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	entry := replay.Entry{
		ListingID: "MLB1",
		Title:     "Cartucho HP 664 Preto",
		Decomposition: &listing.Decomposition{
			Items:        []listing.BundleItem{{Model: "664", Color: listing.ColorBlack, Quantity: 1}},
			ModelPrimary: "664",
		},
		Judgments: []listing.ReviewJudgment{
			{ReviewNumber: 2, Sentiment: listing.SentimentPositive, Authenticity: listing.AuthLikelyAuthentic, Severity: listing.SeverityNone},
		},
	}
	require.NoError(t, s.Record(entry))

	reopened, err := replay.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())

	d, err := reopened.ExtractStructure(context.Background(), "Cartucho HP 664 Preto", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "664", d.ModelPrimary)

	j, err := reopened.ClassifyReview(context.Background(), listing.Review{Number: 2}, extract.ReviewContext{ListingID: "MLB1"})
	require.NoError(t, err)
	assert.Equal(t, listing.AuthLikelyAuthentic, j.Authenticity)

	_, err = reopened.ClassifyReview(context.Background(), listing.Review{Number: 3}, extract.ReviewContext{ListingID: "MLB1"})
	assert.ErrorIs(t, err, replay.ErrNotRecorded)

	_, err = reopened.ExtractStructure(context.Background(), "unknown", "")
	assert.ErrorIs(t, err, replay.ErrNotRecorded)
}

func TestOpen_FileNameFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MLB9.json"), []byte(`{"title": "x", "judgments": []}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	s, err := replay.Open(dir)
	require.NoError(t, err)
	_, ok := s.Get("MLB9")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestOpen_BadJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{`), 0o644))
	_, err := replay.Open(dir)
	assert.Error(t, err)
}

func TestRecord_RejectsBadIDs(t *testing.T) {
	s, err := replay.Open(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Record(replay.Entry{}))
	assert.Error(t, s.Record(replay.Entry{ListingID: "../escape"}))
}

func TestReplayThroughClassifyAll(t *testing.T) {
	s, err := replay.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Record(replay.Entry{
		ListingID: "MLB2",
		Judgments: []listing.ReviewJudgment{
			{ReviewNumber: 1, Sentiment: listing.SentimentNegative, Authenticity: listing.AuthLikelyCounterfeit, Severity: listing.SeverityHigh},
		},
	}))

	reviews := []listing.Review{{Number: 1, Rating: 1, Text: "falsificado"}, {Number: 2, Rating: 5}}
	js, err := extract.ClassifyAll(context.Background(), s, reviews, extract.ReviewContext{ListingID: "MLB2"})
	require.NoError(t, err)
	require.Len(t, js, 1)
	assert.Equal(t, 1, js[0].Rating)
}
