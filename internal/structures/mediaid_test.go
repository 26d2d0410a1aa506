package structures

import (
	"testing"
)

func TestParseMediaID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		videoID string
		start   int
		segment bool
	}{
		{"plain video", "dQw4w9WgXcQ", "dQw4w9WgXcQ", 0, false},
		{"segment", "dQw4w9WgXcQ_125", "dQw4w9WgXcQ", 125, true},
		{"segment at zero", "abc123_0", "abc123", 0, true},
		{"video id with underscore", "some_video", "some_video", 0, false},
		{"underscored video with segment", "some_video_42", "some_video", 42, true},
		{"trailing underscore", "video_", "video_", 0, false},
		{"leading underscore", "_video", "_video", 0, false},
		{"non-numeric suffix", "video_abc", "video_abc", 0, false},
		{"negative suffix", "video_-5", "video_-5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMediaID(tt.raw)
			if got.VideoID != tt.videoID {
				t.Errorf("VideoID = %q, want %q", got.VideoID, tt.videoID)
			}
			if got.StartSeconds != tt.start {
				t.Errorf("StartSeconds = %d, want %d", got.StartSeconds, tt.start)
			}
			if got.IsSegment != tt.segment {
				t.Errorf("IsSegment = %v, want %v", got.IsSegment, tt.segment)
			}
		})
	}
}

func TestMediaIDRoundTrip(t *testing.T) {
	for _, raw := range []string{"videoA", "videoA_30", "with_underscore_99"} {
		if got := ParseMediaID(raw).String(); got != raw {
			t.Errorf("round trip of %q produced %q", raw, got)
		}
	}
}

func TestSegmentID(t *testing.T) {
	if got := SegmentID("vid", 90); got != "vid_90" {
		t.Errorf("SegmentID = %q, want %q", got, "vid_90")
	}
}

func TestUnderlyingVideoID(t *testing.T) {
	if got := UnderlyingVideoID("vid_90"); got != "vid" {
		t.Errorf("UnderlyingVideoID(vid_90) = %q, want vid", got)
	}
	if got := UnderlyingVideoID("plain"); got != "plain" {
		t.Errorf("UnderlyingVideoID(plain) = %q, want plain", got)
	}
}

func TestItemFromRow(t *testing.T) {
	row := MetadataRow{
		ID:           "vid_30",
		Type:         MediaTypeSegment,
		Title:        "Song",
		StartSeconds: 30,
		EndSeconds:   210,
		Duration:     180,
	}

	item := ItemFromRow(row)
	if item.ClipStartSec != 30 || item.ClipEndSec != 210 {
		t.Errorf("segment clip bounds = [%d, %d], want [30, 210]", item.ClipStartSec, item.ClipEndSec)
	}

	row.Type = MediaTypeVideo
	item = ItemFromRow(row)
	if item.ClipStartSec != 0 || item.ClipEndSec != 0 {
		t.Errorf("video clip bounds = [%d, %d], want [0, 0]", item.ClipStartSec, item.ClipEndSec)
	}
}
