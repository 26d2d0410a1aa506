package structures

import (
	"fmt"
	"strconv"
	"strings"
)

// MediaID is the decoded form of a media identifier. Segment ids are encoded
// as "{videoID}_{startSeconds}" on the wire and in the database; this type is
// the single place that format is parsed and produced.
type MediaID struct {
	VideoID      string
	StartSeconds int
	IsSegment    bool
}

// ParseMediaID decodes a raw identifier into its video id and, for segments,
// the start offset. A trailing "_N" with numeric N marks a segment; anything
// else is a plain video id (video ids themselves may contain underscores, so
// only the last underscore is considered).
func ParseMediaID(raw string) MediaID {
	idx := strings.LastIndex(raw, "_")
	if idx <= 0 || idx == len(raw)-1 {
		return MediaID{VideoID: raw}
	}
	start, err := strconv.Atoi(raw[idx+1:])
	if err != nil || start < 0 {
		return MediaID{VideoID: raw}
	}
	return MediaID{VideoID: raw[:idx], StartSeconds: start, IsSegment: true}
}

// SegmentID encodes a segment identifier.
func SegmentID(videoID string, startSeconds int) string {
	return fmt.Sprintf("%s_%d", videoID, startSeconds)
}

// String re-encodes the id into its wire form.
func (m MediaID) String() string {
	if m.IsSegment {
		return SegmentID(m.VideoID, m.StartSeconds)
	}
	return m.VideoID
}

// UnderlyingVideoID strips any segment suffix from a raw id, returning the id
// of the media whose stream actually gets resolved.
func UnderlyingVideoID(raw string) string {
	return ParseMediaID(raw).VideoID
}
