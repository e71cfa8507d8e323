package signalzip

import "fmt"

// Stats compares a document with the artifact pair it compressed to.
type Stats struct {
	OriginalBytes int64
	BinaryBytes   int64
	MetadataBytes int64
}

// TotalBytes is the size of both artifacts together.
func (s Stats) TotalBytes() int64 {
	return s.BinaryBytes + s.MetadataBytes
}

// Ratio is the total artifact size over the original size, 0 for an empty
// original. Values above 1 mean the pair is larger than the document.
func (s Stats) Ratio() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return float64(s.TotalBytes()) / float64(s.OriginalBytes)
}

// StatsOf measures an artifact against the text it came from.
func StatsOf(text string, a *Artifact) (Stats, error) {
	meta, err := MarshalMetadata(a.Metadata)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return Stats{
		OriginalBytes: int64(len(text)),
		BinaryBytes:   int64(len(a.Binary)),
		MetadataBytes: int64(len(meta)),
	}, nil
}
