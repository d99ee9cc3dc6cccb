package aggregator

import (
	"math"

	"github.com/pcubed/gradeboard/internal/models"
)

// Summary is the derived view of one principal's document set, recomputed in
// full from the latest snapshot. No field is patched incrementally.
type Summary struct {
	Total          int                          `json:"total"`
	CountsByStatus map[models.Status]int        `json:"countsByStatus"`
	CountsByType   map[models.DocumentType]int  `json:"countsByType"`

	// HasMinimumDocuments gates processing in the UI: at least one syllabus
	// must be present.
	HasMinimumDocuments bool `json:"hasMinimumDocuments"`

	// ProgressPercent counts two steps per record, upload and processing.
	ProgressPercent int `json:"progressPercent"`

	AllProcessed bool `json:"allProcessed"`
	CanFormat    bool `json:"canFormat"`

	// Formatting mirrors the in-flight guard at the time the summary was
	// computed.
	Formatting bool `json:"formatting"`
}

var statusBuckets = []models.Status{
	models.StatusUploaded,
	models.StatusExtracted,
	models.StatusProcessed,
	models.StatusError,
}

var typeBuckets = []models.DocumentType{
	models.TypeSyllabus,
	models.TypeTranscript,
	models.TypeGrades,
}

// summarize folds a total snapshot into a Summary. formatting feeds the
// CanFormat gate. Records with an unknown or missing status stay out of every
// status bucket and hold AllProcessed false, but still count toward Total and
// the progress denominator.
func summarize(snap models.Snapshot, formatting bool) Summary {
	s := Summary{
		Total:          len(snap),
		CountsByStatus: make(map[models.Status]int, len(statusBuckets)),
		CountsByType:   make(map[models.DocumentType]int, len(typeBuckets)),
		Formatting:     formatting,
	}
	for _, st := range statusBuckets {
		s.CountsByStatus[st] = 0
	}
	for _, t := range typeBuckets {
		s.CountsByType[t] = 0
	}

	processed := 0
	for _, doc := range snap {
		if doc.Status.Known() {
			s.CountsByStatus[doc.Status]++
		}
		if _, ok := s.CountsByType[doc.DocumentType]; ok {
			s.CountsByType[doc.DocumentType]++
		}
		if doc.Status == models.StatusProcessed {
			processed++
		}
	}

	s.HasMinimumDocuments = s.CountsByType[models.TypeSyllabus] > 0

	// Each record contributes an upload step and a processing step. Every
	// visible record has at least been uploaded; only a processed record
	// completes its second step. Extracted is still mid-pipeline.
	if n := len(snap); n > 0 {
		s.ProgressPercent = int(math.Round(100 * float64(n+processed) / float64(2*n)))
		s.AllProcessed = processed == n
	}

	s.CanFormat = s.CountsByStatus[models.StatusExtracted] > 0 && !formatting
	return s
}
