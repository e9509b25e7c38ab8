package common

//go:generate go run github.com/dmarkham/enumer -json -type Status -trimprefix Status

// Status is the outcome of one granule-processing invocation
type Status int

const (
	StatusDONE    Status = iota // an output raster was written
	StatusSKIPPED               // the output already existed, nothing was recomputed
	StatusFAILED                // the granule produced no output
)

// Result is the per-granule outcome reported to the driver
type Result struct {
	ROI        string     `json:"roi"`
	Collection string     `json:"collection"`
	Granule    GranuleKey `json:"granule"`
	Status     Status     `json:"status"`
	Message    string     `json:"message,omitempty"`
	URI        string     `json:"uri,omitempty"`
}

// Fail returns a copy of the result marked FAILED with the error message
func (r Result) Fail(err error) Result {
	r.Status = StatusFAILED
	r.Message = err.Error()
	return r
}

// Skip returns a copy of the result marked SKIPPED with a short reason
func (r Result) Skip(reason string) Result {
	r.Status = StatusSKIPPED
	r.Message = reason
	return r
}
