package usecase

import "time"

// Recorder receives pipeline measurements
type Recorder interface {
	AnalysisCompleted(outcome string)
	VisionDuration(d time.Duration)
	ProductMatch(outcome string)
	EstimateWidened()
	ProductCache(hit bool)
	NudgesEmitted(n int)
}

type nopRecorder struct{}

func (nopRecorder) AnalysisCompleted(string)     {}
func (nopRecorder) VisionDuration(time.Duration) {}
func (nopRecorder) ProductMatch(string)          {}
func (nopRecorder) EstimateWidened()             {}
func (nopRecorder) ProductCache(bool)            {}
func (nopRecorder) NudgesEmitted(int)            {}

// NopRecorder discards every measurement
func NopRecorder() Recorder {
	return nopRecorder{}
}
