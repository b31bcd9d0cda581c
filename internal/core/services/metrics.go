package services

import "time"

type nopMetrics struct{}

func (nopMetrics) PageFetched(string, int)                     {}
func (nopMetrics) RecordsEmitted(string, int)                  {}
func (nopMetrics) FetchRetried(string)                         {}
func (nopMetrics) StreamFinished(string, error, time.Duration) {}
