package grading

import "context"

// MockAnalyzer is a test double for Analyzer.
type MockAnalyzer struct {
	Result      Result
	LastRequest *Request // captures the last request for inspection
}

// NewMockAnalyzer creates a MockAnalyzer that returns the given result.
func NewMockAnalyzer(res Result) *MockAnalyzer {
	return &MockAnalyzer{Result: res}
}

func (m *MockAnalyzer) Analyze(_ context.Context, req Request) Result {
	m.LastRequest = &req
	return m.Result
}
