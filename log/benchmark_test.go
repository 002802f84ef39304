package log

import (
	"testing"
)

// BenchmarkLoggerInfo benchmarks enqueueing a simple record
func BenchmarkLoggerInfo(b *testing.B) {
	logger, _ := createTestLogger(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", i)
	}
}

// BenchmarkLoggerFiltered benchmarks the cost of a filtered-out record
func BenchmarkLoggerFiltered(b *testing.B) {
	logger, _ := createTestLogger(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("never formatted", i)
	}
}

// BenchmarkConcurrentLogging benchmarks the logger under concurrent producers
func BenchmarkConcurrentLogging(b *testing.B) {
	logger, _ := createTestLogger(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			logger.Info("concurrent message", i)
			i++
		}
	})
}

// BenchmarkRecordRender benchmarks line rendering with escaping
func BenchmarkRecordRender(b *testing.B) {
	r := testRecord(TagInfo, "GET /index.html HTTP/1.1 -- 200")
	buf := make([]byte, 0, 256)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = r.AppendLine(buf[:0], "2006-01-02T15:04:05")
	}
}
